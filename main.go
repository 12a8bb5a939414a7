package main

import (
	"context"
	"os"

	"github.com/yaklabco/fwhook/cmd/fwhook"
	"github.com/yaklabco/fwhook/internal/exit"
)

func main() {
	os.Exit(actualMain())
}

// actualMain returns the exit status of the failing child process, if any,
// so the build tool sees the same code. fang has already printed the error.
func actualMain() int {
	ctx := context.Background()

	rootCmd := fwhook.NewRootCmd(ctx)

	return exit.Status(fwhook.ExecuteWithFang(ctx, rootCmd))
}
