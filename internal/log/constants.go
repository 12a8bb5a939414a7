package log

const (
	Action   = "action"
	Args     = "args"
	BuildID  = "build_id"
	Cmd      = "cmd"
	Dir      = "dir"
	Duration = "duration"
	Error    = "error"
	Event    = "event"
	ExitCode = "exit_code"
	HostOS   = "host_os"
	Path     = "path"
	Pattern  = "pattern"
	Script   = "script"
	Tool     = "tool"
)
