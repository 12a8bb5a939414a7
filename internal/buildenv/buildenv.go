// Package buildenv holds the configuration context that is passed through the
// configure, build and post-build stages of a firmware build.
package buildenv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Keys of the string view returned by Get. They match the names the
// PlatformIO build environment uses.
const (
	KeyProjectDir       = "PROJECT_DIR"
	KeyFlashExtraImages = "FLASH_EXTRA_IMAGES"
	KeyFSTool           = "MKSPIFFSTOOL"
)

// ErrNoBootloaderImage is returned by BootloaderPath when no extra flash
// image is configured.
var ErrNoBootloaderImage = errors.New("no FLASH_EXTRA_IMAGES entry to take the bootloader path from")

// ImagePair is one FLASH_EXTRA_IMAGES entry: a flash offset and the image
// file written there.
type ImagePair struct {
	Offset string
	Path   string
}

// ParseImagePair parses "offset=path" or "offset path".
func ParseImagePair(s string) (ImagePair, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, "= ")
	if sep <= 0 || sep == len(s)-1 {
		return ImagePair{}, fmt.Errorf("invalid flash image %q: want offset=path", s)
	}
	return ImagePair{
		Offset: strings.TrimSpace(s[:sep]),
		Path:   strings.TrimSpace(s[sep+1:]),
	}, nil
}

func (p ImagePair) String() string {
	return p.Offset + "=" + p.Path
}

// Environment is the build configuration shared by every stage of a single
// build invocation. It is created once per invocation and never persisted.
type Environment struct {
	// ProjectDir is the PlatformIO project directory, without trailing slash.
	ProjectDir string

	// FlashExtraImages are the extra images flashed with the firmware. The
	// first entry is the bootloader.
	FlashExtraImages []ImagePair

	fsTool           string
	fsToolOverridden bool
}

// New returns an Environment for projectDir whose filesystem-image tool
// starts out as defaultFSTool.
func New(projectDir, defaultFSTool string, images ...ImagePair) *Environment {
	return &Environment{
		ProjectDir:       projectDir,
		FlashExtraImages: images,
		fsTool:           defaultFSTool,
	}
}

// ProjectRoot is ProjectDir with a trailing slash. Script and tool paths are
// formed by appending to it.
func (e *Environment) ProjectRoot() string {
	return e.ProjectDir + "/"
}

// BootloaderPath is the path of the first extra flash image.
func (e *Environment) BootloaderPath() (string, error) {
	if len(e.FlashExtraImages) == 0 {
		return "", ErrNoBootloaderImage
	}
	return e.FlashExtraImages[0].Path, nil
}

// FSTool is the filesystem-image tool path (MKSPIFFSTOOL).
func (e *Environment) FSTool() string {
	return e.fsTool
}

// SetFSTool replaces the filesystem-image tool path.
func (e *Environment) SetFSTool(path string) {
	e.fsTool = path
	e.fsToolOverridden = true
}

// FSToolOverridden reports whether SetFSTool has been called.
func (e *Environment) FSToolOverridden() bool {
	return e.fsToolOverridden
}

// Get returns the string view of key, and whether the key is known.
func (e *Environment) Get(key string) (string, bool) {
	switch key {
	case KeyProjectDir:
		return e.ProjectDir, true
	case KeyFSTool:
		return e.fsTool, true
	case KeyFlashExtraImages:
		return strings.Join(lo.Map(e.FlashExtraImages, func(p ImagePair, _ int) string {
			return p.String()
		}), ","), true
	default:
		return "", false
	}
}

// Keys lists the keys understood by Get, in display order.
func Keys() []string {
	return []string{KeyProjectDir, KeyFlashExtraImages, KeyFSTool}
}
