// Package interp finds a usable Python interpreter and, on Windows, installs
// an embedded one when none is present.
package interp

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"wakatime/internal/paths"
	"wakatime/internal/proc"
)

// Executable names tried in every candidate directory, GUI-less first.
var executableNames = []string{"pythonw", "python"}

// windowsFixedDirs are probed after the registry, in this order. The order is
// not newest-first for every pair; the first launchable match wins.
var windowsFixedDirs = []string{
	"/python39", "/Python39",
	"/python38", "/Python38",
	"/python37", "/Python37",
	"/python36", "/Python36",
	"/python35", "/Python35",
	"/python34", "/Python34",
	"/python33", "/Python33",
	"/python27", "/Python27",
	"/python26", "/Python26",
}

// Candidates returns the directories probed for an interpreter, in order. An
// empty entry means "search PATH for the bare executable name".
func Candidates(goos, resources string, reg Registry) []string {
	dirs := []string{"", "/", "/usr/local/bin/", "/usr/bin/"}
	if goos != "windows" {
		return dirs
	}
	if bundled, ok := paths.Combine(resources, "python"); ok {
		dirs = append(dirs, bundled)
	}
	for _, root := range []Root{CurrentUser, LocalMachine} {
		if p := firstInstallPath(reg, root); p != "" {
			dirs = append(dirs, p)
		}
	}
	return append(dirs, windowsFixedDirs...)
}

// Locator resolves and memoizes the interpreter location.
type Locator struct {
	runner     proc.Runner
	candidates func() []string
	logger     zerolog.Logger

	mu       sync.Mutex
	location string
}

// NewLocator builds a Locator that probes the directories returned by
// candidates each time resolution is attempted.
func NewLocator(runner proc.Runner, candidates func() []string, logger zerolog.Logger) *Locator {
	if runner == nil {
		runner = proc.CmdRunner{}
	}
	return &Locator{runner: runner, candidates: candidates, logger: logger}
}

// Locate returns the first candidate that can be launched with --version.
// A successful result is cached for the lifetime of the Locator; a failed
// search is not, so a later call probes again.
func (l *Locator) Locate(ctx context.Context) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.location != "" {
		return l.location, true
	}

	for _, dir := range l.candidates() {
		if path, ok := l.probeDir(ctx, dir); ok {
			l.location = path
			l.logger.Debug().Str("python", path).Msg("found python binary")
			return path, true
		}
	}
	l.logger.Warn().Msg("could not find python binary")
	return "", false
}

// Cached returns the memoized location without probing.
func (l *Locator) Cached() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.location, l.location != ""
}

func (l *Locator) probeDir(ctx context.Context, dir string) (string, bool) {
	for _, name := range executableNames {
		path, ok := paths.Combine(dir, name)
		if !ok {
			continue
		}
		if err := l.runner.Launch(ctx, path, "--version"); err != nil {
			continue
		}
		return path, true
	}
	return "", false
}
