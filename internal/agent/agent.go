// Package agent wires the interpreter locator, tool manager and heartbeat
// dispatcher together and exposes the two entry points a host editor calls:
// Start once at launch and Notify for every file event.
package agent

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"wakatime/internal/clock"
	"wakatime/internal/config"
	"wakatime/internal/fetch"
	"wakatime/internal/heartbeat"
	"wakatime/internal/interp"
	"wakatime/internal/paths"
	"wakatime/internal/proc"
	"wakatime/internal/tools"
)

// Version is reported to the companion tool in the --plugin argument.
const Version = "6.0.1"

const debugWarning = "Running WakaTime in DEBUG mode. Your editor may be slow when saving or editing files."

// ErrNoInterpreter means bootstrap stopped because Python could not be found
// or installed.
var ErrNoInterpreter = errors.New("python is not available")

// Fetcher downloads remote resources.
type Fetcher interface {
	tools.Fetcher
	interp.Downloader
}

// Options wires an Agent. Zero values get working defaults.
type Options struct {
	Paths    paths.AgentPaths
	Config   config.Config
	Settings config.UserSettings
	Runner   proc.Runner
	Fetcher  Fetcher
	Registry interp.Registry
	Projects heartbeat.ProjectNamer
	Clock    clock.Clock
	Alerter  Alerter
	Reporter Reporter
	// PromptKey asks the user for an API key when none is configured.
	PromptKey func() (string, bool)
	GOOS      string
	GOARCH    string
	Logger    zerolog.Logger
}

// Result summarises a bootstrap run.
type Result struct {
	Interpreter string       `json:"interpreter,omitempty"`
	Tool        tools.Status `json:"tool"`
	Ready       bool         `json:"ready"`
}

// Agent owns every piece of process-wide state: the memoized interpreter,
// the debounce state and the readiness flag.
type Agent struct {
	opts       Options
	locator    *interp.Locator
	installer  *interp.Installer
	tools      *tools.Manager
	pool       *heartbeat.Pool
	dispatcher *heartbeat.Dispatcher

	ready     atomic.Bool
	alertOnce sync.Once
}

// New builds an Agent. Background work runs under ctx.
func New(ctx context.Context, opts Options) *Agent {
	if opts.Runner == nil {
		opts.Runner = proc.CmdRunner{}
	}
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.New(opts.Logger)
	}
	if opts.Registry == nil {
		opts.Registry = interp.SystemRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Alerter == nil {
		opts.Alerter = nopAlerter{}
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.GOARCH == "" {
		opts.GOARCH = runtime.GOARCH
	}

	a := &Agent{opts: opts}
	a.locator = interp.NewLocator(opts.Runner, func() []string {
		return interp.Candidates(opts.GOOS, opts.Paths.Resources, opts.Registry)
	}, opts.Logger)
	a.installer = &interp.Installer{
		Paths:      opts.Paths,
		Downloader: opts.Fetcher,
		GOOS:       opts.GOOS,
		GOARCH:     opts.GOARCH,
		Logger:     opts.Logger,
	}
	a.tools = tools.NewManager(opts.Paths, a.locator, opts.Fetcher, opts.Runner, opts.Logger)
	a.pool = heartbeat.NewPool(ctx, opts.Config.Workers)
	a.dispatcher = heartbeat.New(heartbeat.Options{
		Runner:      opts.Runner,
		Clock:       opts.Clock,
		Pool:        a.pool,
		Settings:    &a.opts.Settings,
		Projects:    opts.Projects,
		Interpreter: a.locator,
		Identity: heartbeat.Identity{
			HostName:     opts.Config.Host.Name,
			HostVersion:  opts.Config.Host.Version,
			AgentVersion: Version,
		},
		ToolEntry: opts.Paths.ToolEntry,
		Ready:     a.ready.Load,
		Ignore:    opts.Config.Ignore,
		Logger:    opts.Logger,
	})
	return a
}

// Tools exposes the tool manager for status and maintenance commands.
func (a *Agent) Tools() *tools.Manager { return a.tools }

// Ready reports whether bootstrap has finished and heartbeats are accepted.
func (a *Agent) Ready() bool { return a.ready.Load() }

// Start runs the bootstrap sequence: resolve or install Python, then install
// or upgrade the companion tool, then accept heartbeats. A failed tool install
// still marks the agent ready; heartbeats then fail at spawn time.
func (a *Agent) Start(ctx context.Context) (Result, error) {
	log := a.opts.Logger
	a.checkAPIKey()

	var result Result
	a.report(Event{Step: StepInterpreter, State: StateRunning})
	python, ok := a.locator.Locate(ctx)
	if !ok {
		log.Info().Msg("python not found, downloading python")
		a.report(Event{Step: StepInterpreter, State: StateRunning, Detail: "installing"})
		if a.installer.Install(ctx) {
			log.Info().Msg("finished installing python")
		}
		python, ok = a.locator.Locate(ctx)
	}
	if !ok {
		a.report(Event{Step: StepInterpreter, State: StateFailed, Err: ErrNoInterpreter})
		a.alertOnce.Do(func() {
			a.opts.Alerter.Error("Error", interp.Remediation(a.opts.GOOS))
		})
		return result, ErrNoInterpreter
	}
	result.Interpreter = python
	a.report(Event{Step: StepInterpreter, State: StateDone, Detail: python})

	a.report(Event{Step: StepTool, State: StateRunning})
	status, err := a.tools.Ensure(ctx)
	status.Interpreter = python
	result.Tool = status
	if err != nil {
		a.report(Event{Step: StepTool, State: StateFailed, Detail: string(status.Action), Err: err})
	} else {
		a.report(Event{Step: StepTool, State: StateDone, Detail: string(status.Action)})
	}
	log.Debug().Str("location", a.opts.Paths.ToolEntry).Msg("cli location")

	a.ready.Store(true)
	result.Ready = true

	if a.opts.Settings.Debug() {
		a.opts.Alerter.Warn("Debug", debugWarning)
	}
	log.Info().Msg("finished initializing wakatime agent")
	return result, err
}

// Resume is the short-lived counterpart of Start. When Python and the
// companion tool are both present it marks the agent ready without checking
// for a newer tool release. Otherwise it falls back to Start.
func (a *Agent) Resume(ctx context.Context) (Result, error) {
	python, ok := a.locator.Locate(ctx)
	if !ok || !a.tools.IsInstalled() {
		return a.Start(ctx)
	}
	a.ready.Store(true)
	a.opts.Logger.Debug().Str("python", python).Msg("resumed without update check")
	return Result{
		Interpreter: python,
		Tool:        tools.Status{Tool: tools.ToolName, Path: a.opts.Paths.ToolEntry, Interpreter: python, Installed: true},
		Ready:       true,
	}, nil
}

func (a *Agent) checkAPIKey() {
	if a.opts.Settings.APIKey() == "" && a.opts.PromptKey != nil {
		if key, ok := a.opts.PromptKey(); ok && key != "" {
			if err := config.SaveAPIKey(a.opts.Settings.Path, key); err != nil {
				a.opts.Logger.Warn().Err(err).Msg("save api key")
			}
			a.opts.Settings.Key = key
		}
	}
	a.opts.Logger.Debug().Str("api_key", heartbeat.ObfuscateKey(a.opts.Settings.APIKey())).Msg("api key")
}

// Notify forwards a file event to the dispatcher. It returns nil when the
// event was dropped.
func (a *Agent) Notify(file string, isWrite bool) *heartbeat.Task {
	return a.dispatcher.Notify(file, isWrite)
}

// Wait blocks until every dispatched heartbeat has finished.
func (a *Agent) Wait() {
	a.pool.Wait()
}

func (a *Agent) report(e Event) {
	if a.opts.Reporter != nil {
		a.opts.Reporter.Report(e)
	}
}
