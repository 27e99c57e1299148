// Package heartbeat turns file activity into rate-limited invocations of the
// companion tool.
package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wakatime/internal/clock"
	"wakatime/internal/proc"
)

const (
	// Frequency is the minimum gap between heartbeats for the same file
	// unless the event is a write.
	Frequency = 2 * time.Minute

	// MaxRetries is the number of extra spawn attempts after the first.
	MaxRetries = 3

	// RetryDelay separates spawn attempts.
	RetryDelay = 30 * time.Millisecond
)

// ErrNoInterpreter is returned by a dispatch when no Python could be found.
var ErrNoInterpreter = errors.New("python interpreter not found")

// Request is one accepted heartbeat.
type Request struct {
	ID      uuid.UUID
	File    string
	IsWrite bool
	Project string
	Time    time.Time
}

// DebounceState remembers the last accepted heartbeat.
type DebounceState struct {
	LastFile     string
	LastDispatch time.Time
}

// Accepts reports whether an event passes the debounce gate at now.
func (s DebounceState) Accepts(file string, isWrite bool, now time.Time) bool {
	return isWrite || file != s.LastFile || now.Sub(s.LastDispatch) > Frequency
}

// Settings supplies user credentials and preferences.
type Settings interface {
	APIKey() string
	Debug() bool
}

// ProjectNamer resolves the project a file belongs to.
type ProjectNamer interface {
	ProjectName(file string) (string, bool)
}

// Interpreter resolves the Python binary.
type Interpreter interface {
	Locate(ctx context.Context) (string, bool)
}

// Identity describes the host and this agent for the --plugin argument.
type Identity struct {
	HostName     string
	HostVersion  string
	AgentVersion string
}

// Plugin formats the identity as "<host>/<hostver> <host>-wakatime/<agentver>".
func (id Identity) Plugin() string {
	return fmt.Sprintf("%s/%s %s-wakatime/%s", id.HostName, id.HostVersion, id.HostName, id.AgentVersion)
}

// Options wires a Dispatcher.
type Options struct {
	Runner      proc.Runner
	Clock       clock.Clock
	Pool        *Pool
	Settings    Settings
	Projects    ProjectNamer
	Interpreter Interpreter
	Identity    Identity
	ToolEntry   string
	// Ready reports whether bootstrap has finished. Nil means always ready.
	Ready func() bool
	// Ignore lists extra path substrings that are never reported.
	Ignore []string
	Logger zerolog.Logger
}

// Dispatcher debounces file events and spawns the companion tool for the ones
// that pass.
type Dispatcher struct {
	opts Options

	mu    sync.Mutex
	state DebounceState
}

// New returns a Dispatcher. Missing runner, clock and pool get defaults.
func New(opts Options) *Dispatcher {
	if opts.Runner == nil {
		opts.Runner = proc.CmdRunner{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Pool == nil {
		opts.Pool = NewPool(context.Background(), DefaultWorkers)
	}
	return &Dispatcher{opts: opts}
}

// State returns a snapshot of the debounce state.
func (d *Dispatcher) State() DebounceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetState replaces the debounce state.
func (d *Dispatcher) SetState(s DebounceState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = s
}

// Notify records file activity. It returns the handle of the scheduled
// dispatch, or nil when the event was dropped. It never blocks on I/O.
func (d *Dispatcher) Notify(file string, isWrite bool) *Task {
	if d.opts.Ready != nil && !d.opts.Ready() {
		d.opts.Logger.Debug().Str("file", file).Msg("heartbeat dropped: not ready")
		return nil
	}
	if d.Ignored(file) {
		return nil
	}

	now := d.opts.Clock.Now()
	d.mu.Lock()
	if !d.state.Accepts(file, isWrite, now) {
		d.mu.Unlock()
		return nil
	}
	d.state = DebounceState{LastFile: file, LastDispatch: now}
	d.mu.Unlock()

	req := Request{ID: uuid.New(), File: file, IsWrite: isWrite, Time: now}
	return d.opts.Pool.Submit(req.ID, func(ctx context.Context) error {
		return d.dispatch(ctx, req)
	})
}

// Ignored reports whether file is host housekeeping that is never tracked.
func (d *Dispatcher) Ignored(file string) bool {
	if file == "atlassian-ide-plugin.xml" || strings.Contains(file, "/.idea/workspace.xml") {
		return true
	}
	for _, pattern := range d.opts.Ignore {
		if pattern != "" && strings.Contains(file, pattern) {
			return true
		}
	}
	return false
}

// BuildCommand returns the argv for req, interpreter first. The argument
// order is fixed by the companion tool's parser.
func (d *Dispatcher) BuildCommand(python string, req Request) []string {
	argv := []string{python, d.opts.ToolEntry, "--file", req.File, "--key", d.apiKey()}
	if req.Project != "" {
		argv = append(argv, "--project", req.Project)
	}
	argv = append(argv, "--plugin", d.opts.Identity.Plugin())
	if req.IsWrite {
		argv = append(argv, "--write")
	}
	return argv
}

func (d *Dispatcher) apiKey() string {
	if d.opts.Settings == nil {
		return ""
	}
	return d.opts.Settings.APIKey()
}

func (d *Dispatcher) debug() bool {
	return d.opts.Settings != nil && d.opts.Settings.Debug()
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) error {
	logger := d.opts.Logger.With().Str("request_id", req.ID.String()).Logger()

	python, ok := d.opts.Interpreter.Locate(ctx)
	if !ok {
		logger.Error().Str("file", req.File).Msg("heartbeat dropped: python not found")
		return ErrNoInterpreter
	}
	if d.opts.Projects != nil {
		if name, ok := d.opts.Projects.ProjectName(req.File); ok {
			req.Project = name
		}
	}

	argv := d.BuildCommand(python, req)
	logger.Debug().Strs("command", Redact(argv)).Msg("executing cli")

	var err error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			d.opts.Clock.Sleep(RetryDelay)
		}
		if err = d.spawn(ctx, logger, argv); err == nil {
			return nil
		}
		logger.Debug().Err(err).Int("attempt", attempt+1).Msg("spawn failed")
	}
	logger.Error().Err(err).Str("file", req.File).Msg("heartbeat dropped after retries")
	return err
}

func (d *Dispatcher) spawn(ctx context.Context, logger zerolog.Logger, argv []string) error {
	if !d.debug() {
		return d.opts.Runner.Launch(ctx, argv[0], argv[1:]...)
	}

	res, err := d.opts.Runner.Run(ctx, argv[0], argv[1:], proc.RunOptions{})
	if err != nil {
		return err
	}
	for _, line := range splitLines(res.Stdout) {
		logger.Debug().Str("stream", "stdout").Msg(line)
	}
	for _, line := range splitLines(res.Stderr) {
		logger.Debug().Str("stream", "stderr").Msg(line)
	}
	logger.Debug().Int("exit_code", res.ExitCode).Msg("command finished")
	return nil
}

func splitLines(b []byte) []string {
	text := strings.TrimRight(string(b), "\r\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

const keyMask = "XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXX"

// ObfuscateKey masks all but the last four characters of key. Keys of four
// characters or fewer are returned unchanged.
func ObfuscateKey(key string) string {
	runes := []rune(key)
	if len(runes) <= 4 {
		return key
	}
	return keyMask + string(runes[len(runes)-4:])
}

// Redact returns a copy of argv with the value following --key obfuscated.
func Redact(argv []string) []string {
	out := make([]string, len(argv))
	copy(out, argv)
	for i := 1; i < len(out); i++ {
		if argv[i-1] == "--key" {
			out[i] = ObfuscateKey(argv[i])
		}
	}
	return out
}
