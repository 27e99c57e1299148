package agent

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"wakatime/internal/config"
	"wakatime/internal/interp"
	"wakatime/internal/paths"
	"wakatime/internal/proc"
)

const about = "__version_info__ = ('13', '0', '7')\n"

// scriptedRunner launches only binaries listed in available and answers
// --version for the installed tool.
type scriptedRunner struct {
	mu        sync.Mutex
	available map[string]bool
	launched  [][]string
}

func (r *scriptedRunner) Launch(ctx context.Context, command string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.available[command] {
		return &proc.StartError{Command: command, Err: os.ErrNotExist}
	}
	r.launched = append(r.launched, append([]string{command}, args...))
	return nil
}

func (r *scriptedRunner) Run(ctx context.Context, command string, args []string, opts proc.RunOptions) (proc.Result, error) {
	if err := r.Launch(ctx, command, args...); err != nil {
		return proc.Result{}, err
	}
	return proc.Result{Stdout: []byte("13.0.7\n")}, nil
}

func (r *scriptedRunner) heartbeats() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [][]string
	for _, argv := range r.launched {
		if len(argv) > 2 && argv[2] == "--file" {
			out = append(out, argv)
		}
	}
	return out
}

type zipFetcher struct {
	mu        sync.Mutex
	downloads []string
	lookups   int
}

func (f *zipFetcher) String(ctx context.Context, url string) string {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	return about
}

func (f *zipFetcher) ToFile(ctx context.Context, url, dest string) bool {
	f.mu.Lock()
	f.downloads = append(f.downloads, url)
	f.mu.Unlock()
	if strings.Contains(url, "python.org") {
		return false
	}
	out, err := os.Create(dest)
	if err != nil {
		return false
	}
	defer out.Close()
	zw := zip.NewWriter(out)
	for name, body := range map[string]string{
		"wakatime-master/wakatime/cli.py":       "",
		"wakatime-master/wakatime/__about__.py": about,
	} {
		w, _ := zw.Create(name)
		_, _ = w.Write([]byte(body))
	}
	return zw.Close() == nil
}

type recordingAlerter struct {
	errors []string
	warns  []string
}

func (a *recordingAlerter) Error(title, message string) { a.errors = append(a.errors, message) }
func (a *recordingAlerter) Warn(title, message string)  { a.warns = append(a.warns, message) }

func newAgent(t *testing.T, runner *scriptedRunner, mutate func(*Options)) (*Agent, *zipFetcher, *recordingAlerter) {
	t.Helper()
	fetcher := &zipFetcher{}
	alerter := &recordingAlerter{}
	cfg := config.Default()
	cfg.Host = config.HostConfig{Name: "vim", Version: "9.1"}
	opts := Options{
		Paths:    paths.New(t.TempDir()),
		Config:   cfg,
		Settings: config.UserSettings{Key: "0f8e2b7a-1c3d-4e5f-8a9b-0c1d2e3f4a5b"},
		Runner:   runner,
		Fetcher:  fetcher,
		Registry: interp.NoRegistry{},
		Alerter:  alerter,
		GOOS:     "linux",
		GOARCH:   "amd64",
		Logger:   zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(context.Background(), opts), fetcher, alerter
}

func TestStartInstallsToolAndBecomesReady(t *testing.T) {
	runner := &scriptedRunner{available: map[string]bool{"python": true}}
	var events []Event
	a, fetcher, alerter := newAgent(t, runner, func(o *Options) {
		o.Reporter = ReporterFunc(func(e Event) { events = append(events, e) })
	})

	require.Nil(t, a.Notify("main.go", true), "events before bootstrap are dropped")

	res, err := a.Start(context.Background())
	require.NoError(t, err)
	require.True(t, res.Ready)
	require.True(t, a.Ready())
	require.Equal(t, "python", res.Interpreter)
	require.Equal(t, "installed", string(res.Tool.Action))
	require.Len(t, fetcher.downloads, 1)
	require.Empty(t, alerter.errors)
	require.Empty(t, alerter.warns)

	require.Equal(t, Event{Step: StepInterpreter, State: StateRunning}, events[0])
	require.Equal(t, StateDone, events[len(events)-1].State)
	require.Equal(t, StepTool, events[len(events)-1].Step)

	task := a.Notify("main.go", true)
	require.NotNil(t, task)
	require.NoError(t, task.Wait())
	beats := runner.heartbeats()
	require.Len(t, beats, 1)
	require.Contains(t, beats[0], "vim/9.1 vim-wakatime/"+Version)
}

func TestStartSecondRunIsUpToDate(t *testing.T) {
	runner := &scriptedRunner{available: map[string]bool{"python": true}}
	a, fetcher, _ := newAgent(t, runner, nil)
	_, err := a.Start(context.Background())
	require.NoError(t, err)

	res, err := a.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, "up-to-date", string(res.Tool.Action))
	require.Len(t, fetcher.downloads, 1)
}

func TestResumeSkipsUpdateCheckWhenInstalled(t *testing.T) {
	runner := &scriptedRunner{available: map[string]bool{"python": true}}
	dir := t.TempDir()
	first, _, _ := newAgent(t, runner, func(o *Options) { o.Paths = paths.New(dir) })
	_, err := first.Start(context.Background())
	require.NoError(t, err)

	second, fetcher, _ := newAgent(t, runner, func(o *Options) { o.Paths = paths.New(dir) })
	res, err := second.Resume(context.Background())
	require.NoError(t, err)
	require.True(t, res.Ready)
	require.True(t, second.Ready())
	require.True(t, res.Tool.Installed)
	require.Equal(t, "python", res.Interpreter)
	require.Zero(t, fetcher.lookups)
	require.Empty(t, fetcher.downloads)

	task := second.Notify("main.go", true)
	require.NotNil(t, task)
	require.NoError(t, task.Wait())
}

func TestResumeInstallsWhenMissing(t *testing.T) {
	runner := &scriptedRunner{available: map[string]bool{"python": true}}
	a, fetcher, _ := newAgent(t, runner, nil)

	res, err := a.Resume(context.Background())
	require.NoError(t, err)
	require.True(t, res.Ready)
	require.Equal(t, "installed", string(res.Tool.Action))
	require.Len(t, fetcher.downloads, 1)
}

func TestStartWithoutPythonAlertsOnce(t *testing.T) {
	runner := &scriptedRunner{available: map[string]bool{}}
	a, _, alerter := newAgent(t, runner, nil)

	for i := 0; i < 2; i++ {
		_, err := a.Start(context.Background())
		require.ErrorIs(t, err, ErrNoInterpreter)
	}
	require.False(t, a.Ready())
	require.Len(t, alerter.errors, 1)
	require.Contains(t, alerter.errors[0], "WakaTime requires Python to be installed.")
	require.Nil(t, a.Notify("main.go", true))
}

func TestStartOnWindowsTriesEmbeddedPython(t *testing.T) {
	runner := &scriptedRunner{available: map[string]bool{}}
	a, fetcher, alerter := newAgent(t, runner, func(o *Options) {
		o.GOOS = "windows"
	})

	_, err := a.Start(context.Background())
	require.ErrorIs(t, err, ErrNoInterpreter)
	require.Len(t, fetcher.downloads, 1)
	require.Equal(t, interp.EmbeddedURL("amd64"), fetcher.downloads[0])
	require.Len(t, alerter.errors, 1)
}

func TestDebugModeWarns(t *testing.T) {
	runner := &scriptedRunner{available: map[string]bool{"python": true}}
	a, _, alerter := newAgent(t, runner, func(o *Options) {
		o.Settings.DebugEnabled = true
	})

	_, err := a.Start(context.Background())
	require.NoError(t, err)
	require.Len(t, alerter.warns, 1)
	require.Contains(t, alerter.warns[0], "DEBUG mode")
}

func TestMissingKeyIsPromptedAndSaved(t *testing.T) {
	runner := &scriptedRunner{available: map[string]bool{"python": true}}
	cfgPath := filepath.Join(t.TempDir(), ".wakatime.cfg")
	key := "0f8e2b7a-1c3d-4e5f-8a9b-0c1d2e3f4a5b"
	a, _, _ := newAgent(t, runner, func(o *Options) {
		o.Settings = config.UserSettings{Path: cfgPath}
		o.PromptKey = func() (string, bool) { return key, true }
	})

	_, err := a.Start(context.Background())
	require.NoError(t, err)

	saved, err := config.LoadUserSettings(cfgPath)
	require.NoError(t, err)
	require.Equal(t, key, saved.APIKey())

	task := a.Notify("main.go", true)
	require.NotNil(t, task)
	require.NoError(t, task.Wait())
	require.Contains(t, runner.heartbeats()[0], key)
}
