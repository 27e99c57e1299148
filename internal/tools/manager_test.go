package tools

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"wakatime/internal/paths"
	"wakatime/internal/proc"
)

const aboutBody = "__version_info__ = ('10', '2', '1')\n__version__ = '.'.join(__version_info__)\n"

type fakeFetcher struct {
	descriptor string
	files      map[string]string
	downloads  int
	failFile   bool
}

func (f *fakeFetcher) String(ctx context.Context, url string) string {
	return f.descriptor
}

func (f *fakeFetcher) ToFile(ctx context.Context, url, dest string) bool {
	f.downloads++
	if f.failFile {
		return false
	}
	out, err := os.Create(dest)
	if err != nil {
		return false
	}
	defer out.Close()
	zw := zip.NewWriter(out)
	for name, body := range f.files {
		w, err := zw.Create(name)
		if err != nil {
			return false
		}
		if _, err := w.Write([]byte(body)); err != nil {
			return false
		}
	}
	return zw.Close() == nil
}

type fakeInterp struct {
	path string
}

func (f fakeInterp) Locate(ctx context.Context) (string, bool) {
	return f.path, f.path != ""
}

// versionRunner answers --version by reading the installed descriptor.
type versionRunner struct {
	calls    int
	startErr error
	exitCode int
}

func (r *versionRunner) Launch(ctx context.Context, command string, args ...string) error {
	return nil
}

func (r *versionRunner) Run(ctx context.Context, command string, args []string, opts proc.RunOptions) (proc.Result, error) {
	r.calls++
	if r.startErr != nil {
		return proc.Result{}, &proc.StartError{Command: command, Err: r.startErr}
	}
	version := readAboutVersion(args[0])
	return proc.Result{Stderr: []byte(version + "\n"), ExitCode: r.exitCode}, nil
}

func cliArchive() map[string]string {
	return map[string]string{
		"wakatime-master/wakatime/cli.py":       "print('cli')\n",
		"wakatime-master/wakatime/__about__.py": aboutBody,
	}
}

func newTestManager(t *testing.T, fetcher *fakeFetcher, runner *versionRunner) *Manager {
	t.Helper()
	return NewManager(paths.New(t.TempDir()), fakeInterp{path: "python"}, fetcher, runner, zerolog.Nop())
}

func TestParseVersionInfo(t *testing.T) {
	if got := ParseVersionInfo(aboutBody); got != "10.2.1" {
		t.Fatalf("expected 10.2.1, got %s", got)
	}
	if got := ParseVersionInfo("__version__ = '10.2.1'"); got != UnknownVersion {
		t.Fatalf("expected Unknown, got %s", got)
	}
	if got := ParseVersionInfo(""); got != UnknownVersion {
		t.Fatalf("expected Unknown for empty text, got %s", got)
	}
}

func TestIsOutdatedFalseWhenNotInstalled(t *testing.T) {
	runner := &versionRunner{}
	m := newTestManager(t, &fakeFetcher{descriptor: aboutBody}, runner)
	if m.IsOutdated(context.Background()) {
		t.Fatalf("missing tool must not be reported as outdated")
	}
	if runner.calls != 0 {
		t.Fatalf("expected no version invocation, got %d", runner.calls)
	}
}

func TestInstallThenUpToDate(t *testing.T) {
	fetcher := &fakeFetcher{descriptor: aboutBody, files: cliArchive()}
	m := newTestManager(t, fetcher, &versionRunner{})
	ctx := context.Background()

	if err := m.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !m.IsInstalled() {
		t.Fatalf("expected tool to be installed")
	}
	if m.IsOutdated(ctx) {
		t.Fatalf("expected fresh install to be current")
	}
	if _, err := os.Stat(filepath.Join(m.Paths.ToolRoot, archiveFileName)); !os.IsNotExist(err) {
		t.Fatalf("expected archive to be removed, err=%v", err)
	}

	manifest, err := loadManifest(m.Paths.Resources)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if got := manifest.Entries[ToolName].Version; got != "10.2.1" {
		t.Fatalf("expected manifest version 10.2.1, got %s", got)
	}
}

func TestIsOutdatedWhenRemoteMoves(t *testing.T) {
	fetcher := &fakeFetcher{descriptor: aboutBody, files: cliArchive()}
	m := newTestManager(t, fetcher, &versionRunner{})
	ctx := context.Background()
	if err := m.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}

	fetcher.descriptor = "__version_info__ = ('10', '3', '0')"
	if !m.IsOutdated(ctx) {
		t.Fatalf("expected newer remote version to mark tool outdated")
	}
}

func TestIsOutdatedOnFailures(t *testing.T) {
	ctx := context.Background()

	fetcher := &fakeFetcher{descriptor: aboutBody, files: cliArchive()}
	runner := &versionRunner{exitCode: 1}
	m := newTestManager(t, fetcher, runner)
	if err := m.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !m.IsOutdated(ctx) {
		t.Fatalf("non-zero exit should count as outdated")
	}

	runner.exitCode = 0
	runner.startErr = errors.New("exec: not found")
	if !m.IsOutdated(ctx) {
		t.Fatalf("start failure should count as outdated")
	}

	runner.startErr = nil
	m.Interpreter = fakeInterp{}
	if !m.IsOutdated(ctx) {
		t.Fatalf("missing interpreter should count as outdated")
	}
}

func TestInstallPurgesStaleTree(t *testing.T) {
	fetcher := &fakeFetcher{descriptor: aboutBody, files: cliArchive()}
	m := newTestManager(t, fetcher, &versionRunner{})
	stale := filepath.Join(m.Paths.ToolDir, "wakatime", "stale.py")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := m.Upgrade(context.Background()); err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale file to be purged, err=%v", err)
	}
}

func TestInstallDownloadFailure(t *testing.T) {
	fetcher := &fakeFetcher{failFile: true}
	m := newTestManager(t, fetcher, &versionRunner{})
	err := m.Install(context.Background())
	if err == nil || !strings.Contains(err.Error(), "download") {
		t.Fatalf("expected download error, got %v", err)
	}
	if m.IsInstalled() {
		t.Fatalf("tool should not be installed after failed download")
	}
}

func TestEnsureActions(t *testing.T) {
	fetcher := &fakeFetcher{descriptor: aboutBody, files: cliArchive()}
	m := newTestManager(t, fetcher, &versionRunner{})
	ctx := context.Background()

	status, err := m.Ensure(ctx)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if status.Action != ActionInstalled || !status.Installed {
		t.Fatalf("expected install action, got %+v", status)
	}

	status, err = m.Ensure(ctx)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if status.Action != ActionCurrent {
		t.Fatalf("expected up-to-date, got %s", status.Action)
	}
	if fetcher.downloads != 1 {
		t.Fatalf("expected a single download, got %d", fetcher.downloads)
	}

	fetcher.descriptor = "__version_info__ = ('11', '0', '0')"
	status, err = m.Ensure(ctx)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if status.Action != ActionUpgraded {
		t.Fatalf("expected upgrade, got %s", status.Action)
	}
}

func TestDetectReportsVersions(t *testing.T) {
	fetcher := &fakeFetcher{descriptor: aboutBody, files: cliArchive()}
	m := newTestManager(t, fetcher, &versionRunner{})
	ctx := context.Background()

	status := m.Detect(ctx)
	if status.Installed || status.Error == "" {
		t.Fatalf("expected not-installed status, got %+v", status)
	}

	if err := m.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	status = m.Detect(ctx)
	if !status.Installed || status.Version != "10.2.1" || status.Latest != "10.2.1" || status.Outdated {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Interpreter != "python" || status.InstalledAt == "" {
		t.Fatalf("expected interpreter and install time, got %+v", status)
	}
}
