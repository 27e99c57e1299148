package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wakatime/internal/archive"
	"wakatime/internal/paths"
	"wakatime/internal/proc"
)

// Interpreter resolves the Python binary used to run the tool.
type Interpreter interface {
	Locate(ctx context.Context) (string, bool)
}

// Fetcher retrieves remote resources without returning errors; failures are
// reported as empty text or false.
type Fetcher interface {
	String(ctx context.Context, url string) string
	ToFile(ctx context.Context, url, dest string) bool
}

// Manager checks, installs and upgrades the companion tool.
type Manager struct {
	Paths       paths.AgentPaths
	Interpreter Interpreter
	Fetcher     Fetcher
	Runner      proc.Runner
	Logger      zerolog.Logger

	// ArchiveURL and VersionURL default to the public endpoints.
	ArchiveURL string
	VersionURL string
}

// NewManager returns a Manager using the default endpoints.
func NewManager(pp paths.AgentPaths, interp Interpreter, fetcher Fetcher, runner proc.Runner, logger zerolog.Logger) *Manager {
	if runner == nil {
		runner = proc.CmdRunner{}
	}
	return &Manager{
		Paths:       pp,
		Interpreter: interp,
		Fetcher:     fetcher,
		Runner:      runner,
		Logger:      logger,
		ArchiveURL:  ArchiveURL,
		VersionURL:  VersionURL,
	}
}

// IsInstalled reports whether the tool's entry script exists.
func (m *Manager) IsInstalled() bool {
	ok, err := paths.FileExists(m.Paths.ToolEntry)
	m.Logger.Debug().Str("location", m.Paths.ToolEntry).Bool("exists", ok).Msg("wakatime-cli location")
	return err == nil && ok
}

// IsOutdated runs the installed tool with --version and compares its output
// with the remote descriptor. It is false when the tool is not installed and
// true whenever the check itself fails. The invocation has no timeout.
func (m *Manager) IsOutdated(ctx context.Context) bool {
	if !m.IsInstalled() {
		return false
	}
	output, ok := m.versionOutput(ctx)
	if !ok {
		return true
	}
	latest := m.LatestVersion(ctx)
	m.Logger.Debug().Str("latest", latest).Msg("current cli version from remote")
	return !strings.Contains(output, latest)
}

// versionOutput returns the combined --version output when the tool exited 0.
func (m *Manager) versionOutput(ctx context.Context) (string, bool) {
	python, ok := m.Interpreter.Locate(ctx)
	if !ok {
		m.Logger.Debug().Msg("version check skipped: no python")
		return "", false
	}

	res, err := m.Runner.Run(ctx, python, []string{m.Paths.ToolEntry, versionSwitch}, proc.RunOptions{})
	if err != nil {
		m.Logger.Debug().Err(err).Msg("wakatime cli version check failed")
		return "", false
	}
	output := res.Combined()
	m.Logger.Debug().Str("output", output).Int("exit_code", res.ExitCode).Msg("wakatime cli version check")
	if res.ExitCode != 0 {
		return output, false
	}
	return output, true
}

// LatestVersion fetches the remote descriptor and parses its version triple.
func (m *Manager) LatestVersion(ctx context.Context) string {
	return ParseVersionInfo(m.Fetcher.String(ctx, m.VersionURL))
}

// Install downloads the full archive and replaces any existing installation.
func (m *Manager) Install(ctx context.Context) error {
	root := m.Paths.ToolRoot
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("prepare tool root: %w", err)
	}

	zipPath := filepath.Join(root, archiveFileName)
	if !m.Fetcher.ToFile(ctx, m.ArchiveURL, zipPath) {
		return fmt.Errorf("download %s failed", m.ArchiveURL)
	}
	if err := archive.Install(zipPath, root, m.Paths.ToolDir); err != nil {
		return fmt.Errorf("install %s: %w", ToolName, err)
	}

	entry := ManifestEntry{
		Tool:        ToolName,
		Version:     readAboutVersion(m.Paths.ToolEntry),
		Source:      m.ArchiveURL,
		InstalledAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := recordInstall(m.Paths.Resources, entry); err != nil {
		m.Logger.Warn().Err(err).Msg("record install manifest")
	}
	return nil
}

// Upgrade is a full reinstall; there are no incremental updates.
func (m *Manager) Upgrade(ctx context.Context) error {
	return m.Install(ctx)
}

// Ensure installs the tool when missing and upgrades it when outdated.
func (m *Manager) Ensure(ctx context.Context) (Status, error) {
	status := Status{Tool: ToolName, Path: m.Paths.ToolEntry}

	var err error
	switch {
	case !m.IsInstalled():
		m.Logger.Info().Msg("downloading and installing wakatime-cli")
		err = m.Install(ctx)
		status.Action = ActionInstalled
	case m.IsOutdated(ctx):
		m.Logger.Info().Msg("upgrading wakatime-cli")
		err = m.Upgrade(ctx)
		status.Action = ActionUpgraded
	default:
		m.Logger.Info().Msg("wakatime-cli is up to date")
		status.Action = ActionCurrent
	}

	status.Installed = m.IsInstalled()
	if err != nil {
		status.Error = err.Error()
		m.Logger.Error().Err(err).Str("action", string(status.Action)).Msg("wakatime-cli setup failed")
		return status, err
	}
	m.Logger.Info().Str("action", string(status.Action)).Msg("finished wakatime-cli setup")
	return status, nil
}

// Detect reports the current state without changing anything.
func (m *Manager) Detect(ctx context.Context) Status {
	status := Status{Tool: ToolName, Path: m.Paths.ToolEntry}
	if python, ok := m.Interpreter.Locate(ctx); ok {
		status.Interpreter = python
	}

	status.Installed = m.IsInstalled()
	if manifest, err := loadManifest(m.Paths.Resources); err == nil {
		if entry, ok := manifest.Entries[ToolName]; ok {
			status.InstalledAt = entry.InstalledAt
		}
	}
	if !status.Installed {
		status.Error = "not installed"
		return status
	}

	output, ok := m.versionOutput(ctx)
	if ok {
		status.Version = normalizeVersionOutput(output)
	} else {
		status.Version = readAboutVersion(m.Paths.ToolEntry)
	}
	status.Latest = m.LatestVersion(ctx)
	status.Outdated = !ok || !strings.Contains(output, status.Latest)
	return status
}
