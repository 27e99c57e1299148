package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	resourcesDirName = "WakaTime-resources"
	toolArchiveDir   = "wakatime-master"
	toolPackageDir   = "wakatime"
	toolEntryScript  = "cli.py"
	agentConfigName  = "wakatime-agent.yaml"
	userConfigName   = ".wakatime.cfg"
)

// ResourcesEnv overrides the resources directory when set.
const ResourcesEnv = "WAKATIME_RESOURCES_DIR"

// AgentPaths captures canonical locations used by the agent. Every path is
// rooted at Resources except UserConfig, which lives in the user's home.
type AgentPaths struct {
	Resources  string
	ToolRoot   string
	ToolDir    string
	ToolEntry  string
	PythonDir  string
	LogsDir    string
	ConfigFile string
	UserConfig string
}

// New lays out the agent's paths beneath the given resources directory.
func New(resources string) AgentPaths {
	toolDir := filepath.Join(resources, toolArchiveDir)
	entry := filepath.Join(toolDir, toolPackageDir, toolEntryScript)
	pp := AgentPaths{
		Resources:  resources,
		ToolDir:    toolDir,
		ToolEntry:  entry,
		ToolRoot:   filepath.Dir(filepath.Dir(filepath.Dir(entry))),
		PythonDir:  filepath.Join(resources, "python"),
		LogsDir:    filepath.Join(resources, "logs"),
		ConfigFile: filepath.Join(resources, agentConfigName),
	}
	if home, err := os.UserHomeDir(); err == nil {
		pp.UserConfig = filepath.Join(home, userConfigName)
	}
	return pp
}

// Resolve determines the resources directory using the optional override, the
// WAKATIME_RESOURCES_DIR environment variable, or the directory holding the
// running executable, in that order.
func Resolve(override string) (AgentPaths, error) {
	dir, err := ResourcesDir(override)
	if err != nil {
		return AgentPaths{}, err
	}
	return New(dir), nil
}

// ResourcesDir returns the absolute resources directory. It does not create it.
func ResourcesDir(override string) (string, error) {
	if override == "" {
		override = os.Getenv(ResourcesEnv)
	}
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("resolve resources dir: %w", err)
		}
		return abs, nil
	}

	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), resourcesDirName), nil
}

var executable = os.Executable

// Combine joins the non-empty segments with the platform separator. It reports
// false when no segment was usable.
func Combine(segments ...string) (string, bool) {
	var parts []string
	for _, s := range segments {
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "", false
	}
	return filepath.Join(parts...), true
}

// EnsureLogs creates the logs directory.
func (p AgentPaths) EnsureLogs() error {
	if err := os.MkdirAll(p.LogsDir, 0o755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
