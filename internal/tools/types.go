package tools

// Action records what Ensure did.
type Action string

const (
	ActionNone      Action = ""
	ActionInstalled Action = "installed"
	ActionUpgraded  Action = "upgraded"
	ActionCurrent   Action = "up-to-date"
)

// Status captures the resolved state of the companion tool.
type Status struct {
	Tool        string `json:"tool"`
	Version     string `json:"version,omitempty"`
	Latest      string `json:"latest,omitempty"`
	Path        string `json:"path,omitempty"`
	Interpreter string `json:"interpreter,omitempty"`
	Installed   bool   `json:"installed"`
	Outdated    bool   `json:"outdated"`
	InstalledAt string `json:"installed_at,omitempty"`
	Action      Action `json:"action,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ManifestEntry records a completed installation.
type ManifestEntry struct {
	Tool        string `json:"tool"`
	Version     string `json:"version"`
	Source      string `json:"source"`
	InstalledAt string `json:"installed_at"`
}

// Manifest wraps persisted entries for quick lookup.
type Manifest struct {
	Entries map[string]ManifestEntry `json:"entries"`
}
