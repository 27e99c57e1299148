package interp

// Root selects a registry hive.
type Root int

const (
	CurrentUser Root = iota
	LocalMachine
)

func (r Root) String() string {
	switch r {
	case CurrentUser:
		return "HKEY_CURRENT_USER"
	case LocalMachine:
		return "HKEY_LOCAL_MACHINE"
	default:
		return "unknown"
	}
}

// Registry reports interpreter install directories recorded by the operating
// system. Platforms without such a facility use NoRegistry.
type Registry interface {
	InstallPaths(root Root) []string
}

// NoRegistry never reports anything.
type NoRegistry struct{}

func (NoRegistry) InstallPaths(Root) []string { return nil }

// registryKeys are probed in order; each sub-key is a version whose
// InstallPath default value names the install directory.
var registryKeys = []string{
	`Software\Wow6432Node\Python\PythonCore`,
	`Software\Python\PythonCore`,
}

// firstInstallPath returns the first non-empty path reported for root.
func firstInstallPath(reg Registry, root Root) string {
	if reg == nil {
		return ""
	}
	for _, p := range reg.InstallPaths(root) {
		if p != "" {
			return p
		}
	}
	return ""
}
