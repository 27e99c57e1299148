package interp

import "strings"

// MissingMessage is shown once when no interpreter could be found or
// installed.
const MissingMessage = "WakaTime requires Python to be installed.\n" +
	"You can install it from https://www.python.org/downloads/\n" +
	"After installing Python, restart your editor."

func installHints(goos string) []string {
	switch goos {
	case "darwin":
		return []string{
			"Install python via Homebrew: brew install python",
		}
	case "linux":
		return []string{
			"Install python with your distro package manager, e.g. sudo apt install python3",
		}
	case "windows":
		return []string{
			"Install python via winget: winget install Python.Python.3.12",
			"or via Chocolatey: choco install python",
		}
	default:
		return []string{"Install python using your platform's package manager"}
	}
}

// Remediation returns the user-facing message for a missing interpreter,
// followed by platform-specific install hints.
func Remediation(goos string) string {
	return MissingMessage + "\n\n" + strings.Join(installHints(goos), "\n")
}
