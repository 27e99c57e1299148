package tools

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var versionInfoRegex = regexp.MustCompile(`__version_info__ = \('([0-9]+)', '([0-9]+)', '([0-9]+)'\)`)

// ParseVersionInfo extracts "major.minor.patch" from a version descriptor,
// returning UnknownVersion when the pattern does not match.
func ParseVersionInfo(text string) string {
	m := versionInfoRegex.FindStringSubmatch(text)
	if m == nil {
		return UnknownVersion
	}
	return m[1] + "." + m[2] + "." + m[3]
}

var semverRegex = regexp.MustCompile(`[0-9]+\.[0-9]+\.[0-9]+`)

// normalizeVersionOutput picks the first version-looking token out of the
// tool's --version output for display.
func normalizeVersionOutput(output string) string {
	line := firstLine(strings.TrimSpace(output))
	if match := semverRegex.FindString(line); match != "" {
		return match
	}
	return line
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

// readAboutVersion parses the version descriptor shipped inside an extracted
// tool tree.
func readAboutVersion(entry string) string {
	data, err := os.ReadFile(filepath.Join(filepath.Dir(entry), aboutFile))
	if err != nil {
		return UnknownVersion
	}
	return ParseVersionInfo(string(data))
}
