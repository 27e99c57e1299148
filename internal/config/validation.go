package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const maxWorkers = 64

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate checks the configuration and returns every finding.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateHost()...)
	results = append(results, c.validateWorkers()...)
	results = append(results, c.validateLogLevel()...)
	results = append(results, c.validateIgnore()...)
	if c.ResourcesDir != "" && !filepath.IsAbs(c.ResourcesDir) {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: fmt.Sprintf("resources_dir %q is relative and will resolve against the working directory", c.ResourcesDir),
		})
	}
	return results
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

// The host name and version are embedded in the --plugin identity string,
// which the companion tool splits on spaces and slashes.
func (c Config) validateHost() []ValidationResult {
	var results []ValidationResult
	fields := map[string]string{"host.name": c.Host.Name, "host.version": c.Host.Version}
	for _, key := range []string{"host.name", "host.version"} {
		value := fields[key]
		if strings.TrimSpace(value) == "" {
			results = append(results, ValidationResult{Level: "error", Message: key + " is empty"})
			continue
		}
		if strings.ContainsAny(value, " /\t") {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("%s %q must not contain spaces or slashes", key, value),
			})
		}
	}
	return results
}

func (c Config) validateWorkers() []ValidationResult {
	switch {
	case c.Workers < 0:
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("workers must be positive, got %d", c.Workers)}}
	case c.Workers > maxWorkers:
		return []ValidationResult{{Level: "warning", Message: fmt.Sprintf("workers=%d is unusually high", c.Workers)}}
	}
	return nil
}

func (c Config) validateLogLevel() []ValidationResult {
	if c.LogLevel == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("log_level %q is not a known level", c.LogLevel)}}
	}
	return nil
}

func (c Config) validateIgnore() []ValidationResult {
	var results []ValidationResult
	seen := make(map[string]bool, len(c.Ignore))
	for i, pattern := range c.Ignore {
		if strings.TrimSpace(pattern) == "" {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("ignore[%d] is empty and matches nothing", i),
			})
			continue
		}
		if seen[pattern] {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("ignore pattern %q is listed more than once", pattern),
			})
		}
		seen[pattern] = true
	}
	return results
}
