package config

import (
	"strings"
	"testing"
)

func errorsOf(results []ValidationResult) []ValidationResult {
	var errs []ValidationResult
	for _, r := range results {
		if r.Level == "error" {
			errs = append(errs, r)
		}
	}
	return errs
}

func TestValidateDefaultsClean(t *testing.T) {
	if results := Default().Validate(); len(results) != 0 {
		t.Fatalf("expected no findings, got %v", results)
	}
}

func TestValidateHost(t *testing.T) {
	cfg := Default()
	cfg.Host = HostConfig{Name: "intellij idea", Version: ""}

	errs := errorsOf(cfg.Validate())
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Message, "host.name") {
		t.Fatalf("expected host.name error first, got %v", errs[0])
	}
	if !HasErrors(errs) {
		t.Fatalf("HasErrors should report errors")
	}
}

func TestValidateWorkersAndLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Workers = -1
	cfg.LogLevel = "loud"
	if errs := errorsOf(cfg.Validate()); len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}

	cfg.Workers = 500
	cfg.LogLevel = "debug"
	results := cfg.Validate()
	if HasErrors(results) {
		t.Fatalf("expected warnings only, got %v", results)
	}
	if len(results) != 1 {
		t.Fatalf("expected one warning, got %v", results)
	}
}

func TestValidateIgnore(t *testing.T) {
	cfg := Default()
	cfg.Ignore = []string{"/vendor/", " ", "/vendor/"}
	cfg.ResourcesDir = "relative/res"

	results := cfg.Validate()
	if HasErrors(results) {
		t.Fatalf("ignore findings should be warnings, got %v", results)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 warnings, got %v", results)
	}
}
