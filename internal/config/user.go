package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/google/uuid"
)

const (
	settingsSection = "settings"
	apiKeyField     = "api_key"
	debugField      = "debug"
	apiKeyPrefix    = "waka_"
)

// UserSettings are read from the INI file shared by every WakaTime plugin,
// usually ~/.wakatime.cfg.
type UserSettings struct {
	Path         string
	Key          string
	DebugEnabled bool
}

// APIKey returns the configured key, empty when unset.
func (s UserSettings) APIKey() string { return s.Key }

// Debug reports whether debug = true is set.
func (s UserSettings) Debug() bool { return s.DebugEnabled }

// LoadUserSettings reads path. A missing file yields empty settings.
func LoadUserSettings(path string) (UserSettings, error) {
	settings := UserSettings{Path: path}
	if path == "" {
		return settings, nil
	}

	file, err := ini.LoadSources(ini.LoadOptions{Loose: true}, path)
	if err != nil {
		return settings, fmt.Errorf("read %s: %w", path, err)
	}
	section := file.Section(settingsSection)
	settings.Key = strings.TrimSpace(section.Key(apiKeyField).String())
	settings.DebugEnabled = strings.EqualFold(strings.TrimSpace(section.Key(debugField).String()), "true")
	return settings, nil
}

// SaveAPIKey stores key under [settings], keeping every other entry.
func SaveAPIKey(path, key string) error {
	if path == "" {
		return fmt.Errorf("user settings path is empty")
	}
	file, err := ini.LoadSources(ini.LoadOptions{Loose: true}, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	file.Section(settingsSection).Key(apiKeyField).SetValue(strings.TrimSpace(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", filepath.Dir(path), err)
	}
	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ValidAPIKey reports whether key looks like a WakaTime API key: a UUID,
// optionally carrying the waka_ prefix.
func ValidAPIKey(key string) bool {
	key = strings.TrimPrefix(strings.TrimSpace(key), apiKeyPrefix)
	if len(key) != 36 {
		return false
	}
	_, err := uuid.Parse(key)
	return err == nil
}
