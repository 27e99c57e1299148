package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const manifestFileName = "manifest.json"

func manifestPath(resources string) string {
	return filepath.Join(resources, manifestFileName)
}

func loadManifest(resources string) (Manifest, error) {
	contents, err := os.ReadFile(manifestPath(resources))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{Entries: map[string]ManifestEntry{}}, nil
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(contents, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if manifest.Entries == nil {
		manifest.Entries = map[string]ManifestEntry{}
	}
	return manifest, nil
}

func saveManifest(resources string, m Manifest) error {
	path := manifestPath(resources)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare manifest directory: %w", err)
	}

	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write manifest temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close manifest temp: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

func recordInstall(resources string, entry ManifestEntry) error {
	manifest, err := loadManifest(resources)
	if err != nil {
		return err
	}
	manifest.Entries[entry.Tool] = entry
	return saveManifest(resources, manifest)
}
