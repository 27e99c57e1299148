package interp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"wakatime/internal/archive"
	"wakatime/internal/paths"
)

const embeddedPythonVersion = "3.5.0"

// Downloader saves a URL to a local file.
type Downloader interface {
	ToFile(ctx context.Context, url, dest string) bool
}

// Installer installs the embedded Python distribution into the resources
// directory. Only Windows has an embeddable build; elsewhere Install is a
// no-op.
type Installer struct {
	Paths      paths.AgentPaths
	Downloader Downloader
	GOOS       string
	GOARCH     string
	Logger     zerolog.Logger
}

// EmbeddedURL returns the download URL for the embeddable zip.
func EmbeddedURL(goarch string) string {
	arch := "win32"
	if is64bit(goarch) {
		arch = "amd64"
	}
	return fmt.Sprintf("https://www.python.org/ftp/python/%s/python-%s-embed-%s.zip",
		embeddedPythonVersion, embeddedPythonVersion, arch)
}

func is64bit(goarch string) bool {
	if strings.Contains(goarch, "64") {
		return true
	}
	return os.Getenv("ProgramFiles(x86)") != ""
}

// Install downloads and extracts the interpreter. It reports whether an
// installation was attempted and completed without error.
func (i *Installer) Install(ctx context.Context) bool {
	if i.GOOS != "windows" {
		i.Logger.Debug().Str("os", i.GOOS).Msg("no embedded python for platform")
		return false
	}

	url := EmbeddedURL(i.GOARCH)
	zipPath := filepath.Join(i.Paths.Resources, "python.zip")
	i.Logger.Info().Str("url", url).Msg("downloading python")
	if !i.Downloader.ToFile(ctx, url, zipPath) {
		return false
	}

	if err := archive.Install(zipPath, i.Paths.PythonDir, i.Paths.PythonDir); err != nil {
		i.Logger.Error().Err(err).Str("dir", i.Paths.PythonDir).Msg("extract python")
		_ = os.Remove(zipPath)
		return false
	}
	i.Logger.Info().Str("dir", i.Paths.PythonDir).Msg("finished installing python")
	return true
}
