// Package project names the project a file belongs to by walking up from the
// file towards the filesystem root.
package project

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MarkerFile names a project explicitly. Its first line is the project name;
// an empty first line uses the containing folder's name.
const MarkerFile = ".wakatime-project"

// DefaultCacheSize bounds the number of directories remembered.
const DefaultCacheSize = 512

var vcsDirs = []string{".git", ".hg", ".svn"}

type lookup struct {
	name  string
	found bool
}

// Resolver maps files to project names, caching results per directory.
type Resolver struct {
	cache *lru.Cache[string, lookup]

	mu       sync.Mutex
	override string
}

// NewResolver returns a Resolver remembering up to size directories.
func NewResolver(size int) (*Resolver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, lookup](size)
	if err != nil {
		return nil, err
	}
	return &Resolver{cache: cache}, nil
}

// SetOverride forces every lookup to return name. An empty name clears it.
func (r *Resolver) SetOverride(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = strings.TrimSpace(name)
}

// ProjectName returns the project for file, false when none was detected.
func (r *Resolver) ProjectName(file string) (string, bool) {
	r.mu.Lock()
	override := r.override
	r.mu.Unlock()
	if override != "" {
		return override, true
	}
	if file == "" {
		return "", false
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return "", false
	}
	res := r.resolveDir(filepath.Dir(abs))
	return res.name, res.found
}

func (r *Resolver) resolveDir(dir string) lookup {
	if cached, ok := r.cache.Get(dir); ok {
		return cached
	}

	var res lookup
	if name, ok := markerName(dir); ok {
		res = lookup{name: name, found: true}
	} else if hasVCS(dir) {
		res = lookup{name: filepath.Base(dir), found: true}
	} else if parent := filepath.Dir(dir); parent != dir {
		res = r.resolveDir(parent)
	}
	r.cache.Add(dir, res)
	return res
}

func markerName(dir string) (string, bool) {
	f, err := os.Open(filepath.Join(dir, MarkerFile))
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			return name, true
		}
	}
	return filepath.Base(dir), true
}

func hasVCS(dir string) bool {
	for _, name := range vcsDirs {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && (info.IsDir() || name == ".git") {
			return true
		}
	}
	return false
}

// Purge forgets every cached directory.
func (r *Resolver) Purge() {
	r.cache.Purge()
}

// Len reports how many directories are cached.
func (r *Resolver) Len() int {
	return r.cache.Len()
}
