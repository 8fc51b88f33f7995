package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gridflow/gridflow/internal/uri"
)

// LocalManager manages locations on the local filesystem.
type LocalManager struct{}

func NewLocalManager() *LocalManager {
	return &LocalManager{}
}

func (m *LocalManager) Scheme() string {
	return uri.SchemeLocal
}

func (m *LocalManager) Exists(loc uri.URI) bool {
	_, err := os.Stat(loc.Path)
	return err == nil
}

func (m *LocalManager) Delete(loc uri.URI) error {
	return os.RemoveAll(loc.Path)
}

func (m *LocalManager) Mkdir(loc uri.URI, recursive bool) error {
	if recursive {
		return os.MkdirAll(loc.Path, 0o755)
	}
	return os.Mkdir(loc.Path, 0o755)
}

// List returns the base names of the regular files directly under the
// location, sorted for reproducible enumeration order.
func (m *LocalManager) List(loc uri.URI) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(loc.Path, "*"))
	if err != nil {
		return nil, fmt.Errorf("cannot list location %s: %w", loc.String(), err)
	}
	if len(matches) == 0 {
		if _, statErr := os.Stat(loc.Path); statErr != nil {
			return nil, fmt.Errorf("cannot list location %s: %w", loc.String(), statErr)
		}
	}

	var names []string
	for _, match := range matches {
		info, err := os.Lstat(match)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			names = append(names, filepath.Base(match))
		}
	}
	sort.Strings(names)
	return names, nil
}
