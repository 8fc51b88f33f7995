package core

import (
	"fmt"

	"github.com/gridflow/gridflow/internal/shared/logging"
	"github.com/gridflow/gridflow/internal/storage"
	"github.com/gridflow/gridflow/internal/uri"
)

// InitOutput prepares a step's output location. With clean set, an existing
// location is deleted first; deletion failure is only a warning because the
// create is attempted regardless.
func InitOutput(store storage.Manager, out uri.URI, clean bool, logger logging.Logger) error {
	if out.Scheme != store.Scheme() {
		return fmt.Errorf("%w: output location %s requires scheme %q", ErrAddressing, out.String(), store.Scheme())
	}

	if clean && store.Exists(out) {
		if err := store.Delete(out); err != nil {
			logger.Warn("cannot delete existing output location", "location", out.String(), "error", err)
		}
	}

	if err := store.Mkdir(out, true); err != nil {
		return fmt.Errorf("%w: cannot create output location %s: %w", ErrStorage, out.String(), err)
	}
	return nil
}

// EnumerateMap lists the entries of the map location. The returned names are
// the authoritative source for map-item creation, one item per entry.
func EnumerateMap(store storage.Manager, mapLoc uri.URI) ([]string, error) {
	if mapLoc.Scheme != store.Scheme() {
		return nil, fmt.Errorf("%w: map location %s requires scheme %q", ErrAddressing, mapLoc.String(), store.Scheme())
	}

	names, err := store.List(mapLoc)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot list map location %s: %w", ErrStorage, mapLoc.String(), err)
	}
	return names, nil
}
