package storage

import "github.com/gridflow/gridflow/internal/uri"

// Manager abstracts location management for a single addressing scheme.
// Implementations report which scheme they serve; steps check compatibility
// before touching a location.
type Manager interface {
	Scheme() string
	Exists(loc uri.URI) bool
	Delete(loc uri.URI) error
	Mkdir(loc uri.URI, recursive bool) error
	List(loc uri.URI) ([]string, error)
}
