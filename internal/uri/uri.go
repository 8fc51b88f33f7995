// Package uri parses storage location URIs into scheme and path components.
//
// Locations look like "local:///data/reads" or "agave://storage/home/out/".
// A bare path with no scheme is treated as a local location.
package uri

import (
	"fmt"
	"strings"
)

const (
	// SchemeLocal addresses the local filesystem.
	SchemeLocal = "local"

	delimiter = "://"
)

// URI is a parsed storage location.
type URI struct {
	Scheme    string
	Authority string
	// Path is the slash-separated path component with any trailing slash
	// removed, or "/" for a root location.
	Path string
}

// Parse splits a location string into scheme, authority, and normalized path.
// A string without a scheme delimiter parses as a local path.
func Parse(raw string) (URI, error) {
	if raw == "" {
		return URI{}, fmt.Errorf("empty uri")
	}

	idx := strings.Index(raw, delimiter)
	if idx < 0 {
		// Bare path, no scheme. Relative paths stay relative so opaque
		// values pass through command building untouched.
		return URI{Scheme: SchemeLocal, Path: normalizePath(raw)}, nil
	}

	scheme := strings.ToLower(raw[:idx])
	if scheme == "" {
		return URI{}, fmt.Errorf("missing scheme in uri: %s", raw)
	}

	rest := raw[idx+len(delimiter):]
	authority := ""
	path := rest
	if !strings.HasPrefix(rest, "/") {
		authority, path, _ = strings.Cut(rest, "/")
		path = "/" + path
	}

	return URI{
		Scheme:    scheme,
		Authority: authority,
		Path:      normalizePath(path),
	}, nil
}

// String reassembles the URI without a trailing slash.
func (u URI) String() string {
	return u.Scheme + delimiter + u.Authority + u.Path
}

// Join appends name under the URI path.
func (u URI) Join(name string) URI {
	joined := u
	if u.Path == "/" {
		joined.Path = "/" + strings.Trim(name, "/")
	} else {
		joined.Path = u.Path + "/" + strings.Trim(name, "/")
	}
	return joined
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// ChopPath returns the local path component of a location string, with the
// scheme and authority stripped. Strings that fail to parse are returned
// verbatim so callers building commands can pass opaque values through.
func ChopPath(raw string) string {
	parsed, err := Parse(raw)
	if err != nil {
		return raw
	}
	return parsed.Path
}
