package state

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedLocation is returned for a location with an unknown scheme
var ErrUnsupportedLocation = errors.New("unsupported state location")

// Open selects a backend from location:
//
//	redis://[user:pass@]host:port/db[?key=name]
//	sqlite://path/to/state.db
//	/any/other/path   (plain file)
func Open(location string) (Backend, error) {
	scheme, rest, found := strings.Cut(location, "://")
	if !found {
		if location == "" {
			location = DefaultPath
		}
		return NewFileBackend(location), nil
	}

	switch strings.ToLower(scheme) {
	case "redis", "rediss":
		return NewRedisBackend(location)
	case "sqlite", "sqlite3":
		return NewSQLiteBackend(rest)
	case "file":
		return NewFileBackend(rest), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocation, scheme)
	}
}
