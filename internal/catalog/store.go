package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"

	"github.com/bnema/dockcatalog/internal/domain"
	"github.com/bnema/dockcatalog/internal/identity"
)

// ErrLocked is returned by Lock when another run holds the catalog lock.
var ErrLocked = errors.New("catalog is locked by another run")

// Store reads and writes catalog documents on the local filesystem. Writes go
// to a temporary file that is renamed over the target, so a failed run leaves
// the previous catalog untouched.
type Store struct {
	log zerolog.Logger
}

// NewStore returns a Store.
func NewStore(log zerolog.Logger) *Store {
	return &Store{log: log.With().Str("component", "store").Logger()}
}

// Load reads a catalog. A missing file yields a nil catalog and no error.
func (s *Store) Load(path string) (*domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var cat domain.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}
	return &cat, nil
}

// Write serialises the catalog to path.
func (s *Store) Write(path string, cat *domain.Catalog) error {
	if cat == nil {
		return fmt.Errorf("cannot write a nil catalog")
	}
	if err := WriteJSON(path, cat); err != nil {
		return err
	}
	s.log.Info().Str("path", path).Int("entries", len(cat.Apps)).Msg("catalog written")
	return nil
}

// Lock takes an exclusive advisory lock on "<path>.lock" without blocking.
// The returned function releases it.
func (s *Store) Lock(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", lock.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}
	s.log.Debug().Str("lock", lock.Path()).Msg("catalog lock acquired")

	return func() {
		if err := lock.Unlock(); err != nil {
			s.log.Warn().Err(err).Str("lock", lock.Path()).Msg("failed to release catalog lock")
		}
	}, nil
}

// PriorIDs extracts path to identifier assignments from a previous catalog.
func PriorIDs(cat *domain.Catalog) identity.PriorIDs {
	prior := identity.PriorIDs{}
	if cat == nil {
		return prior
	}
	for _, e := range cat.Apps {
		if e.Path != "" && e.ID != "" {
			prior[e.Path] = e.ID
		}
	}
	return prior
}

// WriteJSON writes v as indented JSON to path atomically.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return WriteFile(path, buf.Bytes())
}

// WriteFile writes data to path atomically, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
