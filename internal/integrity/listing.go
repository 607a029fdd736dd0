package integrity

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/bnema/dockcatalog/internal/domain"
)

// Store is a flat asset directory holding one "<id>.<ext>" file per entry.
type Store struct {
	fs  afero.Fs
	dir string
	ext string
	log zerolog.Logger
}

// NewStore returns a Store over dir for files with extension ext (with or
// without the leading dot).
func NewStore(fsys afero.Fs, dir, ext string, log zerolog.Logger) *Store {
	return &Store{
		fs:  fsys,
		dir: dir,
		ext: "." + strings.TrimPrefix(ext, "."),
		log: log.With().Str("component", "assets").Str("dir", dir).Logger(),
	}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// PathFor returns the file location for id.
func (s *Store) PathFor(id string) string {
	return filepath.Join(s.dir, id+s.ext)
}

// List returns the identifiers of the regular files carrying the store's
// extension. A missing directory is an empty store.
func (s *Store) List() (domain.AssetListing, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Msg("asset directory does not exist, treating as empty")
			return domain.AssetListing{}, nil
		}
		return nil, fmt.Errorf("failed to list assets in %s: %w", s.dir, err)
	}

	listing := make(domain.AssetListing, len(infos))
	for _, info := range infos {
		if info.IsDir() || !strings.EqualFold(filepath.Ext(info.Name()), s.ext) {
			continue
		}
		listing[strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))] = struct{}{}
	}
	return listing, nil
}

// PruneEmpty deletes zero-byte asset files so they count as missing. It
// returns the identifiers removed.
func (s *Store) PruneEmpty() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list assets in %s: %w", s.dir, err)
	}

	var removed []string
	for _, info := range infos {
		if info.IsDir() || info.Size() != 0 || !strings.EqualFold(filepath.Ext(info.Name()), s.ext) {
			continue
		}
		path := filepath.Join(s.dir, info.Name())
		if err := s.fs.Remove(path); err != nil {
			s.log.Warn().Err(err).Str("file", path).Msg("failed to remove empty asset")
			continue
		}
		id := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
		removed = append(removed, id)
		s.log.Info().Str("file", path).Msg("removed empty asset")
	}
	return removed, nil
}
