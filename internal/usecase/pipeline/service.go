// Package pipeline implements the catalog use cases behind each command:
// build, normalize, extract, check, publish and identifier issuance.
package pipeline

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/bnema/dockcatalog/internal/catalog"
	"github.com/bnema/dockcatalog/internal/config"
	"github.com/bnema/dockcatalog/internal/domain"
	"github.com/bnema/dockcatalog/internal/identity"
	"github.com/bnema/dockcatalog/internal/integrity"
)

// Service runs the pipeline stages against the configured directory layout.
type Service struct {
	cfg   *config.Config
	fs    afero.Fs
	store *catalog.Store
	rng   *rand.Rand
	log   zerolog.Logger
}

// NewService creates a new pipeline service. Catalog documents are always
// read and written on the local filesystem; fs serves every other file.
func NewService(cfg *config.Config, fs afero.Fs, log zerolog.Logger) *Service {
	return &Service{
		cfg:   cfg,
		fs:    fs,
		store: catalog.NewStore(log),
		log:   log,
	}
}

// SetRand fixes the identifier random source.
func (s *Service) SetRand(r *rand.Rand) {
	s.rng = r
}

func (s *Service) allocator() (*identity.Allocator, error) {
	opts := s.cfg.IdentityOptions()
	opts.Rand = s.rng
	return identity.NewAllocator(opts, s.log)
}

// loadCatalog reads the current catalog and fails when none was built yet.
func (s *Service) loadCatalog() (*domain.Catalog, error) {
	cat, err := s.store.Load(s.cfg.Paths.Catalog)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog %s not found, run build first", s.cfg.Paths.Catalog)
	}
	return cat, nil
}

func (s *Service) iconStore() *integrity.Store {
	return integrity.NewStore(s.fs, s.cfg.Paths.Icons, s.cfg.Catalog.IconExtension, s.log)
}

func (s *Service) manifestStore() *integrity.Store {
	return integrity.NewStore(s.fs, s.cfg.Paths.Manifests, s.cfg.Manifest.Extension, s.log)
}
