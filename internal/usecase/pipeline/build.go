package pipeline

import (
	"context"
	"fmt"

	"github.com/bnema/dockcatalog/internal/catalog"
	"github.com/bnema/dockcatalog/internal/domain"
)

// Build scans the entry tree, stamps identifiers (reusing those of the
// previous catalog), assembles the catalog and replaces the catalog file.
// Concurrent builds against the same catalog are refused.
func (s *Service) Build(ctx context.Context) (*domain.Catalog, error) {
	path := s.cfg.Paths.Catalog
	log := s.log.With().Str("usecase", "Build").Str("catalog", path).Logger()

	unlock, err := s.store.Lock(path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	prev, err := s.store.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous catalog: %w", err)
	}
	if prev == nil {
		log.Info().Msg("no previous catalog, every entry gets a fresh identifier")
	}

	asm, err := catalog.NewAssembler(s.fs, s.cfg.AssemblerOptions(), s.log)
	if err != nil {
		return nil, err
	}
	sources, err := asm.Scan(s.cfg.Paths.Apps)
	if err != nil {
		return nil, err
	}

	alloc, err := s.allocator()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(sources))
	for i, src := range sources {
		paths[i] = src.Path
	}
	ids, err := alloc.Stamp(paths, catalog.PriorIDs(prev))
	if err != nil {
		return nil, fmt.Errorf("failed to stamp identifiers: %w", err)
	}

	cat, err := asm.AssembleSources(ctx, sources, catalog.Identities(ids))
	if err != nil {
		return nil, err
	}

	if err := s.store.Write(path, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// FreshIDs returns n identifiers that collide with nothing in the current
// catalog. A missing catalog excludes nothing.
func (s *Service) FreshIDs(n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("count cannot be negative: %d", n)
	}
	cat, err := s.store.Load(s.cfg.Paths.Catalog)
	if err != nil {
		return nil, err
	}

	exclude := map[string]struct{}{}
	if cat != nil {
		for _, id := range cat.IDs() {
			exclude[id] = struct{}{}
		}
	}

	alloc, err := s.allocator()
	if err != nil {
		return nil, err
	}
	return alloc.Allocate(n, exclude)
}
