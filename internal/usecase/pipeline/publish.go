package pipeline

import (
	"context"

	"github.com/bnema/dockcatalog/internal/catalog"
	"github.com/bnema/dockcatalog/internal/links"
)

// Publish writes the enriched catalog records to the published file and
// returns how many entries made it in.
func (s *Service) Publish(ctx context.Context) (int, error) {
	cat, err := s.loadCatalog()
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	records, err := links.Publish(cat, s.cfg.Templates(), s.log)
	if err != nil {
		return 0, err
	}
	if err := catalog.WriteJSON(s.cfg.Paths.Published, records); err != nil {
		return 0, err
	}

	s.log.Info().
		Str("usecase", "Publish").
		Str("path", s.cfg.Paths.Published).
		Int("published", len(records)).
		Int("skipped", len(cat.Apps)-len(records)).
		Msg("catalog published")
	return len(records), nil
}
