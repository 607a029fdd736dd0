package pipeline

import (
	"bytes"
	"context"

	"github.com/bnema/dockcatalog/internal/catalog"
	"github.com/bnema/dockcatalog/internal/integrity"
)

// CheckReport is the outcome of an integrity check.
type CheckReport struct {
	Entries  int
	Pruned   []string
	Findings []integrity.Finding
}

// Check reports every catalog entry missing its icon or manifest. With prune
// set, zero-byte manifests are deleted first so they count as missing;
// otherwise the asset stores are only read. The report file is replaced on
// every run.
func (s *Service) Check(ctx context.Context, prune bool) (*CheckReport, error) {
	log := s.log.With().Str("usecase", "Check").Logger()

	cat, err := s.loadCatalog()
	if err != nil {
		return nil, err
	}

	manifests := s.manifestStore()
	var pruned []string
	if prune {
		pruned, err = manifests.PruneEmpty()
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifestIDs, err := manifests.List()
	if err != nil {
		return nil, err
	}
	iconIDs, err := s.iconStore().List()
	if err != nil {
		return nil, err
	}

	findings := integrity.Check(cat, iconIDs, manifestIDs)

	if s.cfg.Paths.Report != "" {
		var buf bytes.Buffer
		if err := integrity.WriteReport(&buf, findings); err != nil {
			return nil, err
		}
		if err := catalog.WriteFile(s.cfg.Paths.Report, buf.Bytes()); err != nil {
			return nil, err
		}
	}

	log.Info().
		Int("entries", len(cat.Apps)).
		Int("icons", len(iconIDs)).
		Int("manifests", len(manifestIDs)).
		Int("findings", len(findings)).
		Msg("integrity check finished")

	return &CheckReport{Entries: len(cat.Apps), Pruned: pruned, Findings: findings}, nil
}
