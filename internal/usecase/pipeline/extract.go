package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/bnema/dockcatalog/internal/catalog"
	"github.com/bnema/dockcatalog/internal/domain"
	"github.com/bnema/dockcatalog/internal/manifest"
	"github.com/bnema/dockcatalog/pkg/parser"
	"github.com/bnema/dockcatalog/pkg/validation"
)

// rawExtension marks raw generation output files, one per entry identifier.
const rawExtension = ".txt"

var errNoManifest = errors.New("no compose content found")

// ExtractFailure is one raw output that did not yield a manifest.
type ExtractFailure struct {
	ID     string
	Name   string
	Reason string
}

func (f ExtractFailure) String() string {
	return fmt.Sprintf("%s - %s - %s", f.Name, f.ID, f.Reason)
}

// ExtractReport lists the manifests written and the raw outputs rejected.
type ExtractReport struct {
	Written []string
	Failed  []ExtractFailure
}

// Extract turns raw generation output ("<id>.txt" files in rawDir) into
// normalized manifests in the manifest store. The service name is derived
// from the catalog entry's display name. Rejected outputs are listed in the
// failure file; they never stop the run.
func (s *Service) Extract(ctx context.Context, rawDir string) (*ExtractReport, error) {
	log := s.log.With().Str("usecase", "Extract").Str("raw_dir", rawDir).Logger()

	cat, err := s.loadCatalog()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Entry, len(cat.Apps))
	for _, e := range cat.Apps {
		byID[e.ID] = e
	}

	normalizer, err := manifest.NewNormalizer(s.cfg.NormalizerOptions(), s.log)
	if err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(s.fs, rawDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", rawDir, err)
	}

	store := s.manifestStore()
	if err := s.fs.MkdirAll(store.Dir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest store: %w", err)
	}

	report := &ExtractReport{}
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(info.Name()), rawExtension) {
			continue
		}
		id := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))

		if err := validation.ValidateIdentifier(id); err != nil {
			reason := fmt.Errorf("%w: %v", domain.ErrInvalidIdentifier, err).Error()
			report.Failed = append(report.Failed, ExtractFailure{ID: id, Name: "?", Reason: reason})
			continue
		}
		entry, ok := byID[id]
		if !ok {
			report.Failed = append(report.Failed, ExtractFailure{ID: id, Name: "?", Reason: "not in catalog"})
			continue
		}

		raw, err := afero.ReadFile(s.fs, filepath.Join(rawDir, info.Name()))
		if err != nil {
			report.Failed = append(report.Failed, ExtractFailure{ID: id, Name: entry.Name, Reason: err.Error()})
			continue
		}

		out, err := s.extractOne(normalizer, string(raw), entry)
		if err != nil {
			log.Warn().Err(err).Str("id", id).Str("name", entry.Name).Msg("raw output rejected")
			report.Failed = append(report.Failed, ExtractFailure{ID: id, Name: entry.Name, Reason: err.Error()})
			continue
		}

		if err := parser.WriteYAMLFile(s.fs, store.PathFor(id), out); err != nil {
			report.Failed = append(report.Failed, ExtractFailure{ID: id, Name: entry.Name, Reason: err.Error()})
			continue
		}
		report.Written = append(report.Written, id)
	}

	if err := s.writeFailures(report.Failed); err != nil {
		return report, err
	}

	log.Info().Int("written", len(report.Written)).Int("failed", len(report.Failed)).Msg("extract finished")
	return report, nil
}

func (s *Service) extractOne(n *manifest.Normalizer, raw string, entry domain.Entry) ([]byte, error) {
	text := manifest.Extract(raw)
	if !manifest.LooksLikeManifest(text) {
		return nil, errNoManifest
	}

	target := manifest.ServiceName(entry.Name)
	if err := validation.ValidateServiceName(target); err != nil {
		return nil, err
	}

	out, _, err := n.NormalizeBytes([]byte(text), target)
	return out, err
}

// writeFailures replaces the failure file. An empty run leaves an empty file.
func (s *Service) writeFailures(failed []ExtractFailure) error {
	if s.cfg.Paths.Failed == "" {
		return nil
	}
	var buf bytes.Buffer
	for _, f := range failed {
		buf.WriteString(f.String())
		buf.WriteByte('\n')
	}
	return catalog.WriteFile(s.cfg.Paths.Failed, buf.Bytes())
}
