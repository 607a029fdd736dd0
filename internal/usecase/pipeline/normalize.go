package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/bnema/dockcatalog/internal/manifest"
	"github.com/bnema/dockcatalog/pkg/parser"
	"github.com/bnema/dockcatalog/pkg/validation"
)

// NormalizeReport lists what a normalize run did, per entry directory.
type NormalizeReport struct {
	Normalized []string
	// Skipped entries have no manifest file.
	Skipped []string
	Pruned  []string
	// Failed maps an entry directory to the reason it was left untouched.
	Failed map[string]string
}

// Normalize rewrites the manifest of each named entry directory in place,
// using the directory name as the service name. No names means every
// directory under the apps root. A failing entry never stops the run.
func (s *Service) Normalize(ctx context.Context, names []string, prune bool) (*NormalizeReport, error) {
	root := s.cfg.Paths.Apps
	log := s.log.With().Str("usecase", "Normalize").Logger()

	normalizer, err := manifest.NewNormalizer(s.cfg.NormalizerOptions(), s.log)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		names, err = s.entryDirs(root)
		if err != nil {
			return nil, err
		}
	}

	report := &NormalizeReport{Failed: map[string]string{}}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		dir, err := s.entryDir(root, name)
		if err != nil {
			report.Failed[name] = err.Error()
			continue
		}

		if prune {
			report.Pruned = append(report.Pruned, s.prune(dir)...)
		}

		file := filepath.Join(dir, s.cfg.Manifest.File)
		if _, err := s.fs.Stat(file); errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("entry", name).Msg("no manifest, skipping")
			report.Skipped = append(report.Skipped, name)
			continue
		}

		if err := s.normalizeFile(normalizer, file, name); err != nil {
			log.Warn().Err(err).Str("entry", name).Msg("manifest left untouched")
			report.Failed[name] = err.Error()
			continue
		}
		report.Normalized = append(report.Normalized, name)
	}

	log.Info().
		Int("normalized", len(report.Normalized)).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Int("pruned", len(report.Pruned)).
		Msg("normalize finished")
	return report, nil
}

func (s *Service) normalizeFile(n *manifest.Normalizer, file, target string) error {
	if err := validation.ValidateServiceName(target); err != nil {
		return err
	}

	var doc yaml.Node
	if err := parser.ParseYAMLFile(s.fs, file, &doc); err != nil {
		return err
	}
	if _, err := n.Normalize(&doc, target); err != nil {
		return err
	}
	out, err := manifest.Encode(&doc)
	if err != nil {
		return err
	}
	return parser.WriteYAMLFile(s.fs, file, out)
}

// prune removes the configured stale artifacts from an entry directory.
func (s *Service) prune(dir string) []string {
	var removed []string
	for _, name := range s.cfg.Manifest.PruneFiles {
		path := filepath.Join(dir, name)
		if _, err := s.fs.Stat(path); err != nil {
			continue
		}
		if err := s.fs.Remove(path); err != nil {
			s.log.Warn().Err(err).Str("file", path).Msg("failed to prune file")
			continue
		}
		s.log.Debug().Str("file", path).Msg("pruned")
		removed = append(removed, path)
	}
	return removed
}

// entryDir resolves name under root, refusing anything that escapes it.
func (s *Service) entryDir(root, name string) (string, error) {
	clean, err := validation.ValidatePath(name)
	if err != nil {
		return "", fmt.Errorf("invalid entry %q: %w", name, err)
	}
	dir := filepath.Join(root, clean)
	if err := validation.ValidatePathWithinRoot(root, dir); err != nil {
		return "", fmt.Errorf("invalid entry %q: %w", name, err)
	}
	info, err := s.fs.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("entry %q: %w", name, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("entry %q is not a directory", name)
	}
	return dir, nil
}

func (s *Service) entryDirs(root string) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() {
			names = append(names, info.Name())
		}
	}
	return names, nil
}
