// Package catalog builds the application catalog from a tree of per-entry
// descriptor files and persists it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/dockcatalog/internal/domain"
	"github.com/bnema/dockcatalog/pkg/bytesize"
)

// DefaultDescriptor is the descriptor file name looked up in each entry directory.
const DefaultDescriptor = "description.json"

// DefaultDenylist holds the legacy keys stripped from every descriptor.
var DefaultDenylist = []string{"tags", "Tag"}

// Options configures an Assembler.
type Options struct {
	// Descriptor is the file name that marks a directory as a catalog entry.
	Descriptor string
	// Encoding is tried first; FallbackEncoding is tried once when the first
	// attempt reports an encoding mismatch.
	Encoding         string
	FallbackEncoding string
	// Denylist keys are removed from descriptors before merging.
	Denylist []string
	// BaseDir is the directory entry paths are made relative to.
	BaseDir string
	// Workers bounds concurrent descriptor reads.
	Workers int
	// MaxSize rejects descriptors larger than this many bytes. Zero disables
	// the check.
	MaxSize int64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Descriptor:       DefaultDescriptor,
		Encoding:         EncodingUTF8,
		FallbackEncoding: EncodingUTF8Sig,
		Denylist:         DefaultDenylist,
		BaseDir:          ".",
		Workers:          4,
	}
}

// Source is an entry directory found by Scan.
type Source struct {
	// Name is the directory name, used as the default display name.
	Name string
	// Dir is the directory location on the assembler's filesystem.
	Dir string
	// Path is Dir relative to the base directory, forward-slash separated.
	Path string
}

// Identities maps a Source path to its assigned identifier.
type Identities map[string]string

// Assembler turns an entry tree into a Catalog.
type Assembler struct {
	fs       afero.Fs
	opts     Options
	primary  textDecoder
	fallback textDecoder
	denylist map[string]struct{}
	log      zerolog.Logger
	now      func() time.Time
}

// NewAssembler validates opts and returns an Assembler reading from fs.
func NewAssembler(fs afero.Fs, opts Options, log zerolog.Logger) (*Assembler, error) {
	if opts.Descriptor == "" {
		opts.Descriptor = DefaultDescriptor
	}
	if opts.Encoding == "" {
		opts.Encoding = EncodingUTF8
	}
	if opts.BaseDir == "" {
		opts.BaseDir = "."
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	primary, err := lookupDecoder(opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("descriptor encoding: %w", err)
	}
	var fallback textDecoder
	if opts.FallbackEncoding != "" {
		fallback, err = lookupDecoder(opts.FallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("descriptor fallback encoding: %w", err)
		}
	}

	deny := make(map[string]struct{}, len(opts.Denylist)+len(domain.ReservedKeys))
	for _, k := range opts.Denylist {
		deny[k] = struct{}{}
	}
	for _, k := range domain.ReservedKeys {
		deny[k] = struct{}{}
	}

	return &Assembler{
		fs:       fs,
		opts:     opts,
		primary:  primary,
		fallback: fallback,
		denylist: deny,
		log:      log.With().Str("component", "catalog").Logger(),
		now:      time.Now,
	}, nil
}

// Scan lists the immediate subdirectories of root that contain a descriptor,
// in name order. Directories without one are not catalog members and are
// skipped silently.
func (a *Assembler) Scan(root string) ([]Source, error) {
	infos, err := afero.ReadDir(a.fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	var sources []Source
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		dir := filepath.Join(root, info.Name())
		st, err := a.fs.Stat(filepath.Join(dir, a.opts.Descriptor))
		if err != nil || st.IsDir() {
			continue
		}
		sources = append(sources, Source{
			Name: info.Name(),
			Dir:  dir,
			Path: a.relativePath(dir),
		})
	}

	a.log.Debug().Str("root", root).Int("entries", len(sources)).Int("scanned", len(infos)).Msg("entry tree scanned")
	return sources, nil
}

// Assemble builds a catalog holding exactly one entry per qualifying
// directory under root, in Scan order. Identifiers come from ids; a directory
// without one aborts the build with domain.ErrUnstampedEntry, since identity is
// assigned by an earlier pass.
//
// Descriptor failures never abort the build: the entry is recorded with its
// identity fields and a DescriptionError.
func (a *Assembler) Assemble(ctx context.Context, root string, ids Identities) (*domain.Catalog, error) {
	sources, err := a.Scan(root)
	if err != nil {
		return nil, err
	}
	return a.AssembleSources(ctx, sources, ids)
}

// AssembleSources is Assemble over an already scanned source list.
func (a *Assembler) AssembleSources(ctx context.Context, sources []Source, ids Identities) (*domain.Catalog, error) {
	for _, src := range sources {
		if ids[src.Path] == "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnstampedEntry, src.Path)
		}
	}

	entries := make([]domain.Entry, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i] = a.load(src, ids[src.Path])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("catalog assembly interrupted: %w", err)
	}

	cat := &domain.Catalog{GeneratedAt: a.now(), Apps: entries}
	a.log.Info().
		Int("entries", len(entries)).
		Int("diagnostics", len(cat.Diagnostics())).
		Msg("catalog assembled")
	return cat, nil
}

// load builds one entry. It never fails: problems end up in DescriptionError.
func (a *Assembler) load(src Source, id string) domain.Entry {
	entry := domain.Entry{
		ID:     id,
		Name:   src.Name,
		Path:   src.Path,
		Fields: domain.NewFields(),
	}
	descPath := filepath.Join(src.Dir, a.opts.Descriptor)
	log := a.log.With().Str("id", id).Str("descriptor", descPath).Logger()

	if info, err := a.fs.Stat(descPath); err == nil {
		entry.LastModified = info.ModTime()
	}

	fields, err := a.readDescriptor(descPath)
	if err != nil {
		entry.DescriptionError = err.Error()
		log.Warn().Err(err).Msg("descriptor recorded with diagnostic")
		return entry
	}

	if name, ok := fields.GetString(domain.KeyName); ok && name != "" {
		entry.Name = name
		fields.Delete(domain.KeyName)
	} else if v, present := fields.Get(domain.KeyName); present {
		log.Warn().Interface("name", v).Msg("descriptor name is not a non-empty string, keeping directory name")
	}
	for _, k := range fields.Keys() {
		if _, denied := a.denylist[k]; denied {
			fields.Delete(k)
		}
	}
	entry.Fields = fields
	return entry
}

// readDescriptor reads and parses a descriptor, retrying once under the
// fallback encoding on an encoding mismatch.
func (a *Assembler) readDescriptor(path string) (domain.Fields, error) {
	if a.opts.MaxSize > 0 {
		if info, err := a.fs.Stat(path); err == nil && info.Size() > a.opts.MaxSize {
			return domain.Fields{}, fmt.Errorf("%w: descriptor is %s, limit is %s",
				domain.ErrMalformedDescriptor, bytesize.Format(info.Size()), bytesize.Format(a.opts.MaxSize))
		}
	}

	raw, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return domain.Fields{}, fmt.Errorf("error reading file: %w", err)
	}

	text, err := a.primary(raw)
	if errors.Is(err, domain.ErrEncodingMismatch) && a.fallback != nil {
		a.log.Debug().Str("descriptor", path).Err(err).Msg("retrying descriptor with fallback encoding")
		text, err = a.fallback(raw)
	}
	if err != nil {
		return domain.Fields{}, fmt.Errorf("%w: %w", domain.ErrMalformedDescriptor, err)
	}

	fields, err := domain.DecodeFields(text)
	if err != nil {
		return domain.Fields{}, fmt.Errorf("%w: invalid %s format: %v", domain.ErrMalformedDescriptor, a.opts.Descriptor, err)
	}
	return fields, nil
}

func (a *Assembler) relativePath(dir string) string {
	rel, err := filepath.Rel(filepath.Clean(a.opts.BaseDir), filepath.Clean(dir))
	if err != nil {
		rel = dir
	}
	return filepath.ToSlash(rel)
}
