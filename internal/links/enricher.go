// Package links derives the public asset URLs of catalog entries.
package links

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bnema/dockcatalog/internal/domain"
	"github.com/bnema/dockcatalog/pkg/validation"
)

// Placeholder marks where the identifier goes in a URL template.
const Placeholder = "{}"

// Keys of the derived fields.
const (
	KeyIconURL     = "icon_url"
	KeyManifestURL = "docker_compose_url"
)

// Templates holds the icon and manifest URL templates.
type Templates struct {
	Icon     string
	Manifest string
}

// Validate checks that each template carries exactly one placeholder.
func (t Templates) Validate() error {
	for _, tpl := range []struct{ name, value string }{{"icon", t.Icon}, {"manifest", t.Manifest}} {
		if c := strings.Count(tpl.value, Placeholder); c != 1 {
			return fmt.Errorf("%w: %s template %q must contain exactly one %s, found %d",
				domain.ErrInvalidTemplate, tpl.name, tpl.value, Placeholder, c)
		}
	}
	return nil
}

// Enrich returns a copy of the entry's fields with the icon and manifest URLs
// added. Any identifier that is safe as a single path segment is accepted.
// An empty or unsafe one fails with domain.ErrInvalidEntry rather than
// producing a malformed URL.
func Enrich(e domain.Entry, t Templates) (domain.Fields, error) {
	if e.ID == "" {
		return domain.Fields{}, fmt.Errorf("%w: entry %q has no identifier", domain.ErrInvalidEntry, e.Name)
	}
	if err := validation.ValidatePathSegment(e.ID); err != nil {
		return domain.Fields{}, fmt.Errorf("%w: %v", domain.ErrInvalidEntry, err)
	}

	out := e.Fields.Clone()
	out.Set(KeyIconURL, strings.Replace(t.Icon, Placeholder, e.ID, 1))
	out.Set(KeyManifestURL, strings.Replace(t.Manifest, Placeholder, e.ID, 1))
	return out, nil
}

// Publish enriches every entry of the catalog into a flat record. Entries
// that cannot be enriched are logged and left out; they never fail the batch.
func Publish(cat *domain.Catalog, t Templates, log zerolog.Logger) ([]domain.Fields, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if cat == nil {
		return []domain.Fields{}, nil
	}

	records := make([]domain.Fields, 0, len(cat.Apps))
	for _, e := range cat.Apps {
		fields, err := Enrich(e, t)
		if err != nil {
			log.Warn().Err(err).Str("name", e.Name).Str("path", e.Path).Msg("entry skipped from publication")
			continue
		}
		published := e
		published.Fields = fields
		records = append(records, published.Record())
	}
	return records, nil
}
