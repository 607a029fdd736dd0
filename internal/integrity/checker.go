// Package integrity cross-checks a catalog against the icon and manifest
// asset stores and reports entries missing either.
package integrity

import (
	"fmt"
	"io"
	"strings"

	"github.com/bnema/dockcatalog/internal/domain"
)

// Finding names an entry and the asset kinds it lacks.
type Finding struct {
	ID      string
	Name    string
	Missing []domain.AssetKind
}

// String renders the report line "<id> - Missing: <kinds>".
func (f Finding) String() string {
	kinds := make([]string, len(f.Missing))
	for i, k := range f.Missing {
		kinds[i] = string(k)
	}
	return fmt.Sprintf("%s - Missing: %s", f.ID, strings.Join(kinds, ", "))
}

// Check returns one finding per catalog entry absent from icons, manifests
// or both, in catalog order. Entries present in both listings produce nothing.
func Check(cat *domain.Catalog, icons, manifests domain.AssetListing) []Finding {
	if cat == nil {
		return nil
	}

	var findings []Finding
	for _, e := range cat.Apps {
		var missing []domain.AssetKind
		if !icons.Contains(e.ID) {
			missing = append(missing, domain.AssetIcon)
		}
		if !manifests.Contains(e.ID) {
			missing = append(missing, domain.AssetManifest)
		}
		if len(missing) > 0 {
			findings = append(findings, Finding{ID: e.ID, Name: e.Name, Missing: missing})
		}
	}
	return findings
}

// WriteReport writes one line per finding.
func WriteReport(w io.Writer, findings []Finding) error {
	for _, f := range findings {
		if _, err := fmt.Fprintln(w, f.String()); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
