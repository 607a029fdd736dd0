package domain

import "sort"

// AssetKind names a store the integrity check compares the catalog against.
type AssetKind string

const (
	AssetIcon     AssetKind = "icon"
	AssetManifest AssetKind = "manifest file"
)

// AssetListing is the set of identifiers present in an asset directory.
type AssetListing map[string]struct{}

// NewAssetListing builds a listing from identifiers.
func NewAssetListing(ids ...string) AssetListing {
	l := make(AssetListing, len(ids))
	for _, id := range ids {
		l[id] = struct{}{}
	}
	return l
}

// Contains reports whether id is present.
func (l AssetListing) Contains(id string) bool {
	_, ok := l[id]
	return ok
}

// Sorted returns the identifiers in lexical order.
func (l AssetListing) Sorted() []string {
	out := make([]string, 0, len(l))
	for id := range l {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
