package identity

import "fmt"

// PriorIDs maps an entry path to the identifier it carried in a previous
// catalog generation.
type PriorIDs map[string]string

// Stamp assigns an identifier to every path. A path keeps its prior identifier
// when that identifier is well-formed and not already claimed by an earlier
// path; every other path gets a fresh one. Fresh identifiers never collide with
// any prior identifier, so a retired entry's identifier is not handed to a new
// entry.
func (a *Allocator) Stamp(paths []string, prior PriorIDs) (map[string]string, error) {
	exclude := make(map[string]struct{}, len(prior))
	for _, id := range prior {
		exclude[id] = struct{}{}
	}

	stamped := make(map[string]string, len(paths))
	claimed := make(map[string]struct{}, len(paths))
	var pending []string

	for _, p := range paths {
		if _, dup := stamped[p]; dup {
			return nil, fmt.Errorf("duplicate entry path %q", p)
		}
		id, ok := prior[p]
		if ok && a.Valid(id) {
			if _, taken := claimed[id]; !taken {
				stamped[p] = id
				claimed[id] = struct{}{}
				continue
			}
			a.log.Warn().Str("path", p).Str("id", id).Msg("prior identifier already claimed, allocating a new one")
		} else if ok {
			a.log.Warn().Str("path", p).Str("id", id).Msg("prior identifier malformed, allocating a new one")
		}
		stamped[p] = ""
		pending = append(pending, p)
	}

	fresh, err := a.Allocate(len(pending), exclude)
	if err != nil {
		return nil, err
	}
	for i, p := range pending {
		stamped[p] = fresh[i]
	}

	a.log.Info().
		Int("reused", len(paths)-len(pending)).
		Int("allocated", len(pending)).
		Msg("entries stamped")
	return stamped, nil
}
