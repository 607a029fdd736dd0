package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// JSON keys of the identity fields every entry carries.
const (
	KeyID               = "id"
	KeyName             = "name"
	KeyPath             = "path"
	KeyLastModified     = "last_modified"
	KeyDescriptionError = "description_error"
)

// ReservedKeys are owned by the catalog itself. Descriptor documents cannot
// overwrite them.
var ReservedKeys = []string{KeyID, KeyPath, KeyLastModified, KeyDescriptionError}

// Entry is one catalog record describing a single cataloged application.
type Entry struct {
	ID           string
	Name         string
	Path         string
	LastModified time.Time
	// Fields holds descriptor metadata merged in after the denylist is applied.
	Fields Fields
	// DescriptionError is set when the descriptor could not be read or parsed.
	// The entry is still recorded so operators can locate and fix it.
	DescriptionError string
}

// HasDiagnostic reports whether the entry's descriptor failed to load.
func (e Entry) HasDiagnostic() bool {
	return e.DescriptionError != ""
}

// Record flattens the entry into a single ordered mapping: identity fields
// first, then descriptor fields, then the diagnostic when present.
func (e Entry) Record() Fields {
	out := NewFields()
	out.Set(KeyID, e.ID)
	out.Set(KeyName, e.Name)
	out.Set(KeyPath, e.Path)
	out.Set(KeyLastModified, formatTime(e.LastModified))
	for _, k := range e.Fields.keys {
		if out.Has(k) {
			continue
		}
		out.Set(k, e.Fields.values[k])
	}
	if e.DescriptionError != "" {
		out.Set(KeyDescriptionError, e.DescriptionError)
	}
	return out
}

// MarshalJSON writes the flattened record.
func (e Entry) MarshalJSON() ([]byte, error) {
	return e.Record().MarshalJSON()
}

// UnmarshalJSON reads a flattened record back into an Entry.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var rec Fields
	if err := rec.UnmarshalJSON(data); err != nil {
		return err
	}

	out := Entry{Fields: NewFields()}
	for _, k := range rec.keys {
		v := rec.values[k]
		var field *string
		switch k {
		case KeyID:
			field = &out.ID
		case KeyName:
			field = &out.Name
		case KeyPath:
			field = &out.Path
		case KeyDescriptionError:
			field = &out.DescriptionError
		case KeyLastModified:
			var s string
			if err := identityString(k, v, &s); err != nil {
				return err
			}
			if s == "" {
				continue
			}
			t, err := parseTime(s)
			if err != nil {
				return fmt.Errorf("entry %q: %w", out.ID, err)
			}
			out.LastModified = t
			continue
		default:
			out.Fields.Set(k, v)
			continue
		}
		if err := identityString(k, v, field); err != nil {
			return err
		}
	}
	*e = out
	return nil
}

// identityString stores v into dst, failing when an identity field holds
// anything but a string.
func identityString(key string, v any, dst *string) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("entry field %q must be a string, got %T", key, v)
	}
	*dst = s
	return nil
}

// Catalog is an ordered snapshot of entries built in one run.
type Catalog struct {
	GeneratedAt time.Time
	Apps        []Entry
}

// IDs returns the identifiers of all entries in catalog order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Apps))
	for _, e := range c.Apps {
		ids = append(ids, e.ID)
	}
	return ids
}

// Diagnostics returns the entries whose descriptor failed to load.
func (c *Catalog) Diagnostics() []Entry {
	if c == nil {
		return nil
	}
	var out []Entry
	for _, e := range c.Apps {
		if e.HasDiagnostic() {
			out = append(out, e)
		}
	}
	return out
}

type catalogJSON struct {
	GeneratedAt string  `json:"generated_at"`
	Apps        []Entry `json:"apps"`
}

// MarshalJSON encodes the catalog document.
func (c Catalog) MarshalJSON() ([]byte, error) {
	apps := c.Apps
	if apps == nil {
		apps = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(catalogJSON{GeneratedAt: formatTime(c.GeneratedAt), Apps: apps}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a catalog document.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var raw catalogJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Catalog{Apps: raw.Apps}
	if raw.GeneratedAt != "" {
		t, err := parseTime(raw.GeneratedAt)
		if err != nil {
			return fmt.Errorf("generated_at: %w", err)
		}
		out.GeneratedAt = t
	}
	*c = out
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	// Catalogs written by older tooling used naive ISO timestamps.
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local)
}
