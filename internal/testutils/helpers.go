package testutils

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestContext creates a test context with timeout
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// NewMemFs returns an in-memory filesystem populated with files, keyed by
// path. A key ending in "/" creates an empty directory.
func NewMemFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		if path[len(path)-1] == '/' {
			require.NoError(t, fs.MkdirAll(path, 0755))
			continue
		}
		WriteFile(t, fs, path, []byte(content))
	}
	return fs
}

// WriteFile writes data to fs, creating parent directories.
func WriteFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, data, 0644))
}

// LoadFixtureConfig returns a configuration fixture by name.
func LoadFixtureConfig(t *testing.T, filename string) string {
	content := `[paths]
apps = "/srv/catalog/apps"
icons = "/srv/catalog/icons"
manifests = "/srv/catalog/manifests"
catalog = "/srv/catalog/apps.json"
report = "/srv/catalog/missing_files.log"
published = "/srv/catalog/output.json"
failed = "/srv/catalog/failed_apps.txt"

[catalog]
descriptor = "description.json"
encoding = "utf-8"
fallback_encoding = "utf-8-sig"
denylist = ["tags", "Tag", "internal_notes"]
workers = 8
icon_extension = "png"

[identity]
digits = 3
letters = 2

[manifest]
extension = "yml"
placeholder = "{ServiceName}"
name_prefix = "big-bear-"
remove_keys = ["cosmos-installer"]

[links]
icon = "https://cdn.example.com/icons/{}.png"
manifest = "https://cdn.example.com/apps/{}.yml"

[logging]
level = "debug"`

	switch filename {
	case "minimal.toml":
		return `[paths]
apps = "apps"`
	case "invalid.toml":
		return `[paths
apps = "apps"`
	case "bad_template.toml":
		return `[links]
icon = "https://cdn.example.com/icons/static.png"`
	case "bad_encoding.toml":
		return `[catalog]
encoding = "ebcdic"`
	default:
		return content
	}
}
