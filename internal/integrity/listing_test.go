package integrity

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/dockcatalog/internal/testutils"
)

func TestStore_List(t *testing.T) {
	fs := testutils.NewMemFs(t, map[string]string{
		"/data/icons/12xab.png": "png",
		"/data/icons/3cd45.PNG": "png",
		"/data/icons/notes.txt": "x",
		"/data/icons/sub.png/":  "",
		"/data/apps/12xab.yml":  "services: {}",
		"/data/apps/99zz1.yaml": "services: {}",
	})

	icons, err := NewStore(fs, "/data/icons", "png", zerolog.Nop()).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"12xab", "3cd45"}, icons.Sorted())

	manifests, err := NewStore(fs, "/data/apps", ".yml", zerolog.Nop()).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"12xab"}, manifests.Sorted())
}

func TestStore_ListMissingDirectory(t *testing.T) {
	listing, err := NewStore(afero.NewMemMapFs(), "/nowhere", "png", zerolog.Nop()).List()
	require.NoError(t, err)
	assert.Empty(t, listing)
}

func TestStore_PruneEmpty(t *testing.T) {
	fs := testutils.NewMemFs(t, map[string]string{
		"/data/apps/full1.yml": "services: {}",
		"/data/apps/empty.yml": "",
		"/data/apps/blank.txt": "",
	})
	s := NewStore(fs, "/data/apps", "yml", zerolog.Nop())

	removed, err := s.PruneEmpty()
	require.NoError(t, err)
	assert.Equal(t, []string{"empty"}, removed)

	listing, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"full1"}, listing.Sorted())

	exists, err := afero.Exists(fs, "/data/apps/blank.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_PathFor(t *testing.T) {
	s := NewStore(afero.NewMemMapFs(), "/data/apps", ".yml", zerolog.Nop())
	assert.Equal(t, "/data/apps/12xab.yml", s.PathFor("12xab"))
}
