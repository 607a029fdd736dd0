package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp_ReusesPriorIdentifiers(t *testing.T) {
	a := newTestAllocator(t, 3, 2)

	prior := PriorIDs{
		"apps/wiki":    "1x2a3",
		"apps/gitea":   "ab123",
		"apps/removed": "9z9z9",
	}
	stamped, err := a.Stamp([]string{"apps/wiki", "apps/gitea", "apps/new"}, prior)
	require.NoError(t, err)

	assert.Equal(t, "1x2a3", stamped["apps/wiki"])
	assert.Equal(t, "ab123", stamped["apps/gitea"])

	fresh := stamped["apps/new"]
	assert.True(t, a.Valid(fresh))
	for _, id := range prior {
		assert.NotEqual(t, id, fresh, "retired identifier handed to a new entry")
	}
}

func TestStamp_ReplacesMalformedAndDuplicatePriors(t *testing.T) {
	a := newTestAllocator(t, 3, 2)

	prior := PriorIDs{
		"apps/a": "1x2a3",
		"apps/b": "1x2a3",
		"apps/c": "0123456789abcdef",
	}
	stamped, err := a.Stamp([]string{"apps/a", "apps/b", "apps/c"}, prior)
	require.NoError(t, err)

	assert.Equal(t, "1x2a3", stamped["apps/a"])
	assert.NotEqual(t, "1x2a3", stamped["apps/b"])
	assert.True(t, a.Valid(stamped["apps/b"]))
	assert.True(t, a.Valid(stamped["apps/c"]))

	seen := map[string]bool{}
	for _, id := range stamped {
		assert.False(t, seen[id], "duplicate %q", id)
		seen[id] = true
	}
}

func TestStamp_DuplicatePath(t *testing.T) {
	a := newTestAllocator(t, 3, 2)
	_, err := a.Stamp([]string{"apps/a", "apps/a"}, nil)
	assert.Error(t, err)
}
