package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediaconvert-api/internal/convert"
)

func TestLookup(t *testing.T) {
	tool, ok := Lookup(convert.CategoryImage, "rotate-image")
	require.True(t, ok)
	assert.Equal(t, "Rotate 90°", tool.Name)
	assert.Equal(t, convert.ClassImage, tool.Accept)

	_, ok = Lookup(convert.CategoryVideo, "rotate-image")
	assert.False(t, ok, "lookup is keyed by category and id")

	_, ok = Lookup(convert.CategoryImage, "does-not-exist")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	all[0].Name = "mutated"

	again := All()
	assert.NotEqual(t, "mutated", again[0].Name)
}

func TestAll_UniqueKeys(t *testing.T) {
	seen := make(map[key]bool)
	for _, tool := range All() {
		k := key{tool.Category, tool.ID}
		assert.False(t, seen[k], "duplicate tool %s/%s", tool.Category, tool.ID)
		seen[k] = true
	}
}

func TestByCategory(t *testing.T) {
	video := ByCategory(convert.CategoryVideo)
	require.NotEmpty(t, video)
	for _, tool := range video {
		assert.Equal(t, convert.CategoryVideo, tool.Category)
	}

	assert.Empty(t, ByCategory("nope"))
}

func TestCategories(t *testing.T) {
	cats := Categories()
	assert.Contains(t, cats, convert.CategoryImage)
	assert.Contains(t, cats, convert.CategoryVideo)
	assert.Contains(t, cats, convert.CategoryHash)
	assert.IsIncreasing(t, cats)
}
