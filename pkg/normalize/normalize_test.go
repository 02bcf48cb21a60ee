package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"behancesync/pkg/behance"
)

func decodeProject(t *testing.T, data string) behance.Project {
	t.Helper()
	var p behance.Project
	require.NoError(t, json.Unmarshal([]byte(data), &p))
	return p
}

func encode(t *testing.T, v interface{}) string {
	t.Helper()
	out, err := json.Marshal(v)
	require.NoError(t, err)
	return string(out)
}

func TestRenameSizes(t *testing.T) {
	assert.Nil(t, RenameSizes[string](nil))
	assert.Equal(t, map[string]int{}, RenameSizes(map[string]int{}))
	assert.Equal(t,
		map[string]int{"size_115": 1, "size_original": 2},
		RenameSizes(map[string]int{"115": 1, "original": 2}),
	)
}

func TestNormalizeImage(t *testing.T) {
	var img behance.Image
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 9,
		"sizes": {"276": "u1", "max_1920": "u2"},
		"dimensions": {"276": {"w": 1, "h": 1}}
	}`), &img))

	got := NormalizeImage(img)

	assert.JSONEq(t, `{
		"id": 9,
		"sizes": {"size_276": "u1", "size_max_1920": "u2"},
		"dimensions": {"size_276": {"w": 1, "h": 1}}
	}`, encode(t, got))

	// input untouched
	assert.Equal(t, "u1", img.Sizes["276"])
	_, renamed := img.Sizes["size_276"]
	assert.False(t, renamed)
}

func TestNormalizeProjectWithoutImageModules(t *testing.T) {
	input := `{
		"id": 1,
		"name": "Words",
		"covers": {"115": "c1", "404": "c2"},
		"owners": [{"id": 5, "images": {"50": "o1"}, "city": "Oslo"}],
		"modules": [{"type": "text", "text": "hello"}, {"type": "embed", "embed": "<b>x</b>"}],
		"stats": {"views": 3}
	}`
	p := decodeProject(t, input)

	got := NormalizeProject(p)

	assert.JSONEq(t, `{
		"id": 1,
		"name": "Words",
		"covers": {"size_115": "c1", "size_404": "c2"},
		"owners": [{"id": 5, "images": {"size_50": "o1"}, "city": "Oslo"}],
		"modules": [{"type": "text", "text": "hello"}, {"type": "embed", "embed": "<b>x</b>"}],
		"stats": {"views": 3}
	}`, encode(t, got))

	// The input still encodes to what was decoded
	assert.JSONEq(t, input, encode(t, p))
}

func TestNormalizeProjectModules(t *testing.T) {
	p := decodeProject(t, `{
		"id": 2,
		"modules": [
			{"type": "image", "sizes": {"original": "a", "disp": "b"}, "dimensions": {"original": {"width": 10}}},
			{"type": "media_collection", "components": [
				{"src": "c1", "sizes": {"1400": "c1big"}},
				{"src": "c2", "dimensions": {"1400": {"height": 5}}}
			]},
			{"type": "future_variant", "sizes": {"1": "left alone"}}
		]
	}`)

	got := NormalizeProject(p)

	require.Len(t, got.Modules, 3)
	assert.Equal(t, map[string]string{"size_original": "a", "size_disp": "b"}, got.Modules[0].Image.Sizes)
	assert.Contains(t, got.Modules[0].Image.Dimensions, "size_original")

	comps := got.Modules[1].Collection.Components
	require.Len(t, comps, 2)
	assert.Equal(t, "c1big", comps[0].Sizes["size_1400"])
	assert.Contains(t, comps[1].Dimensions, "size_1400")
	assert.Equal(t, "c2", comps[1].Src)

	assert.JSONEq(t, `{"type": "future_variant", "sizes": {"1": "left alone"}}`, encode(t, got.Modules[2]))

	// Normalization never touches the source modules
	assert.Equal(t, "a", p.Modules[0].Image.Sizes["original"])
	assert.Equal(t, "c1big", p.Modules[1].Collection.Components[0].Sizes["1400"])
	assert.NotSame(t, p.Modules[0].Image, got.Modules[0].Image)
	assert.NotSame(t, p.Modules[1].Collection, got.Modules[1].Collection)
}

func TestNormalizeTwiceDoublePrefixes(t *testing.T) {
	img := behance.Image{Sizes: map[string]string{"115": "u"}}

	twice := NormalizeImage(NormalizeImage(img))

	assert.Equal(t, map[string]string{"size_size_115": "u"}, twice.Sizes)
}

func TestNormalizeProjectEmpty(t *testing.T) {
	got := NormalizeProject(behance.Project{ID: 3})

	assert.Nil(t, got.Covers)
	assert.Nil(t, got.Owners)
	assert.Nil(t, got.Modules)
	assert.Equal(t, int64(3), got.ID)
}

func TestNormalizeProjectKeepsEmptyMembers(t *testing.T) {
	p := decodeProject(t, `{
		"id": 1,
		"name": "",
		"url": "",
		"covers": {},
		"owners": [{"id": 0, "username": "", "images": {}}],
		"modules": [
			{"type": "image", "src": "", "sizes": {"original": "u"}, "dimensions": {}},
			{"type": "media_collection", "components": []}
		]
	}`)

	assert.JSONEq(t, `{
		"id": 1,
		"name": "",
		"url": "",
		"covers": {},
		"owners": [{"id": 0, "username": "", "images": {}}],
		"modules": [
			{"type": "image", "src": "", "sizes": {"size_original": "u"}, "dimensions": {}},
			{"type": "media_collection", "components": []}
		]
	}`, encode(t, NormalizeProject(p)))
}

func TestNormalizeProjectEmptyCollections(t *testing.T) {
	p := decodeProject(t, `{"id": 2, "covers": {}, "owners": [], "modules": []}`)
	assert.JSONEq(t, `{"id": 2, "covers": {}, "owners": [], "modules": []}`, encode(t, NormalizeProject(p)))
}
