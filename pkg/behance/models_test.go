package behance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectFixture = `{
  "id": 4889175,
  "name": "Portfolio",
  "published_on": 1342104641,
  "fields": ["Illustration"],
  "covers": {"115": "https://cdn/c115.jpg", "404": "https://cdn/c404.jpg"},
  "owners": [{"id": 50001, "username": "jdoe", "images": {"50": "https://cdn/o50.jpg"}, "city": "Oslo"}],
  "stats": {"views": 10, "appreciations": 2},
  "modules": [
    {"id": 1, "type": "image", "src": "https://cdn/m1.jpg", "sizes": {"original": "https://cdn/m1o.jpg", "disp": "https://cdn/m1d.jpg"}, "dimensions": {"original": {"width": 800, "height": 600}}, "full_bleed": 0},
    {"id": 2, "type": "media_collection", "components": [{"id": 21, "src": "https://cdn/c21.jpg", "sizes": {"1400": "x"}}], "sort_type": "manual"},
    {"id": 3, "type": "text", "text": "<p>hi</p>"},
    {"id": 4, "type": "embed", "embed": "<iframe></iframe>"}
  ]
}`

func TestProjectRoundTripKeepsUnknownMembers(t *testing.T) {
	var p Project
	require.NoError(t, json.Unmarshal([]byte(projectFixture), &p))

	assert.Equal(t, int64(4889175), p.ID)
	assert.Equal(t, "https://cdn/c404.jpg", p.Covers["404"])
	require.Len(t, p.Owners, 1)
	assert.Equal(t, "Oslo", p.Owners[0].Extra.String("city"))
	assert.JSONEq(t, `1342104641`, string(p.Extra.Get("published_on")))

	require.Len(t, p.Modules, 4)
	assert.Equal(t, ModuleImage, p.Modules[0].Type)
	require.NotNil(t, p.Modules[0].Image)
	assert.Equal(t, "https://cdn/m1o.jpg", p.Modules[0].Image.Sizes["original"])
	require.NotNil(t, p.Modules[1].Collection)
	assert.Len(t, p.Modules[1].Collection.Components, 1)
	assert.Equal(t, "text", p.Modules[2].Type)
	assert.NotNil(t, p.Modules[2].Raw)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, projectFixture, string(out))
}

func TestMarshalIsDeterministic(t *testing.T) {
	var a, b Project
	require.NoError(t, json.Unmarshal([]byte(projectFixture), &a))
	require.NoError(t, json.Unmarshal([]byte(projectFixture), &b))

	outA, err := json.Marshal(a)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		outB, err := json.Marshal(b)
		require.NoError(t, err)
		assert.Equal(t, string(outA), string(outB))
	}
}

func TestModuleLocalFileEncoded(t *testing.T) {
	var m Module
	require.NoError(t, json.Unmarshal([]byte(`{"type":"image","sizes":{"size_original":"u"}}`), &m))
	m.Image.LocalFile = "ref-1"

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"image","sizes":{"size_original":"u"},"localFile":"ref-1"}`, string(out))
}

func TestUserExtraAccessors(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"username":"jdoe","company":"Acme","stats":{"followers":3}}`), &u))

	assert.Equal(t, "Acme", u.Extra.String("company"))
	assert.Equal(t, "", u.Extra.String("stats"))
	assert.Nil(t, u.Extra.Get("website"))
}

func TestEmptyMembersRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		target json.Unmarshaler
		input  string
	}{
		{"project", &Project{}, `{"id":1,"name":"","url":"","covers":{},"owners":[],"modules":[]}`},
		{"owner", &Owner{}, `{"id":0,"username":"","images":{}}`},
		{"image", &Image{}, `{"type":"image","src":"","sizes":{},"dimensions":{}}`},
		{"collection", &MediaCollection{}, `{"type":"media_collection","components":[]}`},
		{"user", &User{}, `{"id":7,"username":"","images":{}}`},
		{"null member", &Project{}, `{"id":1,"covers":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, json.Unmarshal([]byte(tt.input), tt.target))
			out, err := json.Marshal(tt.target)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(out))
		})
	}
}

func TestAbsentMembersStayAbsent(t *testing.T) {
	var p Project
	require.NoError(t, json.Unmarshal([]byte(`{"id":1}`), &p))
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(out))

	built, err := json.Marshal(Image{Sizes: map[string]string{"size_original": "u"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sizes":{"size_original":"u"}}`, string(built))
}
