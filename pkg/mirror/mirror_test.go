package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"behancesync/pkg/behance"
	errs "behancesync/pkg/errors"
	"behancesync/pkg/logger"
	"behancesync/pkg/metrics"
	"behancesync/pkg/storage"
)

type cdn struct {
	server *httptest.Server
	mu     sync.Mutex
	hits   map[string]int
	total  atomic.Int32
}

func newCDN(t *testing.T) *cdn {
	c := &cdn{hits: make(map[string]int)}
	c.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.total.Add(1)
		c.mu.Lock()
		c.hits[r.URL.Path]++
		c.mu.Unlock()

		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/noext") {
			w.Header().Set("Content-Type", "image/png")
		}
		w.Write([]byte("bytes of " + r.URL.Path))
	}))
	t.Cleanup(c.server.Close)
	return c
}

func (c *cdn) url(p string) string { return c.server.URL + p }

func newTestMirror(t *testing.T, opts Options) (*Mirror, *storage.Manager) {
	t.Helper()
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	client := behance.NewClient(behance.Options{}, logger.NewNopLogger())
	return New(client, store, opts, logger.NewNopLogger()), store
}

func imageModule(original string) behance.Module {
	return behance.Module{
		Type:  behance.ModuleImage,
		Image: &behance.Image{Sizes: map[string]string{behance.SizeOriginal: original}},
	}
}

func collectionModule(srcs ...string) behance.Module {
	coll := &behance.MediaCollection{}
	for _, s := range srcs {
		coll.Components = append(coll.Components, behance.Image{Src: s})
	}
	return behance.Module{Type: behance.ModuleMediaCollection, Collection: coll}
}

func TestReferenceIsStable(t *testing.T) {
	a := Reference("https://cdn.example/a.jpg")
	assert.Equal(t, a, Reference("https://cdn.example/a.jpg"))
	assert.NotEqual(t, a, Reference("https://cdn.example/b.jpg"))
	assert.Len(t, a, 36)
}

func TestMirrorAssetStoresOnce(t *testing.T) {
	c := newCDN(t)
	m, store := newTestMirror(t, Options{})

	ref, err := m.MirrorAsset(context.Background(), c.url("/img/a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, Reference(c.url("/img/a.jpg")), ref)

	path, ok := store.Lookup(ref)
	require.True(t, ok)
	assert.Equal(t, ".jpg", filepath.Ext(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bytes of /img/a.jpg", string(data))

	// Second call is served from storage
	again, err := m.MirrorAsset(context.Background(), c.url("/img/a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, ref, again)
	assert.Equal(t, int32(1), c.total.Load())
}

func TestMirrorAssetExtensionFromContentType(t *testing.T) {
	c := newCDN(t)
	m, store := newTestMirror(t, Options{})

	ref, err := m.MirrorAsset(context.Background(), c.url("/img/noext"))
	require.NoError(t, err)
	path, ok := store.Lookup(ref)
	require.True(t, ok)
	assert.Equal(t, ".png", filepath.Ext(path))
}

func TestMirrorAssetConcurrentCallsShareDownload(t *testing.T) {
	c := newCDN(t)
	m, _ := newTestMirror(t, Options{})

	var wg sync.WaitGroup
	refs := make([]string, 8)
	for i := range refs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref, err := m.MirrorAsset(context.Background(), c.url("/img/shared.jpg"))
			assert.NoError(t, err)
			refs[i] = ref
		}(i)
	}
	wg.Wait()

	for _, r := range refs {
		assert.Equal(t, refs[0], r)
	}
	// Late callers may miss the in-flight download but then hit storage
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, 1, c.hits["/img/shared.jpg"])
}

func TestMirrorAssetFailure(t *testing.T) {
	c := newCDN(t)
	reg := metrics.New(nil)
	m, _ := newTestMirror(t, Options{Metrics: reg})

	_, err := m.MirrorAsset(context.Background(), c.url("/img/missing.jpg"))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAsset))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.AssetsTotal.WithLabelValues(metrics.AssetFailed)))

	_, err = m.MirrorAsset(context.Background(), "")
	assert.Error(t, err)
}

func TestMirrorProjectAttachesLocalFiles(t *testing.T) {
	c := newCDN(t)
	reg := metrics.New(nil)
	m, _ := newTestMirror(t, Options{Metrics: reg})

	project := &behance.Project{
		ID: 1,
		Modules: []behance.Module{
			imageModule(c.url("/img/one.jpg")),
			collectionModule(c.url("/img/two.jpg"), c.url("/img/three.jpg")),
			{Type: "text", Raw: []byte(`{"type":"text","text":"hi"}`)},
		},
	}

	summary, err := m.MirrorProject(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Mirrored)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, int32(3), c.total.Load())

	assert.Equal(t, Reference(c.url("/img/one.jpg")), project.Modules[0].Image.LocalFile)
	comps := project.Modules[1].Collection.Components
	assert.Equal(t, Reference(c.url("/img/two.jpg")), comps[0].LocalFile)
	assert.Equal(t, Reference(c.url("/img/three.jpg")), comps[1].LocalFile)
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.AssetsTotal.WithLabelValues(metrics.AssetMirrored)))
}

func TestMirrorProjectDeduplicatesURLs(t *testing.T) {
	c := newCDN(t)
	m, _ := newTestMirror(t, Options{Concurrency: 1})

	shared := c.url("/img/same.jpg")
	project := &behance.Project{
		ID:      2,
		Modules: []behance.Module{imageModule(shared), collectionModule(shared, shared)},
	}

	summary, err := m.MirrorProject(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Mirrored)
	assert.Equal(t, int32(1), c.total.Load())
}

func TestMirrorProjectGracefulFailure(t *testing.T) {
	c := newCDN(t)
	m, _ := newTestMirror(t, Options{})

	project := &behance.Project{
		ID: 3,
		Modules: []behance.Module{
			imageModule(c.url("/img/ok.jpg")),
			imageModule(c.url("/img/missing.jpg")),
		},
	}

	summary, err := m.MirrorProject(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Mirrored)
	assert.Equal(t, 1, summary.Failed)
	assert.NotEmpty(t, project.Modules[0].Image.LocalFile)
	assert.Empty(t, project.Modules[1].Image.LocalFile)
}

func TestMirrorProjectFailOnError(t *testing.T) {
	c := newCDN(t)
	m, _ := newTestMirror(t, Options{FailOnError: true})

	project := &behance.Project{
		ID:      4,
		Modules: []behance.Module{imageModule(c.url("/img/missing.jpg"))},
	}

	_, err := m.MirrorProject(context.Background(), project)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAsset))
}

func TestMirrorProjectWithoutAssets(t *testing.T) {
	m, _ := newTestMirror(t, Options{})
	project := &behance.Project{ID: 5, Modules: []behance.Module{imageModule("")}}

	summary, err := m.MirrorProject(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		url, contentType, want string
	}{
		{"https://cdn/a/b.JPG", "", ".jpg"},
		{"https://cdn/a/b.png?x=1", "image/jpeg", ".png"},
		{"https://cdn/a/b", "image/gif", ".gif"},
		{"https://cdn/a/b", "", ""},
		{"https://cdn/a/b.verylongext", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extensionFor(tt.url, tt.contentType), tt.url)
	}
}
