package library_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mafhper/arrumaessevideo/catalog"
	"github.com/mafhper/arrumaessevideo/library"
	"github.com/mafhper/arrumaessevideo/render"
	"github.com/mafhper/arrumaessevideo/tmdb"
)

// Full pipeline against a fake TMDB: scan, fetch, cache, render. No
// embedding (nil embedder), since that needs a real ffmpeg.
func TestFullRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/search/movie"):
			json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{{"id": 1}}})
		case strings.HasPrefix(r.URL.Path, "/search/tv"):
			json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{{"id": 2}}})
		case r.URL.Path == "/movie/1":
			json.NewEncoder(w).Encode(map[string]any{
				"id": 1, "title": "Inception", "release_date": "2010-07-15",
				"overview": "A thief who steals corporate secrets.", "poster_path": "/p1.jpg",
			})
		case r.URL.Path == "/tv/2":
			json.NewEncoder(w).Encode(map[string]any{
				"id": 2, "name": "Show", "first_air_date": "2008-01-20",
				"overview": "A series.", "poster_path": "/p2.jpg",
			})
		case strings.HasPrefix(r.URL.Path, "/img/"):
			w.Write([]byte("jpeg-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	root := t.TempDir()
	for _, name := range []string{"Inception (2010).mp4", "Show S01E02.mkv"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("video"), 0644))
	}

	client := tmdb.NewClient(tmdb.ClientConfig{
		APIKey:       "key",
		BaseURL:      srv.URL,
		ImageBaseURL: srv.URL + "/img",
	})
	cache := catalog.Load(library.CacheFilePath(root))
	mgr := library.NewManager(root, cache, client, nil)

	entries, summary, err := mgr.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Fetched)
	assert.Zero(t, summary.Unrecognized)
	assert.Zero(t, summary.FetchFailed)

	// Cache on disk holds exactly the two keys.
	persisted := catalog.Load(library.CacheFilePath(root))
	assert.Equal(t, []string{"movie-inception-2010", "tv-show-s01e02"}, persisted.Keys())

	// Posters landed under .metadata/posters.
	for _, name := range []string{"movie-inception-2010.jpg", "tv-show-s01e02.jpg"} {
		_, err := os.Stat(filepath.Join(root, ".metadata", "posters", name))
		assert.NoError(t, err, name)
	}

	// The rendered page has one entry per tab.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(render.Render(entries)))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("#movies .media-card").Length())
	assert.Equal(t, 1, doc.Find("#tvshows .media-card").Length())
	assert.Equal(t, "Inception", doc.Find("#movies .media-title").Text())
}

// Same library with the API unreachable: both files still cataloged, just
// degraded, and the run completes normally.
func TestFullRunWithUnreachableAPI(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"Inception (2010).mp4", "Show S01E02.mkv"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("video"), 0644))
	}

	client := tmdb.NewClient(tmdb.ClientConfig{APIKey: "key", BaseURL: "http://127.0.0.1:1"})
	cache := catalog.Load(library.CacheFilePath(root))
	mgr := library.NewManager(root, cache, client, nil)

	entries, summary, err := mgr.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, e.Degraded)
		assert.Nil(t, e.Record)
	}
	assert.Equal(t, 2, summary.FetchFailed)
	assert.Zero(t, cache.Len())

	// Degraded entries still render, from identity alone.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(render.Render(entries)))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("#movies .media-card").Length())
	assert.Equal(t, 1, doc.Find("#tvshows .media-card").Length())
}
