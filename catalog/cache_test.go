package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mafhper/arrumaessevideo/identity"
)

func sampleEntry() Entry {
	return Entry{
		Identity: identity.MediaIdentity{Kind: identity.KindMovie, Title: "Inception", Year: 2010},
		Record: &MetadataRecord{
			ID:       27205,
			Title:    "Inception",
			Year:     "2010",
			Overview: "A thief who steals corporate secrets.",
			Genres:   []string{"Action", "Science Fiction"},
			Rating:   8.4,
		},
		PosterPath: ".metadata/posters/movie-inception-2010.jpg",
	}
}

func TestLookupAfterInsert(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "metadata.json"))

	entry := sampleEntry()
	c.Insert("movie-inception-2010", entry)

	got, ok := c.Lookup("movie-inception-2010")
	require.True(t, ok)
	assert.Equal(t, entry, got)

	_, ok = c.Lookup("movie-other-1999")
	assert.False(t, ok)
}

func TestInsertOverwrites(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "metadata.json"))

	first := sampleEntry()
	c.Insert("movie-inception-2010", first)

	second := first
	second.Record = &MetadataRecord{ID: 1, Title: "Replaced"}
	c.Insert("movie-inception-2010", second)

	got, ok := c.Lookup("movie-inception-2010")
	require.True(t, ok)
	assert.Equal(t, "Replaced", got.Record.Title)
	assert.Equal(t, 1, c.Len())
}

func TestPersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")

	c := Load(path)
	c.Insert("movie-inception-2010", sampleEntry())
	c.Insert("tv-breaking-bad-s01e02", Entry{
		Identity: identity.MediaIdentity{Kind: identity.KindEpisode, Title: "Breaking Bad", Season: 1, Episode: 2},
	})
	require.NoError(t, c.Persist())

	reloaded := Load(path)
	assert.Equal(t, 2, reloaded.Len())
	assert.Equal(t, []string{"movie-inception-2010", "tv-breaking-bad-s01e02"}, reloaded.Keys())

	got, ok := reloaded.Lookup("movie-inception-2010")
	require.True(t, ok)
	assert.Equal(t, sampleEntry(), got)
}

func TestLoadMissingFileYieldsEmptyCache(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Equal(t, 0, c.Len())
}

func TestLoadCorruptFileYieldsEmptyCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	c := Load(path)
	assert.Equal(t, 0, c.Len())

	// A corrupt cache must still be usable and persistable.
	c.Insert("movie-x-2000", Entry{Identity: identity.MediaIdentity{Kind: identity.KindMovie, Title: "X", Year: 2000}})
	require.NoError(t, c.Persist())
	assert.Equal(t, 1, Load(path).Len())
}

func TestPersistLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")

	c := Load(path)
	c.Insert("movie-x-2000", sampleEntry())
	require.NoError(t, c.Persist())
	require.NoError(t, c.Persist())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "metadata.json", entries[0].Name())
}

func TestPersistCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".metadata", "metadata.json")

	c := Load(path)
	c.Insert("movie-x-2000", sampleEntry())
	require.NoError(t, c.Persist())

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
