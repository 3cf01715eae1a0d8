package library

import (
	"context"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/mafhper/arrumaessevideo/catalog"
	"github.com/mafhper/arrumaessevideo/identity"
)

// Fetcher is the slice of the remote catalog client the orchestrator needs.
type Fetcher interface {
	SearchMovie(ctx context.Context, title string, year int) (*catalog.MetadataRecord, error)
	SearchSeries(ctx context.Context, title string) (*catalog.MetadataRecord, error)
	DownloadPoster(ctx context.Context, posterURL, destPath string) error
}

// Embedder tags one media file with its cached metadata. A nil Embedder on
// the Manager disables the embedding stage entirely.
type Embedder interface {
	Embed(ctx context.Context, filePath string, entry catalog.Entry, posterPath string) (catalog.EmbedStatus, error)
}

// Summary is the run-end accounting reported to the user. Per-file failures
// only ever show up here, never as a run failure.
type Summary struct {
	Found        int
	Cataloged    int
	Unrecognized int
	CacheHits    int
	Fetched      int
	FetchFailed  int
	Embedded     int
	EmbedSkipped int
	EmbedFailed  int
}

// Manager drives the per-file pipeline: parse, cache lookup, fetch on miss,
// poster download, embed, catalog. Files are processed strictly one at a
// time; the cache is persisted after every successful fetch so an
// interrupted run keeps its progress.
type Manager struct {
	root     string
	cache    *catalog.Cache
	fetcher  Fetcher
	embedder Embedder
}

func NewManager(root string, cache *catalog.Cache, fetcher Fetcher, embedder Embedder) *Manager {
	return &Manager{
		root:     filepath.Clean(root),
		cache:    cache,
		fetcher:  fetcher,
		embedder: embedder,
	}
}

// Run processes every media file under the root and returns the catalog
// entries in scan order together with the run summary.
func (m *Manager) Run(ctx context.Context) ([]catalog.CatalogEntry, Summary, error) {
	files, err := FindMediaFiles(m.root)
	if err != nil {
		return nil, Summary{}, err
	}

	summary := Summary{Found: len(files)}
	log.Info().Str("root", m.root).Int("files", len(files)).Msg("scanning library")

	entries := make([]catalog.CatalogEntry, 0, len(files))
	for _, file := range files {
		entry, ok := m.processFile(ctx, file, &summary)
		if !ok {
			continue
		}
		entries = append(entries, entry)
		summary.Cataloged++
	}

	log.Info().
		Int("found", summary.Found).
		Int("cataloged", summary.Cataloged).
		Int("unrecognized", summary.Unrecognized).
		Int("cache_hits", summary.CacheHits).
		Int("fetched", summary.Fetched).
		Int("fetch_failed", summary.FetchFailed).
		Int("embedded", summary.Embedded).
		Int("embed_skipped", summary.EmbedSkipped).
		Int("embed_failed", summary.EmbedFailed).
		Msg("run complete")

	return entries, summary, nil
}

func (m *Manager) processFile(ctx context.Context, file string, summary *Summary) (catalog.CatalogEntry, bool) {
	relPath, err := filepath.Rel(m.root, file)
	if err != nil {
		relPath = file
	}

	id, err := identity.Parse(filepath.Base(file))
	if err != nil {
		log.Warn().Str("path", relPath).Msg("unrecognized filename, skipping")
		summary.Unrecognized++
		return catalog.CatalogEntry{}, false
	}

	key := id.Key()
	cached, hit := m.cache.Lookup(key)
	if hit {
		log.Debug().Str("path", relPath).Str("key", key).Msg("cache hit")
		summary.CacheHits++
	} else {
		cached, err = m.fetch(ctx, id, key)
		if err != nil {
			log.Error().Err(err).Str("path", relPath).Str("key", key).Msg("catalog lookup failed, cataloging degraded entry")
			summary.FetchFailed++
			return catalog.CatalogEntry{
				Path:     relPath,
				Identity: id,
				Degraded: true,
			}, true
		}
		summary.Fetched++

		m.cache.Insert(key, cached)
		if err := m.cache.Persist(); err != nil {
			log.Error().Err(err).Msg("could not persist metadata cache")
		}
	}

	entry := catalog.CatalogEntry{
		Path:       relPath,
		Identity:   id,
		Record:     cached.Record,
		PosterPath: cached.PosterPath,
	}

	if m.embedder != nil {
		entry.Embed = m.embed(ctx, file, relPath, cached, summary)
	}
	return entry, true
}

func (m *Manager) fetch(ctx context.Context, id identity.MediaIdentity, key string) (catalog.Entry, error) {
	log.Info().Str("key", key).Str("title", id.Label()).Msg("fetching metadata")

	var record *catalog.MetadataRecord
	var err error
	if id.Kind == identity.KindEpisode {
		record, err = m.fetcher.SearchSeries(ctx, id.Title)
	} else {
		record, err = m.fetcher.SearchMovie(ctx, id.Title, id.Year)
	}
	if err != nil {
		return catalog.Entry{}, err
	}

	entry := catalog.Entry{Identity: id, Record: record}
	if record.PosterURL != "" {
		posterRel := path.Join(MetadataDirName, "posters", key+posterExt(record.PosterURL))
		dest := filepath.Join(m.root, filepath.FromSlash(posterRel))
		if err := m.fetcher.DownloadPoster(ctx, record.PosterURL, dest); err != nil {
			// Keep the record; a missing poster only degrades the page.
			log.Warn().Err(err).Str("key", key).Msg("poster download failed")
		} else {
			entry.PosterPath = posterRel
		}
	}
	return entry, nil
}

func (m *Manager) embed(ctx context.Context, file, relPath string, cached catalog.Entry, summary *Summary) catalog.EmbedStatus {
	posterAbs := ""
	if cached.PosterPath != "" {
		posterAbs = filepath.Join(m.root, filepath.FromSlash(cached.PosterPath))
	}

	status, err := m.embedder.Embed(ctx, file, cached, posterAbs)
	switch status {
	case catalog.EmbedStatusEmbedded:
		log.Info().Str("path", relPath).Msg("metadata embedded")
		summary.Embedded++
	case catalog.EmbedStatusSkipped:
		log.Debug().Str("path", relPath).Msg("already tagged, embed skipped")
		summary.EmbedSkipped++
	case catalog.EmbedStatusFailed:
		log.Error().Err(err).Str("path", relPath).Msg("embed failed, original file kept")
		summary.EmbedFailed++
	}
	return status
}

func posterExt(posterURL string) string {
	if ext := path.Ext(posterURL); ext != "" {
		return ext
	}
	return ".jpg"
}

// CacheFilePath returns the cache document location for a library root.
func CacheFilePath(root string) string {
	return filepath.Join(root, MetadataDirName, "metadata.json")
}
