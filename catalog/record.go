package catalog

import (
	"github.com/mafhper/arrumaessevideo/identity"
)

// MetadataRecord holds the descriptive data fetched from the remote catalog
// for one identity. Once cached it is read-only to every other component.
type MetadataRecord struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	Year          string   `json:"year,omitempty"`
	ReleaseDate   string   `json:"release_date,omitempty"`
	Overview      string   `json:"overview,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	Directors     []string `json:"directors,omitempty"`
	Cast          []string `json:"cast,omitempty"`
	RuntimeMin    int      `json:"runtime,omitempty"`
	PosterURL     string   `json:"poster_url,omitempty"`
}

// Entry is one cached identity: the identity itself, its fetched record and
// the poster path relative to the scan root (so the cache stays valid when
// the library directory moves).
type Entry struct {
	Identity   identity.MediaIdentity `json:"identity"`
	Record     *MetadataRecord        `json:"record,omitempty"`
	PosterPath string                 `json:"poster_path,omitempty"`
}

// EmbedStatus records the outcome of the tagging step for one file.
type EmbedStatus string

const (
	EmbedStatusNone     EmbedStatus = ""
	EmbedStatusEmbedded EmbedStatus = "embedded"
	EmbedStatusSkipped  EmbedStatus = "skipped"
	EmbedStatusFailed   EmbedStatus = "failed"
)

// CatalogEntry is one successfully processed file, collected in scan order
// and handed to the renderer. Entries without a Record are degraded: the
// remote lookup failed and only filename-derived identity is available.
type CatalogEntry struct {
	Path       string
	Identity   identity.MediaIdentity
	Record     *MetadataRecord
	PosterPath string
	Embed      EmbedStatus
	Degraded   bool
}

// DisplayTitle prefers the remote title, falling back to the parsed one.
func (e CatalogEntry) DisplayTitle() string {
	if e.Record != nil && e.Record.Title != "" {
		return e.Record.Title
	}
	return e.Identity.Title
}
