package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mafhper/arrumaessevideo/catalog"
	"github.com/mafhper/arrumaessevideo/identity"
)

func parse(t *testing.T, htmlDoc string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlDoc))
	require.NoError(t, err)
	return doc
}

func sampleEntries() []catalog.CatalogEntry {
	return []catalog.CatalogEntry{
		{
			Path:     "Inception (2010).mp4",
			Identity: identity.MediaIdentity{Kind: identity.KindMovie, Title: "Inception", Year: 2010},
			Record: &catalog.MetadataRecord{
				ID: 27205, Title: "Inception", Year: "2010",
				Overview: "A thief who steals corporate secrets.",
				Genres:   []string{"Action", "Science Fiction", "Adventure", "Thriller"},
				Rating:   8.4,
			},
			PosterPath: ".metadata/posters/movie-inception-2010.jpg",
		},
		{
			Path:     "shows/Show S01E02.mkv",
			Identity: identity.MediaIdentity{Kind: identity.KindEpisode, Title: "Show", Season: 1, Episode: 2},
			Record:   &catalog.MetadataRecord{ID: 3, Title: "Show", Year: "2008", Overview: "A series."},
		},
		{
			Path:     "shows/Show S01E01.mkv",
			Identity: identity.MediaIdentity{Kind: identity.KindEpisode, Title: "Show", Season: 1, Episode: 1},
			Record:   &catalog.MetadataRecord{ID: 3, Title: "Show", Year: "2008", Overview: "A series."},
		},
	}
}

func TestRenderTabsAndCounts(t *testing.T) {
	doc := parse(t, Render(sampleEntries()))

	assert.Equal(t, 2, doc.Find(".tab-button").Length())
	assert.Equal(t, 1, doc.Find("#movies .media-card").Length())
	assert.Equal(t, 2, doc.Find("#tvshows .media-card").Length())
}

func TestRenderEpisodeOrderingWithinSeries(t *testing.T) {
	doc := parse(t, Render(sampleEntries()))

	var subtitles []string
	doc.Find("#tvshows .media-year").Each(func(_ int, s *goquery.Selection) {
		subtitles = append(subtitles, s.Text())
	})
	assert.Equal(t, []string{"S01E01", "S01E02"}, subtitles)

	assert.Equal(t, 1, doc.Find("#tvshows h3").Length(), "episodes of one series share one section")
	assert.Equal(t, "Show", doc.Find("#tvshows h3").First().Text())
}

func TestRenderMovieCardContents(t *testing.T) {
	doc := parse(t, Render(sampleEntries()))

	card := doc.Find("#movies .media-card").First()
	assert.Equal(t, "Inception", card.Find(".media-title").Text())
	assert.Equal(t, "2010", card.Find(".media-year").Text())
	assert.Contains(t, card.Find(".media-rating").Text(), "8.4")
	assert.Equal(t, "Action, Science Fiction, Adventure", card.Find(".media-genres").Text(), "genres capped at three")

	src, _ := card.Find("img.poster").Attr("src")
	assert.Equal(t, ".metadata/posters/movie-inception-2010.jpg", src)

	href, _ := card.Find("a.media-play").Attr("href")
	assert.Equal(t, "Inception%20%282010%29.mp4", href)
}

func TestRenderDegradedEntryUsesPlaceholder(t *testing.T) {
	entries := []catalog.CatalogEntry{{
		Path:     "Unknown (2001).mp4",
		Identity: identity.MediaIdentity{Kind: identity.KindMovie, Title: "Unknown", Year: 2001},
		Degraded: true,
	}}
	doc := parse(t, Render(entries))

	card := doc.Find("#movies .media-card").First()
	assert.Equal(t, "Unknown", card.Find(".media-title").Text())
	assert.Equal(t, "2001", card.Find(".media-year").Text())
	assert.Equal(t, 1, card.Find(".placeholder").Length())
	assert.Equal(t, 0, card.Find("img").Length())
	assert.Equal(t, 0, card.Find(".media-overview").Length())
}

func TestRenderEscapesTitles(t *testing.T) {
	entries := []catalog.CatalogEntry{{
		Path:     "x.mp4",
		Identity: identity.MediaIdentity{Kind: identity.KindMovie, Title: "<script>alert(1)</script>", Year: 2000},
	}}
	out := Render(entries)

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderIsDeterministic(t *testing.T) {
	entries := sampleEntries()
	first := Render(entries)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Render(entries))
	}
}

func TestRenderEmptyCatalog(t *testing.T) {
	doc := parse(t, Render(nil))
	assert.Equal(t, 0, doc.Find(".media-card").Length())
	assert.Equal(t, 2, doc.Find(".tab-button").Length())
}
