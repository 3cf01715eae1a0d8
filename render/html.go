package render

import (
	"fmt"
	"html"
	"net/url"
	"sort"
	"strings"

	"github.com/mafhper/arrumaessevideo/catalog"
	"github.com/mafhper/arrumaessevideo/identity"
)

// Render turns the catalog entries into a single self-contained HTML page
// with a movies tab and a series tab. Output is deterministic: the same
// entry sequence always produces byte-identical HTML, so the page can be
// diffed between runs.
func Render(entries []catalog.CatalogEntry) string {
	var movies, episodes []catalog.CatalogEntry
	for _, e := range entries {
		if e.Identity.Kind == identity.KindEpisode {
			episodes = append(episodes, e)
		} else {
			movies = append(movies, e)
		}
	}

	sort.SliceStable(movies, func(i, j int) bool {
		return movies[i].DisplayTitle() < movies[j].DisplayTitle()
	})
	sortEpisodes(episodes)

	var b strings.Builder
	b.WriteString(pageHead)
	b.WriteString(`<h1>Media Collection</h1>
<div class="tabs">
<button class="tab-button active" onclick="openTab(event, 'movies')">Movies</button>
<button class="tab-button" onclick="openTab(event, 'tvshows')">Series</button>
</div>
`)

	b.WriteString(`<div id="movies" class="tab-content active">
<h2>Movies</h2>
<div class="media-grid">
`)
	for _, e := range movies {
		writeCard(&b, e, movieSubtitle(e))
	}
	b.WriteString("</div>\n</div>\n")

	b.WriteString(`<div id="tvshows" class="tab-content">
<h2>Series</h2>
`)
	writeSeriesSections(&b, episodes)
	b.WriteString("</div>\n")

	b.WriteString(pageScript)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// sortEpisodes orders by series title, then season, then episode, so each
// series renders as one contiguous block.
func sortEpisodes(episodes []catalog.CatalogEntry) {
	sort.SliceStable(episodes, func(i, j int) bool {
		a, z := episodes[i], episodes[j]
		if a.DisplayTitle() != z.DisplayTitle() {
			return a.DisplayTitle() < z.DisplayTitle()
		}
		if a.Identity.Season != z.Identity.Season {
			return a.Identity.Season < z.Identity.Season
		}
		return a.Identity.Episode < z.Identity.Episode
	})
}

func writeSeriesSections(b *strings.Builder, episodes []catalog.CatalogEntry) {
	for i := 0; i < len(episodes); {
		title := episodes[i].DisplayTitle()
		fmt.Fprintf(b, "<h3>%s</h3>\n<div class=\"media-grid\">\n", html.EscapeString(title))
		for ; i < len(episodes) && episodes[i].DisplayTitle() == title; i++ {
			e := episodes[i]
			writeCard(b, e, fmt.Sprintf("S%02dE%02d", e.Identity.Season, e.Identity.Episode))
		}
		b.WriteString("</div>\n")
	}
}

func writeCard(b *strings.Builder, e catalog.CatalogEntry, subtitle string) {
	title := html.EscapeString(e.DisplayTitle())

	b.WriteString(`<div class="media-card">` + "\n")
	if e.PosterPath != "" {
		fmt.Fprintf(b, `<img class="poster" src="%s" alt="%s">`+"\n", html.EscapeString(relHref(e.PosterPath)), title)
	} else {
		b.WriteString(`<div class="poster placeholder">No poster</div>` + "\n")
	}

	b.WriteString(`<div class="media-info">` + "\n")
	fmt.Fprintf(b, `<div class="media-title">%s</div>`+"\n", title)
	if subtitle != "" {
		fmt.Fprintf(b, `<div class="media-year">%s</div>`+"\n", html.EscapeString(subtitle))
	}
	if e.Record != nil {
		if e.Record.Rating > 0 {
			fmt.Fprintf(b, `<div class="media-rating">&#9733; %.1f/10</div>`+"\n", e.Record.Rating)
		}
		if len(e.Record.Genres) > 0 {
			genres := e.Record.Genres
			if len(genres) > 3 {
				genres = genres[:3]
			}
			fmt.Fprintf(b, `<div class="media-genres">%s</div>`+"\n", html.EscapeString(strings.Join(genres, ", ")))
		}
		if e.Record.Overview != "" {
			fmt.Fprintf(b, `<div class="media-overview">%s</div>`+"\n", html.EscapeString(e.Record.Overview))
		}
	}
	if e.Path != "" {
		fmt.Fprintf(b, `<a href="%s" class="media-play">Watch</a>`+"\n", html.EscapeString(relHref(e.Path)))
	}
	b.WriteString("</div>\n</div>\n")
}

func movieSubtitle(e catalog.CatalogEntry) string {
	if e.Record != nil && e.Record.Year != "" {
		return e.Record.Year
	}
	if e.Identity.Year > 0 {
		return fmt.Sprintf("%d", e.Identity.Year)
	}
	return ""
}

// relHref percent-encodes each segment of a slash-relative path so names
// with spaces survive as hrefs.
func relHref(p string) string {
	segments := strings.Split(strings.ReplaceAll(p, "\\", "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

const pageHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Media Collection</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
h1, h2, h3 { color: #333; }
.media-grid { display: flex; flex-wrap: wrap; gap: 20px; }
.media-card { width: 200px; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 8px rgba(0,0,0,0.1); }
.poster { width: 100%; height: 300px; object-fit: cover; }
.placeholder { background: #ddd; display: flex; align-items: center; justify-content: center; color: #777; }
.media-info { padding: 10px; }
.media-title { font-weight: bold; font-size: 16px; margin-bottom: 5px; }
.media-year { color: #666; margin-bottom: 5px; }
.media-rating { color: #ff9900; margin-bottom: 5px; }
.media-genres { font-size: 12px; color: #333; }
.media-overview { font-size: 12px; color: #555; margin-top: 5px; max-height: 60px; overflow: hidden; }
.media-play { display: block; background: #4CAF50; color: white; text-align: center; padding: 8px; text-decoration: none; margin-top: 10px; border-radius: 4px; }
.tabs { margin-bottom: 20px; }
.tab-button { background: #ddd; border: none; padding: 10px 20px; cursor: pointer; border-radius: 4px 4px 0 0; }
.tab-button.active { background: #fff; }
.tab-content { display: none; padding: 20px; background: white; border-radius: 0 4px 4px 4px; }
.tab-content.active { display: block; }
</style>
</head>
<body>
`

const pageScript = `<script>
function openTab(evt, tabName) {
  var i, tabContent, tabButtons;
  tabContent = document.getElementsByClassName("tab-content");
  for (i = 0; i < tabContent.length; i++) {
    tabContent[i].className = tabContent[i].className.replace(" active", "");
  }
  tabButtons = document.getElementsByClassName("tab-button");
  for (i = 0; i < tabButtons.length; i++) {
    tabButtons[i].className = tabButtons[i].className.replace(" active", "");
  }
  document.getElementById(tabName).className += " active";
  evt.currentTarget.className += " active";
}
</script>
`
