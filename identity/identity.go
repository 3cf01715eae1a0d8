package identity

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the two media variants. The values match the TMDB
// endpoint names so they can be persisted as-is.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "tv"
)

// MediaIdentity is what a filename resolves to: either a movie with an
// optional release year, or a single episode of a series. Immutable once
// produced by Parse.
type MediaIdentity struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Year    int    `json:"year,omitempty"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
}

// ErrUnrecognized is returned when a filename matches neither the episode
// nor the movie pattern, or the extracted title normalizes to nothing.
var ErrUnrecognized = errors.New("unrecognized media filename")

var (
	episodeRegex   = regexp.MustCompile(`(?i)^(.*?)[\s._-]*S(\d{1,2})[\s._-]?E(\d{1,3})`)
	parenYearRegex = regexp.MustCompile(`^(.*?)\((\d{4})\)`)
	yearTokenRegex = regexp.MustCompile(`^\d{4}$`)
)

// The Lumière brothers screened their first film in 1895; anything claiming
// to predate 1888 (Roundhay Garden Scene) is a false positive.
const earliestYear = 1888

// Parse extracts a MediaIdentity from a bare filename (with or without
// extension). The episode pattern is tried before the movie-year pattern so
// that a series whose name contains a 4-digit number is not misread as a
// movie. Parse never touches the filesystem.
func Parse(filename string) (MediaIdentity, error) {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	if m := episodeRegex.FindStringSubmatch(name); m != nil {
		title := normalizeTitle(m[1])
		if title == "" {
			return MediaIdentity{}, ErrUnrecognized
		}
		season, _ := strconv.Atoi(m[2])
		episode, _ := strconv.Atoi(m[3])
		if season < 1 || episode < 1 {
			return MediaIdentity{}, ErrUnrecognized
		}
		return MediaIdentity{
			Kind:    KindEpisode,
			Title:   title,
			Season:  season,
			Episode: episode,
		}, nil
	}

	if m := parenYearRegex.FindStringSubmatch(name); m != nil {
		title := normalizeTitle(m[1])
		year, _ := strconv.Atoi(m[2])
		if title != "" && plausibleYear(year) {
			return MediaIdentity{Kind: KindMovie, Title: title, Year: year}, nil
		}
	}

	// Bare year token somewhere in the separator-normalized name, e.g.
	// "Some.Movie.2020.1080p". The last plausible token wins so titles
	// that contain a number ("2001 A Space Odyssey 1968") survive.
	normalized := normalizeTitle(name)
	tokens := strings.Fields(normalized)
	for i := len(tokens) - 1; i > 0; i-- {
		if !yearTokenRegex.MatchString(tokens[i]) {
			continue
		}
		year, _ := strconv.Atoi(tokens[i])
		if !plausibleYear(year) {
			continue
		}
		title := strings.Join(tokens[:i], " ")
		if title == "" {
			break
		}
		return MediaIdentity{Kind: KindMovie, Title: title, Year: year}, nil
	}

	return MediaIdentity{}, ErrUnrecognized
}

// Key derives the stable cache key for an identity. Incidental filename
// formatting (case, separators) is already gone by the time Parse returns,
// so equal identities always produce equal keys across runs. The result is
// filesystem-safe because it doubles as the poster file stem.
func (id MediaIdentity) Key() string {
	slug := slugify(id.Title)
	if id.Kind == KindEpisode {
		return fmt.Sprintf("tv-%s-s%02de%02d", slug, id.Season, id.Episode)
	}
	if id.Year > 0 {
		return fmt.Sprintf("movie-%s-%d", slug, id.Year)
	}
	return "movie-" + slug
}

// Label is the human-readable form used in logs and as a display fallback
// when no remote metadata is available.
func (id MediaIdentity) Label() string {
	if id.Kind == KindEpisode {
		return fmt.Sprintf("%s S%02dE%02d", id.Title, id.Season, id.Episode)
	}
	if id.Year > 0 {
		return fmt.Sprintf("%s (%d)", id.Title, id.Year)
	}
	return id.Title
}

func plausibleYear(year int) bool {
	return year >= earliestYear && year <= time.Now().Year()+1
}

func normalizeTitle(s string) string {
	s = strings.NewReplacer(".", " ", "_", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, "- ")
	return s
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
