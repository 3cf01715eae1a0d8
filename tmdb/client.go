package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mafhper/arrumaessevideo/catalog"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	DefaultLanguage     = "pt-BR"
	DefaultTimeout      = 15 * time.Second

	maxCastNames = 5
)

// ErrNotFound means the search completed but the catalog has no match for
// the query. Distinct from TransientError so callers can tell "this title
// does not exist" from "the API was unreachable".
var ErrNotFound = errors.New("tmdb: no results")

// TransientError wraps network failures, non-success statuses and malformed
// responses. The orchestrator degrades the affected entry and moves on.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("tmdb: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

type ClientConfig struct {
	APIKey       string `mapstructure:"api_key"`
	Language     string `mapstructure:"language"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Timeout      time.Duration
}

// Client is a thin wrapper over the TMDB search, detail and image endpoints.
// It is only consulted on cache miss.
type Client struct {
	apiKey       string
	language     string
	baseURL      string
	imageBaseURL string
	http         *http.Client
}

// NewClient creates a Client, filling unset config fields with defaults.
func NewClient(cfg ClientConfig) *Client {
	language := DefaultLanguage
	baseURL := DefaultBaseURL
	imageBaseURL := DefaultImageBaseURL
	timeout := DefaultTimeout
	if cfg.Language != "" {
		language = cfg.Language
	}
	if cfg.BaseURL != "" {
		baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.ImageBaseURL != "" {
		imageBaseURL = strings.TrimSuffix(cfg.ImageBaseURL, "/")
	}
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	return &Client{
		apiKey:       cfg.APIKey,
		language:     language,
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		http:         &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Results []struct {
		ID int `json:"id"`
	} `json:"results"`
}

type detailResponse struct {
	ID             int     `json:"id"`
	Title          string  `json:"title"`
	Name           string  `json:"name"`
	OriginalTitle  string  `json:"original_title"`
	OriginalName   string  `json:"original_name"`
	Overview       string  `json:"overview"`
	PosterPath     string  `json:"poster_path"`
	ReleaseDate    string  `json:"release_date"`
	FirstAirDate   string  `json:"first_air_date"`
	VoteAverage    float64 `json:"vote_average"`
	Runtime        int     `json:"runtime"`
	EpisodeRunTime []int   `json:"episode_run_time"`
	Genres         []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Cast []struct {
			Name string `json:"name"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// SearchMovie resolves a movie title (and optional year, 0 for unknown) to a
// full metadata record. On an empty result set with a year, it retries once
// without the year; still empty, it retries once with a simplified query.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) (*catalog.MetadataRecord, error) {
	return c.search(ctx, "movie", title, year)
}

// SearchSeries resolves a series title to a full metadata record.
func (c *Client) SearchSeries(ctx context.Context, title string) (*catalog.MetadataRecord, error) {
	return c.search(ctx, "tv", title, 0)
}

func (c *Client) search(ctx context.Context, mediaType, title string, year int) (*catalog.MetadataRecord, error) {
	id, err := c.searchID(ctx, mediaType, title, year)
	if errors.Is(err, ErrNotFound) && year > 0 {
		log.Debug().Str("title", title).Msg("no results with year, retrying without")
		id, err = c.searchID(ctx, mediaType, title, 0)
	}
	if errors.Is(err, ErrNotFound) {
		if simplified := simplifyQuery(title); simplified != title {
			log.Debug().Str("title", title).Str("simplified", simplified).Msg("retrying with simplified query")
			id, err = c.searchID(ctx, mediaType, simplified, 0)
		}
	}
	if err != nil {
		return nil, err
	}

	return c.details(ctx, mediaType, id)
}

func (c *Client) searchID(ctx context.Context, mediaType, query string, year int) (int, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	params.Set("query", query)
	if year > 0 {
		if mediaType == "tv" {
			params.Set("first_air_date_year", strconv.Itoa(year))
		} else {
			params.Set("year", strconv.Itoa(year))
		}
	}

	var resp searchResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/search/%s?%s", c.baseURL, mediaType, params.Encode()), &resp); err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 {
		return 0, ErrNotFound
	}
	return resp.Results[0].ID, nil
}

func (c *Client) details(ctx context.Context, mediaType string, id int) (*catalog.MetadataRecord, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	params.Set("append_to_response", "credits")

	var resp detailResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s/%d?%s", c.baseURL, mediaType, id, params.Encode()), &resp); err != nil {
		return nil, err
	}
	return c.toRecord(mediaType, &resp), nil
}

func (c *Client) toRecord(mediaType string, d *detailResponse) *catalog.MetadataRecord {
	rec := &catalog.MetadataRecord{
		ID:          d.ID,
		Overview:    d.Overview,
		Rating:      d.VoteAverage,
		ReleaseDate: d.ReleaseDate,
	}

	rec.Title = d.Title
	rec.OriginalTitle = d.OriginalTitle
	if mediaType == "tv" {
		rec.Title = d.Name
		rec.OriginalTitle = d.OriginalName
		rec.ReleaseDate = d.FirstAirDate
	}

	if len(rec.ReleaseDate) >= 4 {
		rec.Year = rec.ReleaseDate[:4]
	}

	for _, g := range d.Genres {
		rec.Genres = append(rec.Genres, g.Name)
	}

	rec.RuntimeMin = d.Runtime
	if mediaType == "tv" && len(d.EpisodeRunTime) > 0 {
		rec.RuntimeMin = d.EpisodeRunTime[0]
	}

	for _, person := range d.Credits.Crew {
		if person.Job == "Director" || person.Job == "Creator" {
			rec.Directors = append(rec.Directors, person.Name)
		}
	}
	for i, actor := range d.Credits.Cast {
		if i == maxCastNames {
			break
		}
		rec.Cast = append(rec.Cast, actor.Name)
	}

	if d.PosterPath != "" {
		rec.PosterURL = c.imageBaseURL + d.PosterPath
	}
	return rec
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &TransientError{Op: "building request", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransientError{Op: "request", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransientError{Op: "decoding response", Err: err}
	}
	return nil
}

// simplifyQuery strips a leading article and all punctuation, the variant
// retried once when the literal title finds nothing.
func simplifyQuery(title string) string {
	fields := strings.Fields(title)
	if len(fields) > 1 {
		switch strings.ToLower(fields[0]) {
		case "the", "a", "an", "o", "os", "as", "um", "uma":
			fields = fields[1:]
		}
	}

	cleaned := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Map(func(r rune) rune {
			switch r {
			case '\'', ':', ',', '!', '?', '.', '-', '&':
				return -1
			}
			return r
		}, f)
		if f != "" {
			cleaned = append(cleaned, f)
		}
	}
	return strings.Join(cleaned, " ")
}
