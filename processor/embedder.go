package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	ffmpeg_go "github.com/u2takey/ffmpeg-go"

	"github.com/mafhper/arrumaessevideo/catalog"
)

const DefaultEmbedTimeout = 5 * time.Minute

// embedMarkerPrefix is written into the container-level comment tag as
// "tmdb:<id>". Its presence with a matching id is the probe signal that a
// file was already tagged, so repeated runs remux nothing.
const embedMarkerPrefix = "tmdb:"

type EmbedderConfig struct {
	// FFmpegPath overrides ffmpeg discovery; empty means look it up on PATH.
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	// Timeout bounds a single remux invocation.
	Timeout time.Duration
}

// Embedder writes metadata fields (and the poster as attached cover art)
// into a media file's container by invoking ffmpeg.
type Embedder struct {
	ffmpegPath string
	timeout    time.Duration
}

// NewEmbedder creates an Embedder, locating ffmpeg via the config or PATH.
// A missing binary is a setup error: the caller must fail before any file
// is processed.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		found, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found on PATH (use --ffmpeg-path): %w", err)
		}
		ffmpegPath = found
	} else if _, err := os.Stat(ffmpegPath); err != nil {
		return nil, fmt.Errorf("ffmpeg not found at %s: %w", ffmpegPath, err)
	}

	timeout := DefaultEmbedTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	return &Embedder{ffmpegPath: ffmpegPath, timeout: timeout}, nil
}

// Embed tags filePath with the entry's metadata. The remux writes to a
// hidden temporary file in the same directory and only replaces the
// original on success, so a failed invocation leaves the file untouched.
// posterPath may be empty; when set, the image is attached as cover art.
func (e *Embedder) Embed(ctx context.Context, filePath string, entry catalog.Entry, posterPath string) (catalog.EmbedStatus, error) {
	if entry.Record == nil {
		return catalog.EmbedStatusSkipped, nil
	}

	tagged, err := e.alreadyTagged(filePath, entry.Record.ID)
	if err != nil {
		log.Debug().Err(err).Str("path", filePath).Msg("probe failed, embedding anyway")
	}
	if tagged {
		return catalog.EmbedStatusSkipped, nil
	}

	if posterPath != "" {
		if _, err := os.Stat(posterPath); err != nil {
			posterPath = ""
		}
	}

	tmpPath := filepath.Join(filepath.Dir(filePath), ".embed."+filepath.Base(filePath))
	args := embedArgs(filePath, posterPath, tmpPath, entry.Record)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmpPath)
		return catalog.EmbedStatusFailed, fmt.Errorf("ffmpeg failed: %v, output: %s", err, tail(string(output)))
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return catalog.EmbedStatusFailed, fmt.Errorf("replacing original file: %w", err)
	}
	return catalog.EmbedStatusEmbedded, nil
}

// alreadyTagged probes the container tags and checks the embed marker.
func (e *Embedder) alreadyTagged(filePath string, tmdbID int) (bool, error) {
	probeStr, err := ffmpeg_go.Probe(filePath)
	if err != nil {
		return false, err
	}
	return probeHasMarker(probeStr, tmdbID)
}

// probeHasMarker parses ffprobe JSON output and reports whether the
// container comment tag carries the marker for tmdbID. Tag keys are matched
// case-insensitively because matroska uppercases them.
func probeHasMarker(probeJSON string, tmdbID int) (bool, error) {
	var probe struct {
		Format struct {
			Tags map[string]string `json:"tags"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(probeJSON), &probe); err != nil {
		return false, fmt.Errorf("unmarshalling ffprobe output: %w", err)
	}

	for key, value := range probe.Format.Tags {
		if strings.EqualFold(key, "comment") {
			return value == embedMarkerPrefix+strconv.Itoa(tmdbID), nil
		}
	}
	return false, nil
}

// embedArgs builds the full ffmpeg argument list for one remux. Streams are
// copied, never transcoded; the poster, when present, rides along as a
// second input with the attached_pic disposition.
func embedArgs(filePath, posterPath, tmpPath string, rec *catalog.MetadataRecord) []string {
	args := []string{"-i", filePath}
	if posterPath != "" {
		args = append(args,
			"-i", posterPath,
			"-map", "0", "-map", "1",
			"-c", "copy",
			"-disposition:v:1", "attached_pic",
		)
	} else {
		args = append(args, "-c", "copy")
	}

	meta := func(key, value string) {
		args = append(args, "-metadata", key+"="+value)
	}
	meta("title", rec.Title)
	meta("date", rec.Year)
	meta("description", rec.Overview)
	meta("genre", strings.Join(rec.Genres, ", "))
	meta("rating", strconv.FormatFloat(rec.Rating, 'f', -1, 64))
	if len(rec.Directors) > 0 {
		meta("director", strings.Join(rec.Directors, ", "))
	}
	if len(rec.Cast) > 0 {
		meta("artist", strings.Join(rec.Cast, ", "))
	}
	meta("comment", embedMarkerPrefix+strconv.Itoa(rec.ID))

	return append(args, "-y", tmpPath)
}

// tail keeps error output readable: ffmpeg is chatty and only the last
// lines say what went wrong.
func tail(s string) string {
	const max = 500
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
