package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// DownloadPoster fetches the image at posterURL and writes it to destPath.
// If destPath already exists the download is skipped, so repeated runs never
// re-fetch artwork. The write goes through a temporary file and a rename so
// an interrupted download cannot leave a truncated poster behind.
func (c *Client) DownloadPoster(ctx context.Context, posterURL, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, posterURL, nil)
	if err != nil {
		return &TransientError{Op: "building poster request", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: "downloading poster", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransientError{Op: "downloading poster", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating poster directory: %w", err)
	}

	tmp := destPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating poster file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return &TransientError{Op: "writing poster", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing poster file: %w", err)
	}
	return os.Rename(tmp, destPath)
}
