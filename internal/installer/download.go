package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/release"
)

// downloadFile fetches url into the open file out, following redirects.
func (in *Installer) downloadFile(ctx context.Context, url string, out *os.File) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	req.Header.Set("User-Agent", "zsmart-installer") // GitHub rejects requests without one

	// Release assets redirect to a CDN; the default client follows them
	resp, err := in.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrDownload, url, release.ClassifyNetworkError(err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Error("[ERROR] Failed to close response body: %s\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s returned HTTP %d", ErrDownload, url, resp.StatusCode)
	}

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrDownload, out.Name(), release.ClassifyNetworkError(err))
	}
	// Flush before extraction reopens the file by name
	if err := out.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	logger.Debug("[DEBUG] Downloaded %d bytes to %s\n", n, out.Name())
	return nil
}
