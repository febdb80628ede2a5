package ml

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// DownloadModel fetches a model artifact over HTTP and writes it to dest.
// Used at startup when MODEL_URL is configured and no local artifact exists.
func DownloadModel(url, dest string, timeout time.Duration) error {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second)
	}

	log.Info().Str("url", url).Str("dest", dest).Msg("downloading model artifact")

	resp, err := r.R().Get(url)
	if err != nil {
		return fmt.Errorf("fetch model artifact: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("fetch model artifact: unexpected status %d", resp.StatusCode())
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create model directory: %w", err)
		}
	}
	if err := os.WriteFile(dest, resp.Body(), 0o600); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}

	log.Info().Int("bytes", len(resp.Body())).Msg("model artifact downloaded")
	return nil
}
