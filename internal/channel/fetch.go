package channel

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"stickerbot/internal/services"
)

// FetchURL downloads a platform media URL, enforcing maxBytes when positive.
// Every failure, including an empty body, is reported as a download error.
func FetchURL(ctx context.Context, client *http.Client, url string, maxBytes int64) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrDownload, "fetch", "build request", "", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrDownload, "fetch", "get", "", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, services.Wrap(services.ErrDownload, "fetch", "get", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, services.Wrap(services.ErrDownload, "fetch", "get", fmt.Sprintf("media exceeds %d bytes", maxBytes), nil)
	}
	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, services.Wrap(services.ErrDownload, "fetch", "read body", "", err)
	}
	if maxBytes > 0 && int64(len(payload)) > maxBytes {
		return nil, services.Wrap(services.ErrDownload, "fetch", "read body", fmt.Sprintf("media exceeds %d bytes", maxBytes), nil)
	}
	if len(payload) == 0 {
		return nil, services.Wrap(services.ErrDownload, "fetch", "read body", "empty media payload", nil)
	}
	return payload, nil
}
