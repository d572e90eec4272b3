package repositories

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"catalog-pipeline/domain"
)

type ImageFetcher interface {
	Download(url string) ([]byte, string, error)
}

type HTTPImageFetcher struct {
	client *http.Client
}

func NewImageFetcher() *HTTPImageFetcher {
	return &HTTPImageFetcher{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Download fetches a remote image and returns its bytes and content type.
// Non-2xx responses fail without retry; the caller decides whether to skip
// the record.
func (f *HTTPImageFetcher) Download(url string) ([]byte, string, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %v: %w", url, err, domain.ErrFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("download %s: status %d: %w", url, resp.StatusCode, domain.ErrFetch)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: read body: %v: %w", url, err, domain.ErrFetch)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
