package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxDownloadSize caps ReadAllFromURL so that a page which streams forever can't exhaust memory.
const MaxDownloadSize = 32 << 20

var ErrDownloadTooLarge = errors.New("download too large")

var downloadClient = &http.Client{Timeout: time.Minute}

// ReadAllFromURL reads all content from the URL.
func ReadAllFromURL(ctx context.Context, url string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := downloadClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, res.StatusCode)
	}
	content, err := io.ReadAll(io.LimitReader(res.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(content) > MaxDownloadSize {
		return nil, ErrDownloadTooLarge
	}
	return content, nil
}
