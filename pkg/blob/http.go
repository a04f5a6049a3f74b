package blob

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/absmach/fedrelay/pkg/errors"
)

type httpStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore returns a Store backed by a remote relay over HTTP.
// Keys map to paths under baseURL; GET retrieves a value, PUT writes one
// with headers forwarded verbatim.
func NewHTTPStore(baseURL string, tlsVerification bool) Store {
	client := http.DefaultClient
	if !tlsVerification {
		client = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		}
	}

	return &httpStore{
		baseURL: baseURL,
		client:  client,
	}
}

func (s *httpStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.ErrEmptyKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.keyURL(key), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s returned status %d", key, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (s *httpStore) Put(ctx context.Context, key string, value []byte, headers map[string]string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.keyURL(key), bytes.NewReader(value))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("write %s returned status %d", key, resp.StatusCode)
	}

	return nil
}

func (s *httpStore) keyURL(key string) string {
	return s.baseURL + "/" + url.PathEscape(key)
}
