package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/iquiquesec/ciberseguridad/internal/api"
	"github.com/iquiquesec/ciberseguridad/internal/features"
)

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
	featuresPath   = "/api/v1/features"
)

// ErrUnknownFeature is returned by Set for keys the store does not define.
var ErrUnknownFeature = errors.New("unknown feature")

// FlagClient reads and updates feature flags either on disk or through a server.
type FlagClient interface {
	List(ctx context.Context) (features.Set, error)
	Set(ctx context.Context, key string, enabled bool) error
}

type fileClient struct {
	store *features.Store
}

func NewFileClient(store *features.Store) FlagClient {
	return &fileClient{store: store}
}

func (f *fileClient) List(ctx context.Context) (features.Set, error) {
	return f.store.GetAll(ctx), nil
}

func (f *fileClient) Set(ctx context.Context, key string, enabled bool) error {
	ok, err := f.store.Set(ctx, key, enabled)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, key)
	}
	return nil
}

type httpClient struct {
	baseURL string
	token   string
	client  *retryablehttp.Client
}

// NewHTTPClient talks to a running server. token is sent as a bearer token
// when non-empty.
func NewHTTPClient(baseURL, token string) FlagClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = defaultTimeout
	retryClient.RetryMax = maxRetries
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	retryClient.Logger = nil
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  retryClient,
	}
}

func (h *httpClient) List(ctx context.Context) (features.Set, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+featuresPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fail to create request, err: %w", err)
	}
	body, err := h.do(req)
	if err != nil {
		return nil, err
	}

	var resp api.FeaturesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode features: %w", err)
	}
	set := make(features.Set, len(resp.Features))
	for key, f := range resp.Features {
		set[key] = features.Flag{Key: key, Name: f.Name, Enabled: f.Enabled}
	}
	return set, nil
}

func (h *httpClient) Set(ctx context.Context, key string, enabled bool) error {
	payload, err := json.Marshal(map[string]bool{"enabled": enabled})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, h.baseURL+featuresPath+"/"+url.PathEscape(key), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("fail to create request, err: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if _, err := h.do(req); err != nil {
		if errors.Is(err, errNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownFeature, key)
		}
		return err
	}
	return nil
}

var errNotFound = errors.New("not found")

func (h *httpClient) do(req *retryablehttp.Request) ([]byte, error) {
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, errorDetail(body))
	}
	return body, nil
}

// errorDetail extracts the message from either error body the server sends.
func errorDetail(body []byte) string {
	var detail api.DetailResponse
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return detail.Detail
	}
	var envelope api.APIResponse[json.RawMessage]
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(body))
}
