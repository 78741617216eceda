package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/exp/slog"

	"pharmsync/internal/app/client/config"
	"pharmsync/internal/domain/sync"
)

type httpClient struct {
	client    *http.Client
	config    *config.Config
	log       *slog.Logger
	baseURL   string
	apiKey    string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) (*httpClient, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}
	baseURL := scheme + cfg.ServerAddress

	return &httpClient{
		client:    client,
		config:    cfg,
		log:       log,
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		userAgent: "PharmSync-Client/1.0",
	}, nil
}

func (h *httpClient) SetAPIKey(key string) {
	h.apiKey = key
}

func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status: %d", resp.StatusCode)
	}
	return nil
}

// RunSync triggers a server-coordinated run.
func (h *httpClient) RunSync(ctx context.Context, req sync.SyncRequest) (*sync.SyncResponse, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/sync", req)
	if err != nil {
		return nil, err
	}

	var result sync.SyncResponse
	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Upload ships one batch of local records.
func (h *httpClient) Upload(ctx context.Context, payload sync.UploadPayload) (*sync.UploadResponse, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/sync/upload", payload)
	if err != nil {
		return nil, err
	}

	var result sync.UploadResponse
	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetChanges pulls one page of server-side changes.
func (h *httpClient) GetChanges(ctx context.Context, entityType string, since *time.Time, limit int) (*sync.ChangesResponse, error) {
	path := "/api/sync/changes/" + entityType
	q := url.Values{}
	if since != nil {
		q.Set("since", since.Format(time.RFC3339Nano))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := h.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result sync.ChangesResponse
	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetStatus fetches the server-side sync dashboard.
func (h *httpClient) GetStatus(ctx context.Context) (*sync.StatusResponse, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/sync/status", nil)
	if err != nil {
		return nil, err
	}

	var result sync.StatusResponse
	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetLogs fetches past sessions, most recent first.
func (h *httpClient) GetLogs(ctx context.Context, limit int) ([]sync.Session, error) {
	path := "/api/sync/logs"
	if limit > 0 {
		path += "?limit=" + fmt.Sprint(limit)
	}

	resp, err := h.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Sessions []sync.Session `json:"sessions"`
	}
	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.apiKey != "" {
		req.Header.Set("X-Api-Key", h.apiKey)
	}

	h.log.Debug("sending request", "method", method, "url", req.URL.String())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	h.log.Debug("received response", "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("server error: %s", errResp.Detail)
		}
		return fmt.Errorf("server error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
