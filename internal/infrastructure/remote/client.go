package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
	"pharmsync/internal/domain/sync"
)

// Client talks to the central store over its sync API. It implements
// sync.RemoteFetcher; deadlines come from the caller's context.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     *slog.Logger
}

func NewClient(baseURL, apiKey string, log *slog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log.With("component", "remote_client"),
	}
}

func (c *Client) Fetch(ctx context.Context, tenantID int64, t entity.Type, since *time.Time) ([]entity.Record, error) {
	var all []entity.Record
	cursor := since
	for {
		page, err := c.fetchPage(ctx, t, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if !page.HasMore || len(page.Records) == 0 {
			return all, nil
		}
		last := page.Records[len(page.Records)-1].UpdatedAt()
		cursor = &last
	}
}

func (c *Client) fetchPage(ctx context.Context, t entity.Type, since *time.Time) (*sync.ChangesResponse, error) {
	u := fmt.Sprintf("%s/api/sync/changes/%s", c.baseURL, t)
	if since != nil {
		u += "?since=" + url.QueryEscape(since.Format(time.RFC3339Nano))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create changes request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch changes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch changes: server returned status %d", resp.StatusCode)
	}

	var result sync.ChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode changes response: %w", err)
	}
	return &result, nil
}

func (c *Client) Push(ctx context.Context, tenantID int64, t entity.Type, records []entity.Record) (int, error) {
	payload := sync.UploadPayload{
		EntityType: string(t),
		Items:      records,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal upload payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/sync/upload", bytes.NewBuffer(body))
	if err != nil {
		return 0, fmt.Errorf("create upload request: %w", err)
	}
	c.setHeaders(req)

	c.log.Debug("pushing change set", "entity_type", t, "count", len(records))

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("push changes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("push changes: server returned status %d", resp.StatusCode)
	}

	var result sync.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode upload response: %w", err)
	}
	return result.Processed, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}
