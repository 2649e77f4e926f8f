package orclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elee1766/gem/src/aisdk"
)

var _ aisdk.KeyTester = (*Client)(nil)

// KeyInfo describes the credential as reported by /key.
type KeyInfo struct {
	Label      string   `json:"label"`
	Usage      float64  `json:"usage"`
	Limit      *float64 `json:"limit"`
	IsFreeTier bool     `json:"is_free_tier"`
}

// GetKeyInfo returns details about the client's API key.
func (c *Client) GetKeyInfo(ctx context.Context) (*KeyInfo, error) {
	resp, err := c.doRequestWithRetry(ctx, c.httpClient, http.MethodGet, "/key", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Data KeyInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode key info: %w", err)
	}
	return &out.Data, nil
}

// TestKey checks key against the /key endpoint without touching the
// client's configured credential.
func (c *Client) TestKey(ctx context.Context, key string) error {
	cfg := c.config
	cfg.APIKey = key
	cfg.RetryCount = 1
	probe := NewClient(cfg)
	probe.limiter = c.limiter
	_, err := probe.GetKeyInfo(ctx)
	return err
}
