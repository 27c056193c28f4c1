package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetMarket fetches one market with its outcomes.
func (c *Client) GetMarket(ctx context.Context, id string) (*MarketWire, error) {
	var resp MarketResponse
	if err := c.readSnapshot(ctx, "/markets/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get market %s: %w", id, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("get market %s: %w", id, ErrNotFound)
	}
	return resp.Data, nil
}
