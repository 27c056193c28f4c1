package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrNotFound is returned when the provider answers with an empty data field.
var ErrNotFound = errors.New("not found")

// GetEvents fetches a page of events.
func (c *Client) GetEvents(ctx context.Context, opts GetEventsOptions) (*EventsResponse, error) {
	query := url.Values{}

	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}
	if opts.CompetitionID != "" {
		query.Set("competition", opts.CompetitionID)
	}
	if opts.Live {
		query.Set("live", "true")
	}

	var resp EventsResponse
	if err := c.readSnapshot(ctx, "/events", query, &resp); err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}

	return &resp, nil
}

// GetAllEvents fetches every event of a competition by following cursors.
// Uses DefaultPaginationTimeout if the context has no deadline.
func (c *Client) GetAllEvents(ctx context.Context, competitionID string) ([]EventWire, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPaginationTimeout)
		defer cancel()
	}

	var all []EventWire
	opts := GetEventsOptions{Limit: c.pageSize, CompetitionID: competitionID}

	for {
		resp, err := c.GetEvents(ctx, opts)
		if err != nil {
			return nil, err
		}

		all = append(all, resp.Data...)

		if resp.Cursor == "" || resp.Cursor == opts.Cursor {
			break
		}
		opts.Cursor = resp.Cursor
	}

	return all, nil
}

// GetEvent fetches one event with all of its markets.
func (c *Client) GetEvent(ctx context.Context, id string) (*EventWire, error) {
	var resp EventResponse
	if err := c.readSnapshot(ctx, "/events/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("get event %s: %w", id, ErrNotFound)
	}
	return resp.Data, nil
}
