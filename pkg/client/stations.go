package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"

	"github.com/awcwater/field-asset-mgmt/internal/pkg/application/stationview"
	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

type pageEnvelope struct {
	Content       []map[string]any `json:"content"`
	TotalPages    int              `json:"totalPages"`
	TotalElements int64            `json:"totalElements"`
	Number        int              `json:"number"`
	Size          int              `json:"size"`
	First         bool             `json:"first"`
	Last          bool             `json:"last"`
}

// ListStations fetches one page of station summaries. Each raw payload
// passes through the view model mapper, so alias variants and numeric ids
// coming from older backends are already canonical in the result.
func (c *Client) ListStations(ctx context.Context, filter string, page, size int) (types.Page[types.StationSummary], error) {
	var err error
	ctx, span := tracer.Start(ctx, "list-stations")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	if filter != "" {
		query.Set("filter", filter)
	}

	var result types.Page[types.StationSummary]

	body, err := c.get(ctx, "/api/v1/stations?"+query.Encode())
	if err != nil {
		return result, err
	}

	envelope, err := decodeAs[pageEnvelope](body)
	if err != nil {
		return result, err
	}

	summaries := make([]types.StationSummary, 0, len(envelope.Content))
	for _, raw := range envelope.Content {
		summary, mapErr := stationview.MapSummary(ctx, raw)
		if mapErr != nil {
			err = mapErr
			return result, err
		}
		summaries = append(summaries, summary)
	}

	result = types.Page[types.StationSummary]{
		Content:       summaries,
		TotalPages:    envelope.TotalPages,
		TotalElements: envelope.TotalElements,
		Number:        envelope.Number,
		Size:          envelope.Size,
		First:         envelope.First,
		Last:          envelope.Last,
	}

	return result, nil
}

func (c *Client) GetStation(ctx context.Context, stationID string) (types.Station, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-station")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body, err := c.get(ctx, "/api/v1/stations/"+url.PathEscape(stationID))
	if err != nil {
		return types.Station{}, err
	}

	return c.mapStation(ctx, body)
}

func (c *Client) CreateStation(ctx context.Context, station types.Station) (types.Station, error) {
	var err error
	ctx, span := tracer.Start(ctx, "create-station")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body, err := c.do(ctx, http.MethodPost, "/api/v1/stations", station)
	if err != nil {
		return types.Station{}, err
	}

	return c.mapStation(ctx, body)
}

func (c *Client) UpdateStation(ctx context.Context, station types.Station) (types.Station, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-station")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body, err := c.do(ctx, http.MethodPut, "/api/v1/stations/"+url.PathEscape(station.ID), station)
	if err != nil {
		return types.Station{}, err
	}

	return c.mapStation(ctx, body)
}

func (c *Client) DeleteStation(ctx context.Context, stationID string) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-station")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, err = c.do(ctx, http.MethodDelete, "/api/v1/stations/"+url.PathEscape(stationID), nil)
	return err
}

func (c *Client) mapStation(ctx context.Context, body []byte) (types.Station, error) {
	var raw map[string]any

	err := json.Unmarshal(body, &raw)
	if err != nil {
		return types.Station{}, fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	return stationview.Map(ctx, raw)
}
