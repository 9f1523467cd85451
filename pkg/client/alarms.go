package client

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"

	"github.com/awcwater/field-asset-mgmt/internal/pkg/application/stationview"
	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

// AlarmFilter narrows an alarm listing. Zero values mean no constraint.
type AlarmFilter struct {
	StationID string
	Severity  string
	Page      int
	Size      int
}

// ListAlarms fetches one page of alarms, most urgent severities first.
// Severity is free text on the wire; ordering uses the shared severity
// ranking so unknown values sort last instead of failing.
func (c *Client) ListAlarms(ctx context.Context, filter AlarmFilter) (types.Page[types.Alarm], error) {
	var err error
	ctx, span := tracer.Start(ctx, "list-alarms")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	query := url.Values{}
	query.Set("page", strconv.Itoa(filter.Page))
	if filter.Size > 0 {
		query.Set("size", strconv.Itoa(filter.Size))
	}
	if filter.StationID != "" {
		query.Set("stationId", filter.StationID)
	}
	if filter.Severity != "" {
		query.Set("severity", filter.Severity)
	}

	var result types.Page[types.Alarm]

	body, err := c.get(ctx, "/api/v1/alarms?"+query.Encode())
	if err != nil {
		return result, err
	}

	envelope, err := decodeAs[pageEnvelope](body)
	if err != nil {
		return result, err
	}

	alarms := make([]types.Alarm, 0, len(envelope.Content))
	for _, raw := range envelope.Content {
		alarm, mapErr := stationview.MapAlarm(ctx, raw)
		if mapErr != nil {
			err = mapErr
			return result, err
		}
		alarms = append(alarms, alarm)
	}

	sort.SliceStable(alarms, func(i, j int) bool {
		return types.SeverityRank(alarms[i].Severity) < types.SeverityRank(alarms[j].Severity)
	})

	result = types.Page[types.Alarm]{
		Content:       alarms,
		TotalPages:    envelope.TotalPages,
		TotalElements: envelope.TotalElements,
		Number:        envelope.Number,
		Size:          envelope.Size,
		First:         envelope.First,
		Last:          envelope.Last,
	}

	return result, nil
}

// AckAlarm marks an alarm as acknowledged by the current operator.
func (c *Client) AckAlarm(ctx context.Context, alarmID string) (types.Alarm, error) {
	var err error
	ctx, span := tracer.Start(ctx, "ack-alarm")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body, err := c.do(ctx, http.MethodPost, "/api/v1/alarms/"+url.PathEscape(alarmID)+"/ack", nil)
	if err != nil {
		return types.Alarm{}, err
	}

	raw, err := decodeAs[map[string]any](body)
	if err != nil {
		return types.Alarm{}, err
	}

	return stationview.MapAlarm(ctx, raw)
}
