// Package stationview reconciles the backend's historical field-naming
// variants into the one canonical station shape the rest of the module
// consumes. Payloads pass through two stages: a pure alias-resolving
// normalization, then validation against a declared schema. Only payloads
// that survive both become application state.
package stationview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"

	"github.com/awcwater/field-asset-mgmt/internal/pkg/application/maplinks"
	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

// aliases maps each canonical attribute to its accepted source field names
// in priority order. The first name present with a non-null value wins.
// The same table serves every station payload shape: detail, create and
// update responses.
var aliases = map[string][]string{
	"addressLine1": {"addressLine1", "address"},

	"latitude":  {"latitude", "lat"},
	"longitude": {"longitude", "lng", "long"},

	"googleMaps":       {"googleMaps", "googleMapUrl", "googleMapsUrl"},
	"googleDirections": {"googleDirections", "googleDirectionsUrl"},

	"appleMapsPin":        {"appleMapsPin", "appleMaps"},
	"appleMapsDirections": {"appleMapsDirections", "appleDirections"},

	"androidGeoUri": {"androidGeoUri", "geo"},
}

// linkFields are the canonical names the server may supply links under.
// Any one of them being non-null makes the server authoritative and
// suppresses client-side link derivation.
var linkFields = []string{
	"googleMaps", "googleDirections", "appleMapsPin", "appleMapsDirections", "androidGeoUri",
}

// Normalize resolves field aliases in a raw JSON-decoded payload and
// returns a new mapping holding only canonical names. For every canonical
// attribute the first alias present with a non-null value wins; if aliases
// are present but all null, the canonical key stays present with a null
// value; if no alias is present at all, the key is absent. The distinction
// matters to validation, which treats absent and null differently.
func Normalize(raw map[string]any) map[string]any {
	aliased := make(map[string]bool)
	for _, names := range aliases {
		for _, n := range names {
			aliased[n] = true
		}
	}

	norm := make(map[string]any, len(raw))
	for k, v := range raw {
		if !aliased[k] {
			norm[k] = v
		}
	}

	for canonical, names := range aliases {
		anyPresent := false
		resolved := false

		for _, n := range names {
			v, ok := raw[n]
			if !ok {
				continue
			}
			anyPresent = true
			if v != nil {
				norm[canonical] = v
				resolved = true
				break
			}
		}

		if anyPresent && !resolved {
			norm[canonical] = nil
		}
	}

	return norm
}

// Validate checks an already-normalized station payload against the
// declared station schema, returning a *ShapeMismatchError listing every
// violation when it does not conform.
func Validate(norm map[string]any) error {
	return validate(norm, stationSchema)
}

// Map runs a raw station payload through normalization and validation and
// produces the canonical station. Navigation links are derived from the
// coordinates only when the server supplied none of them. Validation
// failures are logged with the offending payload and returned unchanged,
// never coerced.
func Map(ctx context.Context, raw map[string]any) (types.Station, error) {
	norm := Normalize(raw)
	coerceID(norm, "id")

	if err := Validate(norm); err != nil {
		logValidationFailure(ctx, "station", err)
		return types.Station{}, err
	}

	station, err := decodeAs[types.Station](norm)
	if err != nil {
		return types.Station{}, fmt.Errorf("failed to decode normalized station: %w", err)
	}

	if linksSupplied(norm) {
		return station, nil
	}

	if station.Latitude != nil && station.Longitude != nil {
		station.MapLinks = maplinks.Build(station.Name, *station.Latitude, *station.Longitude)
	}

	return station, nil
}

// MapSummary validates a station list row. List rows are never
// alias-normalized: a summary's address is a display string in its own
// right, not another name for addressLine1. Summaries carry no links
// either, so no derivation happens here.
func MapSummary(ctx context.Context, raw map[string]any) (types.StationSummary, error) {
	norm := make(map[string]any, len(raw))
	for k, v := range raw {
		norm[k] = v
	}
	coerceID(norm, "id")

	if err := validate(norm, summarySchema); err != nil {
		logValidationFailure(ctx, "station summary", err)
		return types.StationSummary{}, err
	}

	return decodeAs[types.StationSummary](norm)
}

// MapAlarm validates an alarm payload against the alarm schema. Severity is
// an open set: the well-known values are ranked for display, anything else
// passes through as free text.
func MapAlarm(ctx context.Context, raw map[string]any) (types.Alarm, error) {
	norm := Normalize(raw)
	coerceID(norm, "id", "stationId")

	if err := validate(norm, alarmSchema); err != nil {
		logValidationFailure(ctx, "alarm", err)
		return types.Alarm{}, err
	}

	return decodeAs[types.Alarm](norm)
}

func linksSupplied(norm map[string]any) bool {
	for _, f := range linkFields {
		if v, ok := norm[f]; ok && v != nil {
			return true
		}
	}
	return false
}

func logValidationFailure(ctx context.Context, shape string, err error) {
	log := logging.GetFromContext(ctx)

	payload := ""
	var mismatch *ShapeMismatchError
	if errors.As(err, &mismatch) {
		if b, merr := json.Marshal(mismatch.Payload); merr == nil {
			payload = string(b)
		}
	}

	log.Error().Err(err).Str("payload", payload).Msgf("%s payload failed schema validation", shape)
}

// decodeAs moves a validated mapping into its typed shape via a JSON
// round-trip, so struct tags stay the single source of field naming.
func decodeAs[T any](v any) (T, error) {
	to := new(T)

	b, err := json.Marshal(v)
	if err != nil {
		return *to, err
	}

	err = json.Unmarshal(b, to)
	if err != nil {
		return *to, err
	}

	return *to, nil
}
