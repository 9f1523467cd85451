package stationview

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

// FieldViolation describes one schema rule a payload broke.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ShapeMismatchError reports that a payload failed schema validation after
// alias resolution. It carries every field-level violation plus the
// offending (normalized) payload for diagnostics.
type ShapeMismatchError struct {
	Shape      string
	Violations []FieldViolation
	Payload    map[string]any
}

func (e *ShapeMismatchError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return fmt.Sprintf("%s payload shape mismatch: %s", e.Shape, strings.Join(parts, "; "))
}

type fieldSpec struct {
	required bool
	check    func(v any) string
}

type schema struct {
	shape  string
	fields map[string]fieldSpec
	cross  func(norm map[string]any) []FieldViolation
}

var stationSchema = schema{
	shape: "station",
	fields: map[string]fieldSpec{
		"id":   {required: true, check: isString},
		"code": {required: true, check: isString},
		"name": {required: true, check: isString},

		"addressLine1": {check: isString},
		"city":         {check: isString},
		"state":        {check: isString},
		"zip":          {check: isString},
		"serviceArea":  {check: isString},
		"notes":        {check: isString},

		"latitude":  {check: inRange(-90, 90)},
		"longitude": {check: inRange(-180, 180)},

		"commsType":      {check: isCommsType},
		"pumpsCount":     {check: isPositiveInteger},
		"wetWellDepthFt": {check: isPositiveNumber},

		"googleMaps":          {check: isString},
		"googleDirections":    {check: isString},
		"appleMapsPin":        {check: isString},
		"appleMapsDirections": {check: isString},
		"androidGeoUri":       {check: isString},
	},
	cross: coordinatesTogether,
}

var summarySchema = schema{
	shape: "station summary",
	fields: map[string]fieldSpec{
		"id":   {required: true, check: isString},
		"code": {required: true, check: isString},
		"name": {required: true, check: isString},

		"commsType":  {check: isCommsType},
		"pumpsCount": {check: isPositiveInteger},
		"latitude":   {check: inRange(-90, 90)},
		"longitude":  {check: inRange(-180, 180)},
		"address":    {check: isString},
	},
	cross: coordinatesTogether,
}

var alarmSchema = schema{
	shape: "alarm",
	fields: map[string]fieldSpec{
		"id": {required: true, check: isString},

		"stationId":   {check: isString},
		"stationCode": {check: isString},
		"stationName": {check: isString},

		// severity is an open set: well known values rank for display,
		// anything else is kept as free text
		"severity": {check: isString},
		"message":  {check: isString},

		"raisedAt":       {check: isString},
		"acknowledgedAt": {check: isString},
		"acknowledgedBy": {check: isString},
	},
}

// validate checks a normalized payload against a schema. Keys absent from
// the schema pass through untouched; required keys must be present and
// non-null; null optional keys are accepted. Nothing is coerced here.
func validate(norm map[string]any, s schema) error {
	violations := []FieldViolation{}

	for name, spec := range s.fields {
		v, ok := norm[name]
		if !ok {
			if spec.required {
				violations = append(violations, FieldViolation{Field: name, Message: "required field is missing"})
			}
			continue
		}
		if v == nil {
			if spec.required {
				violations = append(violations, FieldViolation{Field: name, Message: "required field is null"})
			}
			continue
		}
		if spec.check != nil {
			if msg := spec.check(v); msg != "" {
				violations = append(violations, FieldViolation{Field: name, Message: msg})
			}
		}
	}

	if s.cross != nil {
		violations = append(violations, s.cross(norm)...)
	}

	if len(violations) == 0 {
		return nil
	}

	sort.Slice(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })

	return &ShapeMismatchError{
		Shape:      s.shape,
		Violations: violations,
		Payload:    norm,
	}
}

// coordinatesTogether enforces the both-or-neither coordinate invariant.
func coordinatesTogether(norm map[string]any) []FieldViolation {
	lat, latOK := norm["latitude"]
	lng, lngOK := norm["longitude"]

	hasLat := latOK && lat != nil
	hasLng := lngOK && lng != nil

	if hasLat != hasLng {
		return []FieldViolation{{
			Field:   "latitude",
			Message: "latitude and longitude must be supplied together",
		}}
	}
	return nil
}

// coerceID rewrites numeric identifiers to their string form, since some
// backend versions send ids as JSON numbers.
func coerceID(norm map[string]any, keys ...string) {
	for _, k := range keys {
		if f, ok := norm[k].(float64); ok {
			norm[k] = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
}

func isString(v any) string {
	if _, ok := v.(string); !ok {
		return "must be a string"
	}
	return ""
}

func isNumber(v any) (float64, string) {
	f, ok := v.(float64)
	if !ok {
		return 0, "must be a number"
	}
	return f, ""
}

func inRange(min, max float64) func(v any) string {
	return func(v any) string {
		f, msg := isNumber(v)
		if msg != "" {
			return msg
		}
		if f < min || f > max {
			return fmt.Sprintf("must be between %g and %g", min, max)
		}
		return ""
	}
}

func isPositiveNumber(v any) string {
	f, msg := isNumber(v)
	if msg != "" {
		return msg
	}
	if f <= 0 {
		return "must be greater than zero"
	}
	return ""
}

func isPositiveInteger(v any) string {
	f, msg := isNumber(v)
	if msg != "" {
		return msg
	}
	if f != math.Trunc(f) {
		return "must be a whole number"
	}
	if f < 1 {
		return "must be at least 1"
	}
	return ""
}

func isCommsType(v any) string {
	s, ok := v.(string)
	if !ok {
		return "must be a string"
	}
	if !types.KnownCommsType(s) {
		return fmt.Sprintf("must be one of %s, %s, %s, %s",
			types.CommsTypeCellular, types.CommsTypeRadio, types.CommsTypeEthernet, types.CommsTypeOther)
	}
	return ""
}
