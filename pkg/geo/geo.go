// Package geo parses the coordinate text field technicians actually paste:
// plain decimals, decimals with hemisphere letters, DMS notation, and blobs
// containing both latitude and longitude in either order.
package geo

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

type LatLng struct {
	Lat float64
	Lng float64
}

var (
	decimalExpr = regexp.MustCompile(`^(?i)(-?\d+(?:\.\d+)?)(?:\s*([NSEW]))?$`)
	dmsExpr     = regexp.MustCompile(`(?i)(\d{1,3})\s*[°\s]\s*(\d{1,2})\s*['\s]\s*([\d.]+)\s*["”]?\s*([NSEW])`)
	sepExpr     = regexp.MustCompile(`[;,]+|\s{2,}`)
)

// ParseOne parses a single coordinate in decimal form (optionally suffixed
// with a hemisphere letter) or in DMS form. A hemisphere letter overrides
// any sign already present. The second return value reports whether the
// input matched either grammar.
func ParseOne(input string) (float64, bool) {
	s := strings.TrimSpace(input)

	if m := decimalExpr.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		switch strings.ToUpper(m[2]) {
		case "S", "W":
			v = -math.Abs(v)
		case "N", "E":
			v = math.Abs(v)
		}
		return v, true
	}

	if m := dmsExpr.FindStringSubmatch(s); m != nil {
		return dmsValue(m)
	}

	return 0, false
}

func dmsValue(m []string) (float64, bool) {
	deg, errD := strconv.ParseFloat(m[1], 64)
	min, errM := strconv.ParseFloat(m[2], 64)
	sec, errS := strconv.ParseFloat(m[3], 64)
	if errD != nil || errM != nil || errS != nil {
		return 0, false
	}

	v := deg + min/60 + sec/3600
	hemi := strings.ToUpper(m[4])
	if hemi == "S" || hemi == "W" {
		v = -math.Abs(v)
	}
	return v, true
}

// ExtractLatLng pulls a latitude/longitude pair out of an arbitrary text
// blob, such as "30°17'53.5\"N 97°47'15.2\"W" or "30.2982, -97.7876".
// When both values could be a latitude the first token wins the latitude
// slot, which keeps the result deterministic for ambiguous input.
func ExtractLatLng(text string) (LatLng, bool) {
	// DMS pairs first, matched over the whole text so internal spacing
	// between degrees, minutes and seconds does not break them apart
	if ms := dmsExpr.FindAllStringSubmatch(text, -1); len(ms) >= 2 {
		a, okA := dmsValue(ms[0])
		b, okB := dmsValue(ms[1])
		if okA && okB {
			if pair, ok := orient(a, b); ok {
				return pair, true
			}
		}
	}

	cleaned := strings.TrimSpace(sepExpr.ReplaceAllString(text, " "))
	tokens := strings.Fields(cleaned)

	// adjacent pairs first
	for i := 0; i+1 < len(tokens); i++ {
		a, okA := ParseOne(tokens[i])
		b, okB := ParseOne(tokens[i+1])
		if !okA || !okB {
			continue
		}

		if pair, ok := orient(a, b); ok {
			return pair, true
		}
	}

	// fallback: any two usable numbers anywhere in the text
	nums := make([]float64, 0, len(tokens))
	for _, t := range tokens {
		if v, ok := ParseOne(t); ok {
			nums = append(nums, v)
		}
	}
	if len(nums) < 2 {
		return LatLng{}, false
	}

	latIdx := -1
	for i, v := range nums {
		if math.Abs(v) <= 90 {
			latIdx = i
			break
		}
	}
	if latIdx < 0 {
		return LatLng{}, false
	}

	rest := make([]float64, 0, len(nums)-1)
	for i, v := range nums {
		if i != latIdx {
			rest = append(rest, v)
		}
	}

	for _, v := range rest {
		if math.Abs(v) > 90 && math.Abs(v) <= 180 {
			return LatLng{Lat: nums[latIdx], Lng: v}, true
		}
	}

	return LatLng{Lat: nums[latIdx], Lng: rest[0]}, true
}

// orient assigns two parsed values to the latitude and longitude slots
// using their valid ranges. The first value keeps the latitude slot when
// both qualify.
func orient(a, b float64) (LatLng, bool) {
	if math.Abs(a) <= 90 && math.Abs(b) <= 180 {
		return LatLng{Lat: a, Lng: b}, true
	}
	if math.Abs(b) <= 90 && math.Abs(a) <= 180 {
		return LatLng{Lat: b, Lng: a}, true
	}
	return LatLng{}, false
}
