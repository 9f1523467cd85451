// Package maplinks builds the navigation deep links printed on station
// labels and shown in the station views.
package maplinks

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

const fallbackName = "Lift Station"

// Build derives the full set of map links from a station name and its
// coordinates. Links are deterministic: the same inputs always produce the
// same URLs, so regenerating them is always safe.
func Build(name string, lat, lng float64) types.MapLinks {
	latS := fmt.Sprintf("%.6f", lat)
	lngS := fmt.Sprintf("%.6f", lng)

	if name == "" {
		name = fallbackName
	}
	// spaces must encode as %20, not +, so links match the ones already
	// printed on station labels
	qName := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")

	googleMaps := fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%s,%s", latS, lngS)
	googleDirections := fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%s,%s", latS, lngS)
	applePin := fmt.Sprintf("maps://?q=%s&ll=%s,%s", qName, latS, lngS)
	appleDirections := fmt.Sprintf("maps://?daddr=%s,%s&q=%s", latS, lngS, qName)
	androidGeo := fmt.Sprintf("geo:%s,%s?q=%s,%s(%s)", latS, lngS, latS, lngS, qName)

	return types.MapLinks{
		GoogleMaps:          &googleMaps,
		GoogleDirections:    &googleDirections,
		AppleMapsPin:        &applePin,
		AppleMapsDirections: &appleDirections,
		AndroidGeoURI:       &androidGeo,
	}
}
