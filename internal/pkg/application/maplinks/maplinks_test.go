package maplinks

import (
	"testing"

	"github.com/matryer/is"
)

func TestBuild(t *testing.T) {
	is := is.New(t)

	links := Build("Pump Station 7", 30.2982, -97.7876)

	is.Equal(*links.GoogleMaps, "https://www.google.com/maps/search/?api=1&query=30.298200,-97.787600")
	is.Equal(*links.GoogleDirections, "https://www.google.com/maps/dir/?api=1&destination=30.298200,-97.787600")
	is.Equal(*links.AppleMapsPin, "maps://?q=Pump%20Station%207&ll=30.298200,-97.787600")
	is.Equal(*links.AppleMapsDirections, "maps://?daddr=30.298200,-97.787600&q=Pump%20Station%207")
	is.Equal(*links.AndroidGeoURI, "geo:30.298200,-97.787600?q=30.298200,-97.787600(Pump%20Station%207)")
}

func TestBuildFallsBackToDefaultName(t *testing.T) {
	is := is.New(t)

	links := Build("", 0.5, 0.5)
	is.Equal(*links.AppleMapsPin, "maps://?q=Lift%20Station&ll=0.500000,0.500000")
}

func TestBuildIsDeterministic(t *testing.T) {
	is := is.New(t)

	a := Build("LS-1", 12.3456789, -1.0)
	b := Build("LS-1", 12.3456789, -1.0)
	is.Equal(*a.GoogleMaps, *b.GoogleMaps)
	is.Equal(*a.AndroidGeoURI, *b.AndroidGeoURI)
}
