package geo

import (
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestParseOneDecimal(t *testing.T) {
	is := is.New(t)

	v, ok := ParseOne("30.2982")
	is.True(ok)
	is.Equal(v, 30.2982)

	v, ok = ParseOne("-97.7876")
	is.True(ok)
	is.Equal(v, -97.7876)
}

func TestParseOneHemisphereOverridesSign(t *testing.T) {
	is := is.New(t)

	v, ok := ParseOne("30.2982N")
	is.True(ok)
	is.Equal(v, 30.2982)

	v, ok = ParseOne("97.7876W")
	is.True(ok)
	is.Equal(v, -97.7876)

	// an explicit minus loses against the hemisphere letter
	v, ok = ParseOne("-30.2982 n")
	is.True(ok)
	is.Equal(v, 30.2982)

	v, ok = ParseOne("97.7876 s")
	is.True(ok)
	is.Equal(v, -97.7876)
}

func TestParseOneDMS(t *testing.T) {
	is := is.New(t)

	v, ok := ParseOne(`30°17'53.5"N`)
	is.True(ok)
	is.True(math.Abs(v-30.29819444) < 1e-4)

	v, ok = ParseOne(`97°47'15.2"W`)
	is.True(ok)
	is.True(math.Abs(v-(-97.78755555)) < 1e-4)
}

func TestParseOneRejectsGarbage(t *testing.T) {
	is := is.New(t)

	for _, in := range []string{"not a number", "", "N", "12.3.4", "--5"} {
		_, ok := ParseOne(in)
		is.True(!ok) // input should not parse
	}
}

func TestExtractLatLngDecimalPair(t *testing.T) {
	is := is.New(t)

	ll, ok := ExtractLatLng("30.2982, -97.7876")
	is.True(ok)
	is.Equal(ll, LatLng{Lat: 30.2982, Lng: -97.7876})
}

func TestExtractLatLngSwapsLngFirstInput(t *testing.T) {
	is := is.New(t)

	// first magnitude exceeds 90, so it must be the longitude
	ll, ok := ExtractLatLng("97.7876 -30.2982")
	is.True(ok)
	is.Equal(ll, LatLng{Lat: -30.2982, Lng: 97.7876})
}

func TestExtractLatLngDMSPair(t *testing.T) {
	is := is.New(t)

	ll, ok := ExtractLatLng(`30°17'53.5"N 97°47'15.2"W`)
	is.True(ok)
	is.True(math.Abs(ll.Lat-30.29819444) < 1e-4)
	is.True(math.Abs(ll.Lng-(-97.78755555)) < 1e-4)
}

func TestExtractLatLngDMSPairWithInternalSpacing(t *testing.T) {
	is := is.New(t)

	ll, ok := ExtractLatLng(`30° 17' 53.5" N, 97° 47' 15.2" W`)
	is.True(ok)
	is.True(math.Abs(ll.Lat-30.29819444) < 1e-4)
	is.True(math.Abs(ll.Lng-(-97.78755555)) < 1e-4)
}

func TestExtractLatLngAmbiguousPairIsLatFirst(t *testing.T) {
	is := is.New(t)

	// both values fit the latitude range; the first token wins the slot
	ll, ok := ExtractLatLng("45.0, 30.0")
	is.True(ok)
	is.Equal(ll, LatLng{Lat: 45.0, Lng: 30.0})
}

func TestExtractLatLngFallbackScan(t *testing.T) {
	is := is.New(t)

	// junk between the numbers defeats the adjacent-pair scan
	ll, ok := ExtractLatLng("lat 30.2982 lng -97.7876")
	is.True(ok)
	is.Equal(ll, LatLng{Lat: 30.2982, Lng: -97.7876})
}

func TestExtractLatLngNeedsTwoNumbers(t *testing.T) {
	is := is.New(t)

	_, ok := ExtractLatLng("30.2982")
	is.True(!ok)

	_, ok = ExtractLatLng("no coordinates here")
	is.True(!ok)
}
