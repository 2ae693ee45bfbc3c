package geo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"googlemaps.github.io/maps"

	"github.com/sawasdee-research/gsview/schema"
)

type stubGeoInfo struct {
	results []maps.GeocodingResult
	err     error
}

func (s stubGeoInfo) Get(schema.Location) ([]maps.GeocodingResult, error) {
	return s.results, s.err
}

func TestLocalityPrefersSublocality(t *testing.T) {
	resolver := NewLocalityResolver(stubGeoInfo{
		results: []maps.GeocodingResult{
			{
				FormattedAddress: "Andheri East, Mumbai, Maharashtra, India",
				AddressComponents: []maps.AddressComponent{
					{LongName: "Mumbai", Types: []string{"locality", "political"}},
					{LongName: "Andheri East", Types: []string{"sublocality", "political"}},
				},
			},
		},
	})

	locality, err := resolver.Locality(schema.Location{Latitude: 19.11, Longitude: 72.86})
	assert.NoError(t, err)
	assert.Equal(t, "Andheri East", locality)
}

func TestLocalityFallsBackToLocality(t *testing.T) {
	resolver := NewLocalityResolver(stubGeoInfo{
		results: []maps.GeocodingResult{
			{
				AddressComponents: []maps.AddressComponent{
					{LongName: "Delhi", Types: []string{"locality"}},
				},
			},
		},
	})

	locality, err := resolver.Locality(schema.Location{})
	assert.NoError(t, err)
	assert.Equal(t, "Delhi", locality)
}

func TestLocalityEmptyResult(t *testing.T) {
	resolver := NewLocalityResolver(stubGeoInfo{})
	_, err := resolver.Locality(schema.Location{})
	assert.Equal(t, ErrNoGeoInfoFound, err)
}

func TestLocalityClientError(t *testing.T) {
	resolver := NewLocalityResolver(stubGeoInfo{err: fmt.Errorf("quota exceeded")})
	_, err := resolver.Locality(schema.Location{})
	assert.Error(t, err)
}
