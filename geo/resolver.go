package geo

import (
	"fmt"

	"github.com/sawasdee-research/gsview/external/geoinfo"
	"github.com/sawasdee-research/gsview/schema"
)

var ErrNoGeoInfoFound = fmt.Errorf("no geo information found")

// LocalityResolver - resolves the administrative locality of a sampled
// point, used to tag samples when a maps API key is configured
type LocalityResolver interface {
	Locality(schema.Location) (string, error)
}

type geocodingLocalityResolver struct {
	client geoinfo.GeoInfo
}

// NewLocalityResolver - locality resolution backed by reverse geocoding
func NewLocalityResolver(client geoinfo.GeoInfo) LocalityResolver {
	return &geocodingLocalityResolver{
		client: client,
	}
}

func (g *geocodingLocalityResolver) Locality(loc schema.Location) (string, error) {
	geos, err := g.client.Get(loc)
	if err != nil {
		return "", err
	}
	if len(geos) == 0 {
		return "", ErrNoGeoInfoFound
	}

	// Prefer the most specific component the geocoder returns.
	preference := []string{"sublocality", "locality", "administrative_area_level_2"}
	for _, want := range preference {
		for _, component := range geos[0].AddressComponents {
			for _, typ := range component.Types {
				if typ == want {
					return component.LongName, nil
				}
			}
		}
	}

	return geos[0].FormattedAddress, nil
}
