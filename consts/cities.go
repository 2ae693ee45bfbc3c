package consts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sawasdee-research/gsview/schema"
)

// CityConfig - everything the sampler needs to know about a city
type CityConfig struct {
	Key            string
	Name           string
	OSMRelationID  int64
	DefaultSamples int
	// BBox limits the Overpass query instead of the relation area.
	// Needed where the relation boundary is unreliable.
	BBox *schema.BBox
}

var CityConfigs map[string]CityConfig

func init() {
	CityConfigs = make(map[string]CityConfig)

	CityConfigs["mumbai"] = CityConfig{
		Key:            "mumbai",
		Name:           "Mumbai",
		OSMRelationID:  7888990,
		DefaultSamples: 2500,
	}
	CityConfigs["delhi"] = CityConfig{
		Key:            "delhi",
		Name:           "Delhi",
		OSMRelationID:  1942586,
		DefaultSamples: 2500,
	}
	CityConfigs["navi_mumbai"] = CityConfig{
		Key:            "navi_mumbai",
		Name:           "Navi Mumbai",
		OSMRelationID:  7965697,
		DefaultSamples: 2000,
		BBox: &schema.BBox{
			MinLat: 18.95,
			MinLon: 72.95,
			MaxLat: 19.25,
			MaxLon: 73.15,
		},
	}
}

// CityColors - fixed marker colors for map rendering
var CityColors = map[string]string{
	"Mumbai":      "#e41a1c",
	"Delhi":       "#377eb8",
	"Navi Mumbai": "#4daf4a",
}

// CityKey - convert a city name into its config key
func CityKey(city string) (string, error) {
	key := strings.ToLower(city)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if _, ok := CityConfigs[key]; !ok {
		return "", fmt.Errorf("unknown city: %s", city)
	}
	return key, nil
}

// CityKeys - all configured city keys in stable order
func CityKeys() []string {
	keys := make([]string, 0, len(CityConfigs))
	for k := range CityConfigs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
