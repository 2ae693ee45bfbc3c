package schema

// RoadType - OSM highway classification of a sampled segment
type RoadType string

const (
	RoadTypePrimary     RoadType = "primary"
	RoadTypeSecondary   RoadType = "secondary"
	RoadTypeTertiary    RoadType = "tertiary"
	RoadTypeResidential RoadType = "residential"
)

// RoadTypes - the four target categories, in reporting order
var RoadTypes = []RoadType{
	RoadTypePrimary,
	RoadTypeSecondary,
	RoadTypeTertiary,
	RoadTypeResidential,
}

// NormalizeRoadType maps a raw OSM highway tag onto the four target
// categories. Unclassified ways are sampled alongside residential ones
// and reported under residential.
func NormalizeRoadType(osmType string) RoadType {
	switch osmType {
	case "primary":
		return RoadTypePrimary
	case "secondary":
		return RoadTypeSecondary
	case "tertiary":
		return RoadTypeTertiary
	default:
		return RoadTypeResidential
	}
}

// BBox - geographic bounding box, south-west to north-east
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Location - a sampled road segment midpoint. Immutable once written
// by the sampling stage.
type Location struct {
	LocationID string  `json:"location_id"`
	City       string  `json:"city"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	SegmentID  int     `json:"segment_id"`
	OSMID      int64   `json:"osm_id"`
	OSMName    string  `json:"osm_name"`
	OSMType    string  `json:"osm_type"`
	Locality   string  `json:"locality,omitempty"`
}

// RoadType - the normalized category of this location
func (l Location) RoadType() RoadType {
	return NormalizeRoadType(l.OSMType)
}
