package schema

// AnnotationRecord - human-entered counts and flags for one annotated
// image, exported from the annotation platform. Immutable input to the
// analysis stage. All counts are non-negative.
type AnnotationRecord struct {
	AnnotationID string `json:"annotation_id"`
	LocationID   string `json:"location_id"`
	Image        string `json:"image"`
	WomenCount   int    `json:"women_count"`
	MenCount     int    `json:"men_count"`
	Potholes     int    `json:"potholes"`
	Litter       int    `json:"litter"`
	Footpath     bool   `json:"footpath"`
	LaneMarkings bool   `json:"lane_markings"`
	LandUse      string `json:"land_use"`
}

// Valid reports whether the record can enter aggregation. Negative
// counts come from annotator typos and are dropped upstream.
func (r AnnotationRecord) Valid() bool {
	if r.LocationID == "" {
		return false
	}
	return r.WomenCount >= 0 && r.MenCount >= 0 && r.Potholes >= 0 && r.Litter >= 0
}
