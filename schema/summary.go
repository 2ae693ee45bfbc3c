package schema

// Summary - aggregate over a group of annotated images (a city or a
// road type). Recomputed deterministically from annotation records.
type Summary struct {
	Group           string  `json:"group"`
	Images          int     `json:"images"`
	Women           int     `json:"women"`
	Men             int     `json:"men"`
	ProportionWomen float64 `json:"proportion_women"`
	SexRatio        float64 `json:"sex_ratio"`
	SexRatioDefined bool    `json:"sex_ratio_defined"`
	Potholes        int     `json:"potholes"`
	Litter          int     `json:"litter"`
	FootpathRate    float64 `json:"footpath_rate"`
	LaneMarkingRate float64 `json:"lane_marking_rate"`
}
