package schema

// Street View metadata lookup statuses. Anything other than StatusOK
// means no image will be requested for the location.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
	StatusError       = "ERROR"
)

// CoverageRecord - availability of Street View imagery at a sampled
// location, from the free metadata endpoint. Filters which locations
// proceed to the paid download stage.
type CoverageRecord struct {
	LocationID  string  `json:"location_id"`
	City        string  `json:"city"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	HasCoverage bool    `json:"has_coverage"`
	PanoID      string  `json:"pano_id,omitempty"`
	CaptureDate string  `json:"capture_date,omitempty"`
	Status      string  `json:"status"`
}
