package schema

// DownloadResult - outcome of one static-API image fetch. One row per
// location and heading.
type DownloadResult struct {
	LocationID string  `json:"location_id"`
	City       string  `json:"city"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	Heading    int     `json:"heading"`
	Pitch      int     `json:"pitch"`
	ImagePath  string  `json:"image_path,omitempty"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
}

// ManifestRow - one annotation-ready row derived from a successful
// download, handed to the annotation platform.
type ManifestRow struct {
	AnnotationID string  `json:"annotation_id"`
	LocationID   string  `json:"location_id"`
	City         string  `json:"city"`
	Latitude     float64 `json:"lat"`
	Longitude    float64 `json:"lon"`
	Heading      int     `json:"heading"`
	Pitch        int     `json:"pitch"`
	ImagePath    string  `json:"image_path"`
}
