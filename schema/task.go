package schema

// TaskData - the payload shown to an annotator for one image
type TaskData struct {
	Image      string  `json:"image"`
	LocationID string  `json:"location_id"`
	City       string  `json:"city"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	Heading    int     `json:"heading"`
	Pitch      int     `json:"pitch"`
	SegmentID  int     `json:"segment_id"`
	OSMName    string  `json:"osm_name"`
	OSMType    string  `json:"osm_type"`
}

// Task - one Label Studio import entry. Ephemeral: regenerated whenever
// the image set changes.
type Task struct {
	Data TaskData `json:"data"`
}
