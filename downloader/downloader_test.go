package downloader

import (
	"fmt"
	"image"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"

	"github.com/sawasdee-research/gsview/external/streetview"
	"github.com/sawasdee-research/gsview/schema"
	"github.com/sawasdee-research/gsview/store"
)

// stubStreetView serves canned coverage and counts calls, standing in
// for the live API.
type stubStreetView struct {
	coverage      map[string]bool // keyed by "lat,lon"
	metadataCalls int
	imageCalls    int
	panoCalls     int
	metadataErrs  map[string]error
	imageErr      error
	panoErr       error
}

func key(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

func (s *stubStreetView) Metadata(lat, lon float64) (streetview.CoverageResult, error) {
	s.metadataCalls++
	if err, ok := s.metadataErrs[key(lat, lon)]; ok {
		return streetview.CoverageResult{}, err
	}
	if s.coverage[key(lat, lon)] {
		return streetview.CoverageResult{
			HasCoverage: true,
			PanoID:      "pano-" + key(lat, lon),
			CaptureDate: "2023-01",
			Status:      schema.StatusOK,
		}, nil
	}
	return streetview.CoverageResult{Status: schema.StatusZeroResults}, nil
}

func (s *stubStreetView) Image(req streetview.ImageRequest) ([]byte, error) {
	s.imageCalls++
	if s.imageErr != nil {
		return nil, s.imageErr
	}
	return []byte{0xff, 0xd8}, nil
}

func (s *stubStreetView) Panorama(panoID string, zoom int) (image.Image, error) {
	s.panoCalls++
	if s.panoErr != nil {
		return nil, s.panoErr
	}
	return image.NewRGBA(image.Rect(0, 0, 256, 128)), nil
}

func newTestDownloader(t *testing.T, stub *stubStreetView) (*Downloader, *store.FileStore, func()) {
	dir, err := ioutil.TempDir("", "gsview-downloader-test")
	assert.NoError(t, err)
	fileStore := store.NewFileStore(dir)
	return New(stub, fileStore, nil, 0), fileStore, func() { os.RemoveAll(dir) }
}

func testLocations() []schema.Location {
	return []schema.Location{
		{LocationID: "loc_00000", City: "Mumbai", Latitude: 19.0001, Longitude: 72.9001},
		{LocationID: "loc_00001", City: "Mumbai", Latitude: 19.0002, Longitude: 72.9002},
		{LocationID: "loc_00002", City: "Delhi", Latitude: 28.0001, Longitude: 77.0001},
	}
}

func TestCheckCoverageBatch(t *testing.T) {
	stub := &stubStreetView{
		coverage: map[string]bool{
			key(19.0001, 72.9001): true,
			key(28.0001, 77.0001): true,
		},
	}
	d, _, cleanup := newTestDownloader(t, stub)
	defer cleanup()

	locations := testLocations()
	records := d.CheckCoverageBatch(locations)

	// Coverage-checked locations are exactly the sampled ones.
	assert.Len(t, records, len(locations))
	for i, record := range records {
		assert.Equal(t, locations[i].LocationID, record.LocationID)
	}
	assert.True(t, records[0].HasCoverage)
	assert.False(t, records[1].HasCoverage)
	assert.True(t, records[2].HasCoverage)
	assert.Equal(t, schema.StatusZeroResults, records[1].Status)
	assert.Equal(t, "pano-"+key(19.0001, 72.9001), records[0].PanoID)
}

func TestCheckCoverageBatchContinuesOnError(t *testing.T) {
	stub := &stubStreetView{
		coverage: map[string]bool{key(28.0001, 77.0001): true},
		metadataErrs: map[string]error{
			key(19.0001, 72.9001): fmt.Errorf("connection reset"),
		},
	}
	d, _, cleanup := newTestDownloader(t, stub)
	defer cleanup()

	records := d.CheckCoverageBatch(testLocations())
	assert.Len(t, records, 3)
	assert.Equal(t, schema.StatusError, records[0].Status)
	assert.False(t, records[0].HasCoverage)
	assert.True(t, records[2].HasCoverage)
}

func coveredRecords() []schema.CoverageRecord {
	return []schema.CoverageRecord{
		{LocationID: "loc_00000", City: "Mumbai", Latitude: 19.0001, Longitude: 72.9001, HasCoverage: true, PanoID: "pano-a", Status: schema.StatusOK},
		{LocationID: "loc_00001", City: "Mumbai", Latitude: 19.0002, Longitude: 72.9002, HasCoverage: false, Status: schema.StatusZeroResults},
		{LocationID: "loc_00002", City: "Delhi", Latitude: 28.0001, Longitude: 77.0001, HasCoverage: true, PanoID: "pano-b", Status: schema.StatusOK},
	}
}

func TestDownloadBatchOnlyCovered(t *testing.T) {
	stub := &stubStreetView{}
	d, fileStore, cleanup := newTestDownloader(t, stub)
	defer cleanup()

	results := d.DownloadBatch(coveredRecords())

	// Two covered locations, four headings each.
	assert.Len(t, results, 8)
	assert.Equal(t, 8, stub.imageCalls)

	downloaded := make(map[string]bool)
	for _, result := range results {
		assert.True(t, result.Success)
		assert.NotEqual(t, "loc_00001", result.LocationID)
		downloaded[result.LocationID] = true
		assert.True(t, fileStore.HasImage(store.ImageFilename(result.LocationID, result.Heading, result.Pitch)))
	}
	assert.Len(t, downloaded, 2)
}

func TestDownloadBatchIdempotent(t *testing.T) {
	stub := &stubStreetView{}
	d, _, cleanup := newTestDownloader(t, stub)
	defer cleanup()

	first := d.DownloadBatch(coveredRecords())
	assert.Equal(t, 8, stub.imageCalls)

	second := d.DownloadBatch(coveredRecords())
	// Re-running never re-downloads an already-present image.
	assert.Equal(t, 8, stub.imageCalls)
	assert.Len(t, second, len(first))
	for _, result := range second {
		assert.True(t, result.Success)
		assert.NotEmpty(t, result.ImagePath)
	}
}

func TestDownloadBatchRecordsFailures(t *testing.T) {
	stub := &stubStreetView{imageErr: fmt.Errorf("quota exhausted")}
	d, _, cleanup := newTestDownloader(t, stub)
	defer cleanup()

	results := d.DownloadBatch(coveredRecords())
	assert.Len(t, results, 8)
	for _, result := range results {
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "quota exhausted")
	}
}

func TestDownloadBatchHires(t *testing.T) {
	stub := &stubStreetView{}
	d, fileStore, cleanup := newTestDownloader(t, stub)
	defer cleanup()

	results := d.DownloadBatchHires(coveredRecords(), 3)

	// Two covered locations, four headings each, but one panorama
	// fetch per location and no billed calls at all.
	assert.Len(t, results, 8)
	assert.Equal(t, 2, stub.panoCalls)
	assert.Equal(t, 0, stub.imageCalls)
	for _, result := range results {
		assert.True(t, result.Success)
		assert.True(t, fileStore.HasImage(store.ImageFilename(result.LocationID, result.Heading, result.Pitch)))
	}
}

func TestDownloadBatchHiresIdempotent(t *testing.T) {
	stub := &stubStreetView{}
	d, _, cleanup := newTestDownloader(t, stub)
	defer cleanup()

	d.DownloadBatchHires(coveredRecords(), 3)
	assert.Equal(t, 2, stub.panoCalls)

	second := d.DownloadBatchHires(coveredRecords(), 3)
	// Re-running fetches no panorama for complete locations.
	assert.Equal(t, 2, stub.panoCalls)
	assert.Len(t, second, 8)
	for _, result := range second {
		assert.True(t, result.Success)
	}
}

func TestDownloadBatchHiresRequiresPanoID(t *testing.T) {
	stub := &stubStreetView{}
	d, _, cleanup := newTestDownloader(t, stub)
	defer cleanup()

	records := []schema.CoverageRecord{
		{LocationID: "loc_00003", City: "Mumbai", Latitude: 19.1, Longitude: 72.9, HasCoverage: true, Status: schema.StatusOK},
	}

	results := d.DownloadBatchHires(records, 3)
	assert.Len(t, results, 4)
	assert.Equal(t, 0, stub.panoCalls)
	for _, result := range results {
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "panorama id")
	}
}

func TestDownloadBatchHiresRecordsPanoFailure(t *testing.T) {
	stub := &stubStreetView{panoErr: fmt.Errorf("tile fetch returned status 400")}
	d, _, cleanup := newTestDownloader(t, stub)
	defer cleanup()

	results := d.DownloadBatchHires(coveredRecords(), 3)
	assert.Len(t, results, 8)
	for _, result := range results {
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "tile fetch")
	}
}

// captureTransport records events instead of sending them.
type captureTransport struct {
	events []*sentry.Event
}

func (tr *captureTransport) Configure(options sentry.ClientOptions) {}

func (tr *captureTransport) SendEvent(event *sentry.Event) {
	tr.events = append(tr.events, event)
}

func (tr *captureTransport) Flush(timeout time.Duration) bool { return true }

func TestBatchFailuresReachSentry(t *testing.T) {
	transport := &captureTransport{}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:       "https://key@example.com/1",
		Transport: transport,
	})
	assert.NoError(t, err)

	stub := &stubStreetView{
		metadataErrs: map[string]error{
			key(19.0001, 72.9001): fmt.Errorf("connection reset"),
		},
	}
	d, _, cleanup := newTestDownloader(t, stub)
	defer cleanup()

	d.CheckCoverageBatch(testLocations())
	assert.Len(t, transport.events, 1)

	stub.panoErr = fmt.Errorf("tile fetch returned status 500")
	d.DownloadBatchHires(coveredRecords(), 3)
	// One event per failing covered location.
	assert.Len(t, transport.events, 3)
}

func TestEstimateCost(t *testing.T) {
	d := New(&stubStreetView{}, store.NewFileStore(""), nil, 0)
	images, cost := d.EstimateCost(1000)
	assert.Equal(t, 4000, images)
	assert.InDelta(t, 28.0, cost, 1e-9)
}

func TestManifestRows(t *testing.T) {
	results := []schema.DownloadResult{
		{LocationID: "loc_00000", City: "Mumbai", Heading: 0, Success: true, ImagePath: "a.jpg"},
		{LocationID: "loc_00000", City: "Mumbai", Heading: 90, Success: false, Error: "boom"},
		{LocationID: "loc_00002", City: "Delhi", Heading: 0, Success: true, ImagePath: "b.jpg"},
	}

	rows := ManifestRows(results)
	assert.Len(t, rows, 2)
	assert.Equal(t, "ann_000000", rows[0].AnnotationID)
	assert.Equal(t, "ann_000001", rows[1].AnnotationID)
	assert.Equal(t, "loc_00002", rows[1].LocationID)
}

func TestCoverageStats(t *testing.T) {
	stats := CoverageStats(coveredRecords())
	assert.Len(t, stats, 3)

	assert.Equal(t, CoverageStat{City: "Delhi", Total: 1, Covered: 1}, stats[0])
	assert.Equal(t, CoverageStat{City: "Mumbai", Total: 2, Covered: 1}, stats[1])
	assert.Equal(t, CoverageStat{City: "Total", Total: 3, Covered: 2}, stats[2])
	assert.InDelta(t, 50.0, stats[1].Percent(), 1e-9)
}
