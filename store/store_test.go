package store

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/sawasdee-research/gsview/schema"
)

func newTestStore(t *testing.T) (*FileStore, func()) {
	dir, err := ioutil.TempDir("", "gsview-store-test")
	assert.NoError(t, err)
	return NewFileStore(dir), func() { os.RemoveAll(dir) }
}

func TestLocationsRoundTrip(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	locations := []schema.Location{
		{
			LocationID: "loc_00000", City: "Mumbai",
			Latitude: 19.076, Longitude: 72.8777,
			SegmentID: 12, OSMID: 100, OSMName: "Linking Road", OSMType: "primary",
			Locality: "Bandra West",
		},
		{
			LocationID: "loc_00001", City: "Delhi",
			Latitude: 28.6139, Longitude: 77.209,
			SegmentID: 7, OSMID: 200, OSMType: "residential",
		},
	}
	assert.NoError(t, s.WriteLocations(s.LocationsPath(), locations))

	got, err := s.ReadLocations(s.LocationsPath())
	assert.NoError(t, err)
	assert.Equal(t, locations, got)
}

func TestReadLocationsMissingFile(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	_, err := s.ReadLocations(s.LocationsPath())
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestCoverageRoundTrip(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	records := []schema.CoverageRecord{
		{
			LocationID: "loc_00000", City: "Mumbai",
			Latitude: 19.076, Longitude: 72.8777,
			HasCoverage: true, PanoID: "pano1", CaptureDate: "2023-06", Status: schema.StatusOK,
		},
		{
			LocationID: "loc_00001", City: "Delhi",
			Latitude: 28.6139, Longitude: 77.209,
			HasCoverage: false, Status: schema.StatusZeroResults,
		},
	}
	assert.NoError(t, s.WriteCoverage(records))

	got, err := s.ReadCoverage()
	assert.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestDownloadResultsRoundTrip(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	results := []schema.DownloadResult{
		{
			LocationID: "loc_00000", City: "Mumbai",
			Latitude: 19.076, Longitude: 72.8777,
			Heading: 90, Pitch: 0,
			ImagePath: "images/loc_00000_h090_p+00.jpg", Success: true,
		},
		{
			LocationID: "loc_00001", City: "Delhi",
			Latitude: 28.6139, Longitude: 77.209,
			Heading: 270, Pitch: 0,
			Success: false, Error: "unexpected content type: text/html",
		},
	}
	assert.NoError(t, s.WriteDownloadResults(results))

	got, err := s.ReadDownloadResults()
	assert.NoError(t, err)
	assert.Equal(t, results, got)
}

func TestImageFilename(t *testing.T) {
	assert.Equal(t, "loc_00042_h090_p+00.jpg", ImageFilename("loc_00042", 90, 0))
	assert.Equal(t, "loc_00042_h000_p-10.jpg", ImageFilename("loc_00042", 0, -10))
	assert.Equal(t, "loc_00042_h270_p+15.jpg", ImageFilename("loc_00042", 270, 15))
}

func TestSaveAndHasImage(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	filename := ImageFilename("loc_00001", 180, 0)
	assert.False(t, s.HasImage(filename))

	assert.NoError(t, s.SaveImage(filename, []byte{0xff, 0xd8}))
	assert.True(t, s.HasImage(filename))

	data, err := ioutil.ReadFile(s.ImagePath(filename))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data)
}

func TestReadAnnotationsDropsMalformedRows(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	csvData := "annotation_id,location_id,image,women_count,men_count,potholes,litter,footpath,lane_markings,land_use\n" +
		"ann_000001,loc_00000,img1.jpg,3,5,1,0,yes,no,commercial\n" +
		"ann_000002,loc_00001,img2.jpg,not-a-number,5,0,0,yes,no,residential\n" +
		"ann_000003,loc_00002,img3.jpg,-1,2,0,0,no,no,residential\n" +
		"ann_000004,loc_00003,img4.jpg,2,2\n" +
		"ann_000005,,img5.jpg,1,1,0,0,true,false,mixed\n" +
		"ann_000006,loc_00004,img6.jpg,0,4,2,3,false,true,industrial\n"

	path := filepath.Join(s.dataDir, "export.csv")
	assert.NoError(t, ioutil.WriteFile(path, []byte(csvData), 0644))

	records, dropped, err := s.ReadAnnotations(path)
	assert.NoError(t, err)
	assert.Equal(t, 4, dropped)
	assert.Len(t, records, 2)

	assert.Equal(t, "loc_00000", records[0].LocationID)
	assert.Equal(t, 3, records[0].WomenCount)
	assert.Equal(t, 5, records[0].MenCount)
	assert.True(t, records[0].Footpath)
	assert.False(t, records[0].LaneMarkings)
	assert.Equal(t, "commercial", records[0].LandUse)

	assert.Equal(t, "loc_00004", records[1].LocationID)
	assert.True(t, records[1].LaneMarkings)
}

func TestWriteSummaries(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	summaries := []schema.Summary{
		{
			Group: "Mumbai", Images: 10, Women: 12, Men: 28,
			ProportionWomen: 0.3, SexRatio: 12.0 / 28.0, SexRatioDefined: true,
			Potholes: 4, Litter: 7, FootpathRate: 0.5, LaneMarkingRate: 0.2,
		},
		{
			Group: "Delhi", Images: 2, Women: 3, Men: 0,
			ProportionWomen: 1.0, SexRatioDefined: false,
		},
	}
	assert.NoError(t, s.WriteSummaries(s.CitySummaryPath(), summaries))

	data, err := ioutil.ReadFile(s.CitySummaryPath())
	assert.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Mumbai,10,12,28,0.3000,0.4286")
	// Undefined sex ratio stays empty.
	assert.Contains(t, content, "Delhi,2,3,0,1.0000,,")
}
