package store

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sawasdee-research/gsview/schema"
)

var downloadHeader = []string{
	"location_id", "city", "lat", "lon",
	"heading", "pitch", "image_path", "success", "error",
}

var manifestHeader = []string{
	"annotation_id", "location_id", "city", "lat", "lon",
	"heading", "pitch", "image_path",
}

// WriteDownloadResults persists per-image download outcomes
func (s *FileStore) WriteDownloadResults(results []schema.DownloadResult) error {
	rows := make([][]string, 0, len(results))
	for _, d := range results {
		rows = append(rows, []string{
			d.LocationID,
			d.City,
			strconv.FormatFloat(d.Latitude, 'f', -1, 64),
			strconv.FormatFloat(d.Longitude, 'f', -1, 64),
			strconv.Itoa(d.Heading),
			strconv.Itoa(d.Pitch),
			d.ImagePath,
			strconv.FormatBool(d.Success),
			d.Error,
		})
	}
	return writeCSV(s.DownloadResultsPath(), downloadHeader, rows)
}

// ReadDownloadResults loads per-image download outcomes
func (s *FileStore) ReadDownloadResults() ([]schema.DownloadResult, error) {
	path := s.DownloadResultsPath()
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", path)
	}
	idx := columnIndex(header)

	var results []schema.DownloadResult
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}

		lat, _ := strconv.ParseFloat(column(row, idx, "lat"), 64)
		lon, _ := strconv.ParseFloat(column(row, idx, "lon"), 64)
		heading, _ := strconv.Atoi(column(row, idx, "heading"))
		pitch, _ := strconv.Atoi(column(row, idx, "pitch"))
		success, _ := strconv.ParseBool(column(row, idx, "success"))

		results = append(results, schema.DownloadResult{
			LocationID: column(row, idx, "location_id"),
			City:       column(row, idx, "city"),
			Latitude:   lat,
			Longitude:  lon,
			Heading:    heading,
			Pitch:      pitch,
			ImagePath:  column(row, idx, "image_path"),
			Success:    success,
			Error:      column(row, idx, "error"),
		})
	}

	return results, nil
}

// WriteManifest persists the annotation-ready manifest
func (s *FileStore) WriteManifest(rows []schema.ManifestRow) error {
	records := make([][]string, 0, len(rows))
	for _, m := range rows {
		records = append(records, []string{
			m.AnnotationID,
			m.LocationID,
			m.City,
			strconv.FormatFloat(m.Latitude, 'f', -1, 64),
			strconv.FormatFloat(m.Longitude, 'f', -1, 64),
			strconv.Itoa(m.Heading),
			strconv.Itoa(m.Pitch),
			m.ImagePath,
		})
	}
	return writeCSV(s.ManifestPath(), manifestHeader, records)
}
