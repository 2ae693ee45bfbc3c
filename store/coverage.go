package store

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sawasdee-research/gsview/schema"
)

var coverageHeader = []string{
	"location_id", "city", "lat", "lon",
	"has_coverage", "pano_id", "capture_date", "status",
}

// WriteCoverage persists coverage-check results
func (s *FileStore) WriteCoverage(records []schema.CoverageRecord) error {
	rows := make([][]string, 0, len(records))
	for _, c := range records {
		rows = append(rows, []string{
			c.LocationID,
			c.City,
			strconv.FormatFloat(c.Latitude, 'f', -1, 64),
			strconv.FormatFloat(c.Longitude, 'f', -1, 64),
			strconv.FormatBool(c.HasCoverage),
			c.PanoID,
			c.CaptureDate,
			c.Status,
		})
	}
	return writeCSV(s.CoveragePath(), coverageHeader, rows)
}

// ReadCoverage loads coverage-check results
func (s *FileStore) ReadCoverage() ([]schema.CoverageRecord, error) {
	path := s.CoveragePath()
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

	var records []schema.CoverageRecord
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
		hasCoverage, _ := strconv.ParseBool(column(row, idx, "has_coverage"))

		records = append(records, schema.CoverageRecord{
			LocationID:  column(row, idx, "location_id"),
			City:        column(row, idx, "city"),
			Latitude:    lat,
			Longitude:   lon,
			HasCoverage: hasCoverage,
			PanoID:      column(row, idx, "pano_id"),
			CaptureDate: column(row, idx, "capture_date"),
			Status:      column(row, idx, "status"),
		})
	}

	return records, nil
}
