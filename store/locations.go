package store

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sawasdee-research/gsview/schema"
)

var locationHeader = []string{
	"location_id", "city", "lat", "lon",
	"segment_id", "osm_id", "osm_name", "osm_type", "locality",
}

// WriteLocations persists a location table. Also used for the per-city
// road segment cache, where location_id and city are still empty.
func (s *FileStore) WriteLocations(path string, locations []schema.Location) error {
	rows := make([][]string, 0, len(locations))
	for _, l := range locations {
		rows = append(rows, []string{
			l.LocationID,
			l.City,
			strconv.FormatFloat(l.Latitude, 'f', -1, 64),
			strconv.FormatFloat(l.Longitude, 'f', -1, 64),
			strconv.Itoa(l.SegmentID),
			strconv.FormatInt(l.OSMID, 10),
			l.OSMName,
			l.OSMType,
			l.Locality,
		})
	}
	return writeCSV(path, locationHeader, rows)
}

// ReadLocations loads a location table written by WriteLocations
func (s *FileStore) ReadLocations(path string) ([]schema.Location, error) {
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

	var locations []schema.Location
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}

		lat, err := strconv.ParseFloat(column(row, idx, "lat"), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse lat in %s", path)
		}
		lon, err := strconv.ParseFloat(column(row, idx, "lon"), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse lon in %s", path)
		}
		segmentID, _ := strconv.Atoi(column(row, idx, "segment_id"))
		osmID, _ := strconv.ParseInt(column(row, idx, "osm_id"), 10, 64)

		locations = append(locations, schema.Location{
			LocationID: column(row, idx, "location_id"),
			City:       column(row, idx, "city"),
			Latitude:   lat,
			Longitude:  lon,
			SegmentID:  segmentID,
			OSMID:      osmID,
			OSMName:    column(row, idx, "osm_name"),
			OSMType:    column(row, idx, "osm_type"),
			Locality:   column(row, idx, "locality"),
		})
	}

	return locations, nil
}

// HasRoads reports whether the per-city road cache already exists
func (s *FileStore) HasRoads(cityKey string) bool {
	_, err := os.Stat(s.RoadsPath(cityKey))
	return err == nil
}
