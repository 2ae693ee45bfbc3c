package store

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sawasdee-research/gsview/schema"
)

// ReadAnnotations loads an annotation export. Malformed rows (field
// count mismatches, unparseable or negative counts, missing location
// ids) are dropped with a warning, never fatal. Returns the number of
// dropped rows alongside the good ones.
func (s *FileStore) ReadAnnotations(path string) ([]schema.AnnotationRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, 0, errors.Wrapf(err, "read header of %s", path)
	}
	idx := columnIndex(header)

	var records []schema.AnnotationRecord
	dropped := 0
	line := 1

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.WithFields(log.Fields{
				"prefix": storeLogPrefix,
				"line":   line,
				"error":  err,
			}).Warn("dropping unreadable annotation row")
			dropped++
			continue
		}
		if len(row) != len(header) {
			log.WithFields(log.Fields{
				"prefix": storeLogPrefix,
				"line":   line,
			}).Warn("dropping annotation row with wrong field count")
			dropped++
			continue
		}

		record, err := parseAnnotationRow(row, idx)
		if err != nil {
			log.WithFields(log.Fields{
				"prefix": storeLogPrefix,
				"line":   line,
				"error":  err,
			}).Warn("dropping malformed annotation row")
			dropped++
			continue
		}

		records = append(records, record)
	}

	return records, dropped, nil
}

func parseAnnotationRow(row []string, idx map[string]int) (schema.AnnotationRecord, error) {
	record := schema.AnnotationRecord{
		AnnotationID: column(row, idx, "annotation_id"),
		LocationID:   column(row, idx, "location_id"),
		Image:        column(row, idx, "image"),
		LandUse:      column(row, idx, "land_use"),
	}

	counts := []struct {
		name string
		dst  *int
	}{
		{"women_count", &record.WomenCount},
		{"men_count", &record.MenCount},
		{"potholes", &record.Potholes},
		{"litter", &record.Litter},
	}
	for _, c := range counts {
		v, err := strconv.Atoi(strings.TrimSpace(column(row, idx, c.name)))
		if err != nil {
			return record, errors.Wrapf(err, "parse %s", c.name)
		}
		*c.dst = v
	}

	var err error
	if record.Footpath, err = parseFlag(column(row, idx, "footpath")); err != nil {
		return record, errors.Wrap(err, "parse footpath")
	}
	if record.LaneMarkings, err = parseFlag(column(row, idx, "lane_markings")); err != nil {
		return record, errors.Wrap(err, "parse lane_markings")
	}

	if !record.Valid() {
		return record, errors.New("invalid annotation record")
	}

	return record, nil
}

// parseFlag accepts the flag spellings annotation platforms export
func parseFlag(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0", "":
		return false, nil
	default:
		return false, errors.Errorf("unrecognized flag value: %q", v)
	}
}
