package tasks

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sawasdee-research/gsview/schema"
)

const logPrefix = "tasks"

// Build joins successful download results with sample metadata and
// emits one Label Studio task per image. Pure transformation: no
// external calls, regenerated whenever the image set changes.
func Build(results []schema.DownloadResult, samples []schema.Location, bucket string) []schema.Task {
	byLocation := make(map[string]schema.Location, len(samples))
	for _, sample := range samples {
		byLocation[sample.LocationID] = sample
	}

	var built []schema.Task
	for _, result := range results {
		if !result.Success {
			continue
		}

		sample, ok := byLocation[result.LocationID]
		if !ok {
			log.WithFields(log.Fields{
				"prefix":      logPrefix,
				"location_id": result.LocationID,
			}).Warn("download result without sample metadata, skipping")
			continue
		}

		built = append(built, schema.Task{
			Data: schema.TaskData{
				Image:      fmt.Sprintf("gs://%s/%s", bucket, filepath.Base(result.ImagePath)),
				LocationID: result.LocationID,
				City:       result.City,
				Latitude:   result.Latitude,
				Longitude:  result.Longitude,
				Heading:    result.Heading,
				Pitch:      result.Pitch,
				SegmentID:  sample.SegmentID,
				OSMName:    sample.OSMName,
				OSMType:    sample.OSMType,
			},
		})
	}

	return built
}

// Write persists a task manifest as indented JSON
func Write(path string, built []schema.Task) error {
	data, err := json.MarshalIndent(built, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal tasks")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	return errors.Wrapf(ioutil.WriteFile(path, data, 0644), "write %s", path)
}

// Read loads a task manifest written by Write
func Read(path string) ([]schema.Task, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var loaded []schema.Task
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return loaded, nil
}

// ImageTaskMapping - image URL to location id, the identity that must
// survive an export/import round trip
func ImageTaskMapping(built []schema.Task) map[string]string {
	mapping := make(map[string]string, len(built))
	for _, task := range built {
		mapping[task.Data.Image] = task.Data.LocationID
	}
	return mapping
}
