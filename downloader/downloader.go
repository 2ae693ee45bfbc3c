package downloader

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sawasdee-research/gsview/external/streetview"
	"github.com/sawasdee-research/gsview/schema"
	"github.com/sawasdee-research/gsview/store"
)

const (
	logPrefix = "downloader"

	// Static API list price, used only for the pre-run cost estimate.
	costPerThousandUSD = 7.0

	progressEvery = 100

	hiresFOV         = 90
	hiresJPEGQuality = 95
)

// DefaultHeadings - the four cardinal camera headings
var DefaultHeadings = []int{0, 90, 180, 270}

// Downloader runs the coverage-check and image-download batches. Both
// loops are per-location: a failing lookup or fetch is recorded and the
// batch continues.
type Downloader struct {
	sv        streetview.StreetView
	fileStore *store.FileStore
	headings  []int
	pitch     int
	runID     string
}

// New - new Downloader. Nil or empty headings fall back to the
// defaults.
func New(sv streetview.StreetView, fileStore *store.FileStore, headings []int, pitch int) *Downloader {
	if len(headings) == 0 {
		headings = DefaultHeadings
	}
	return &Downloader{
		sv:        sv,
		fileStore: fileStore,
		headings:  headings,
		pitch:     pitch,
		runID:     uuid.New().String(),
	}
}

// CheckCoverageBatch looks up Street View coverage for every sampled
// location against the free metadata endpoint.
func (d *Downloader) CheckCoverageBatch(locations []schema.Location) []schema.CoverageRecord {
	log.WithFields(log.Fields{
		"prefix":    logPrefix,
		"run_id":    d.runID,
		"locations": len(locations),
	}).Info("checking coverage")

	records := make([]schema.CoverageRecord, 0, len(locations))
	for i, loc := range locations {
		record := schema.CoverageRecord{
			LocationID: loc.LocationID,
			City:       loc.City,
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
		}

		result, err := d.sv.Metadata(loc.Latitude, loc.Longitude)
		if err != nil {
			log.WithFields(log.Fields{
				"prefix":      logPrefix,
				"location_id": loc.LocationID,
				"error":       err,
			}).Warn("coverage lookup failed, skipping location")
			sentry.CaptureException(err)
			record.Status = schema.StatusError
		} else {
			record.HasCoverage = result.HasCoverage
			record.PanoID = result.PanoID
			record.CaptureDate = result.CaptureDate
			record.Status = result.Status
		}
		records = append(records, record)

		if (i+1)%progressEvery == 0 {
			log.WithFields(log.Fields{
				"prefix": logPrefix,
				"done":   i + 1,
				"total":  len(locations),
			}).Info("coverage progress")
		}
	}

	return records
}

// EstimateCost - projected spend for downloading every covered
// location at the configured headings
func (d *Downloader) EstimateCost(covered int) (int, float64) {
	images := covered * len(d.headings)
	return images, float64(images) / 1000 * costPerThousandUSD
}

// DownloadBatch fetches images for every covered location. Idempotent:
// a location whose expected files all exist is skipped without any API
// call, so re-running after a partial run never duplicates spend.
func (d *Downloader) DownloadBatch(covered []schema.CoverageRecord) []schema.DownloadResult {
	log.WithFields(log.Fields{
		"prefix":    logPrefix,
		"run_id":    d.runID,
		"locations": len(covered),
		"headings":  d.headings,
		"pitch":     d.pitch,
	}).Info("downloading images")

	var results []schema.DownloadResult
	for i, record := range covered {
		if !record.HasCoverage {
			continue
		}

		results = append(results, d.downloadLocation(record)...)

		if (i+1)%progressEvery == 0 {
			log.WithFields(log.Fields{
				"prefix": logPrefix,
				"done":   i + 1,
				"total":  len(covered),
			}).Info("download progress")
		}
	}

	return results
}

// existingResults reports one successful row per heading when every
// expected file for the location already exists, nil otherwise.
func (d *Downloader) existingResults(record schema.CoverageRecord) []schema.DownloadResult {
	for _, heading := range d.headings {
		if !d.fileStore.HasImage(store.ImageFilename(record.LocationID, heading, d.pitch)) {
			return nil
		}
	}

	results := make([]schema.DownloadResult, 0, len(d.headings))
	for _, heading := range d.headings {
		filename := store.ImageFilename(record.LocationID, heading, d.pitch)
		results = append(results, schema.DownloadResult{
			LocationID: record.LocationID,
			City:       record.City,
			Latitude:   record.Latitude,
			Longitude:  record.Longitude,
			Heading:    heading,
			Pitch:      d.pitch,
			ImagePath:  d.fileStore.ImagePath(filename),
			Success:    true,
		})
	}
	return results
}

func (d *Downloader) downloadLocation(record schema.CoverageRecord) []schema.DownloadResult {
	if existing := d.existingResults(record); existing != nil {
		return existing
	}

	results := make([]schema.DownloadResult, 0, len(d.headings))
	for _, heading := range d.headings {
		filename := store.ImageFilename(record.LocationID, heading, d.pitch)
		result := schema.DownloadResult{
			LocationID: record.LocationID,
			City:       record.City,
			Latitude:   record.Latitude,
			Longitude:  record.Longitude,
			Heading:    heading,
			Pitch:      d.pitch,
		}

		data, err := d.sv.Image(streetview.ImageRequest{
			Latitude:  record.Latitude,
			Longitude: record.Longitude,
			Heading:   heading,
			Pitch:     d.pitch,
		})
		if err != nil {
			log.WithFields(log.Fields{
				"prefix":      logPrefix,
				"location_id": record.LocationID,
				"heading":     heading,
				"error":       err,
			}).Warn("image download failed, skipping")
			sentry.CaptureException(err)
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		if err := d.fileStore.SaveImage(filename, data); err != nil {
			sentry.CaptureException(err)
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.ImagePath = d.fileStore.ImagePath(filename)
		result.Success = true
		results = append(results, result)
	}

	return results
}

// DownloadBatchHires fetches the full panorama of every covered
// location from the keyless tile endpoint and crops one view per
// heading, instead of calling the billed static endpoint. Requires the
// pano id recorded by the coverage check. Idempotence matches
// DownloadBatch: complete locations are skipped without any fetch.
func (d *Downloader) DownloadBatchHires(covered []schema.CoverageRecord, zoom int) []schema.DownloadResult {
	log.WithFields(log.Fields{
		"prefix":    logPrefix,
		"run_id":    d.runID,
		"locations": len(covered),
		"headings":  d.headings,
		"pitch":     d.pitch,
		"zoom":      zoom,
	}).Info("downloading hi-res images")

	var results []schema.DownloadResult
	for i, record := range covered {
		if !record.HasCoverage {
			continue
		}

		results = append(results, d.downloadLocationHires(record, zoom)...)

		if (i+1)%progressEvery == 0 {
			log.WithFields(log.Fields{
				"prefix": logPrefix,
				"done":   i + 1,
				"total":  len(covered),
			}).Info("download progress")
		}
	}

	return results
}

func (d *Downloader) downloadLocationHires(record schema.CoverageRecord, zoom int) []schema.DownloadResult {
	if existing := d.existingResults(record); existing != nil {
		return existing
	}

	results := make([]schema.DownloadResult, 0, len(d.headings))
	fail := func(err error) []schema.DownloadResult {
		for _, heading := range d.headings {
			results = append(results, schema.DownloadResult{
				LocationID: record.LocationID,
				City:       record.City,
				Latitude:   record.Latitude,
				Longitude:  record.Longitude,
				Heading:    heading,
				Pitch:      d.pitch,
				Error:      err.Error(),
			})
		}
		return results
	}

	if record.PanoID == "" {
		log.WithFields(log.Fields{
			"prefix":      logPrefix,
			"location_id": record.LocationID,
		}).Warn("no pano id from coverage check, skipping location")
		return fail(streetview.ErrEmptyPanoID)
	}

	pano, err := d.sv.Panorama(record.PanoID, zoom)
	if err != nil {
		log.WithFields(log.Fields{
			"prefix":      logPrefix,
			"location_id": record.LocationID,
			"pano_id":     record.PanoID,
			"error":       err,
		}).Warn("panorama download failed, skipping location")
		sentry.CaptureException(err)
		return fail(err)
	}

	for _, heading := range d.headings {
		filename := store.ImageFilename(record.LocationID, heading, d.pitch)
		result := schema.DownloadResult{
			LocationID: record.LocationID,
			City:       record.City,
			Latitude:   record.Latitude,
			Longitude:  record.Longitude,
			Heading:    heading,
			Pitch:      d.pitch,
		}

		crop := streetview.CropPanorama(pano, heading, d.pitch, hiresFOV)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, crop, &jpeg.Options{Quality: hiresJPEGQuality}); err != nil {
			err = errors.Wrap(err, "encode crop")
			sentry.CaptureException(err)
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		if err := d.fileStore.SaveImage(filename, buf.Bytes()); err != nil {
			sentry.CaptureException(err)
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.ImagePath = d.fileStore.ImagePath(filename)
		result.Success = true
		results = append(results, result)
	}

	return results
}

// ManifestRows turns successful downloads into annotation-ready rows
func ManifestRows(results []schema.DownloadResult) []schema.ManifestRow {
	var rows []schema.ManifestRow
	for _, result := range results {
		if !result.Success {
			continue
		}
		rows = append(rows, schema.ManifestRow{
			AnnotationID: fmt.Sprintf("ann_%06d", len(rows)),
			LocationID:   result.LocationID,
			City:         result.City,
			Latitude:     result.Latitude,
			Longitude:    result.Longitude,
			Heading:      result.Heading,
			Pitch:        result.Pitch,
			ImagePath:    result.ImagePath,
		})
	}
	return rows
}
