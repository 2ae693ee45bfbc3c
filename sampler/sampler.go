package sampler

import (
	"fmt"
	"math/rand"

	log "github.com/sirupsen/logrus"

	"github.com/sawasdee-research/gsview/consts"
	"github.com/sawasdee-research/gsview/external/overpass"
	"github.com/sawasdee-research/gsview/geo"
	"github.com/sawasdee-research/gsview/schema"
	"github.com/sawasdee-research/gsview/store"
)

const (
	logPrefix = "sampler"

	// DefaultSegmentLengthM - ways are split into pieces of roughly
	// this length and sampled by their midpoints.
	DefaultSegmentLengthM = 500
)

// Sampler draws stratified road-segment samples per city, caching the
// raw segmented road network on disk so Overpass is queried once per
// city.
type Sampler struct {
	overpass       overpass.Overpass
	fileStore      *store.FileStore
	segmentLengthM float64
}

// New - new Sampler
func New(client overpass.Overpass, fileStore *store.FileStore) *Sampler {
	return &Sampler{
		overpass:       client,
		fileStore:      fileStore,
		segmentLengthM: DefaultSegmentLengthM,
	}
}

// SegmentRoads splits fetched ways into midpoint locations. Location
// ids and city names are assigned later, at sampling time.
func SegmentRoads(roads []overpass.Road, segmentLengthM float64) []schema.Location {
	var segments []schema.Location
	for _, road := range roads {
		for _, mid := range geo.SegmentMidpoints(road.Coords, segmentLengthM) {
			segments = append(segments, schema.Location{
				Latitude:  mid.Latitude,
				Longitude: mid.Longitude,
				OSMID:     road.OSMID,
				OSMName:   road.Name,
				OSMType:   road.Highway,
			})
		}
	}
	for i := range segments {
		segments[i].SegmentID = i
	}
	return segments
}

// RoadSegments returns the segmented road network for a city, from the
// on-disk cache when present.
func (s *Sampler) RoadSegments(cfg consts.CityConfig, forceDownload bool) ([]schema.Location, error) {
	if !forceDownload && s.fileStore.HasRoads(cfg.Key) {
		log.WithFields(log.Fields{
			"prefix": logPrefix,
			"city":   cfg.Key,
		}).Info("using cached road data")
		return s.fileStore.ReadLocations(s.fileStore.RoadsPath(cfg.Key))
	}

	roads, err := s.overpass.QueryRoads(cfg.OSMRelationID, cfg.BBox)
	if err != nil {
		return nil, fmt.Errorf("fetch roads for %s: %s", cfg.Name, err)
	}
	if len(roads) == 0 {
		return nil, fmt.Errorf("no road data for %s", cfg.Name)
	}

	segments := SegmentRoads(roads, s.segmentLengthM)
	if err := s.fileStore.WriteLocations(s.fileStore.RoadsPath(cfg.Key), segments); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"prefix":   logPrefix,
		"city":     cfg.Key,
		"segments": len(segments),
	}).Info("segmented road network")

	return segments, nil
}

// SampleCity draws a seeded random sample of n segments, stratified by
// road type: each category receives a share of n proportional to its
// share of the available segments (largest remainder apportionment).
// When fewer segments exist than requested, all are used with a
// warning.
func SampleCity(segments []schema.Location, n int, seed int64, cityName string) []schema.Location {
	if len(segments) <= n {
		if len(segments) < n {
			log.WithFields(log.Fields{
				"prefix":    logPrefix,
				"city":      cityName,
				"available": len(segments),
				"requested": n,
			}).Warn("fewer segments than requested, using all")
		}
		sampled := make([]schema.Location, len(segments))
		copy(sampled, segments)
		for i := range sampled {
			sampled[i].City = cityName
		}
		return sampled
	}

	groups := make(map[schema.RoadType][]schema.Location)
	for _, seg := range segments {
		rt := seg.RoadType()
		groups[rt] = append(groups[rt], seg)
	}

	allocation := apportion(groups, n)

	r := rand.New(rand.NewSource(seed))
	var sampled []schema.Location
	for _, rt := range schema.RoadTypes {
		group := groups[rt]
		take := allocation[rt]
		if take == 0 {
			continue
		}

		shuffled := make([]schema.Location, len(group))
		copy(shuffled, group)
		r.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		sampled = append(sampled, shuffled[:take]...)
	}

	for i := range sampled {
		sampled[i].City = cityName
	}
	return sampled
}

// apportion assigns each road type a proportional share of n by the
// largest remainder method, iterating categories in reporting order so
// ties break deterministically.
func apportion(groups map[schema.RoadType][]schema.Location, n int) map[schema.RoadType]int {
	total := 0
	for _, group := range groups {
		total += len(group)
	}

	allocation := make(map[schema.RoadType]int)
	remainders := make(map[schema.RoadType]float64)
	assigned := 0
	for _, rt := range schema.RoadTypes {
		exact := float64(n) * float64(len(groups[rt])) / float64(total)
		allocation[rt] = int(exact)
		remainders[rt] = exact - float64(allocation[rt])
		assigned += allocation[rt]
	}

	for assigned < n {
		best := schema.RoadType("")
		for _, rt := range schema.RoadTypes {
			// A category cannot receive more than it has.
			if allocation[rt] >= len(groups[rt]) {
				continue
			}
			if best == "" || remainders[rt] > remainders[best] {
				best = rt
			}
		}
		if best == "" {
			break
		}
		allocation[best]++
		remainders[best] = 0
		assigned++
	}

	return allocation
}

// SampleAllCities samples every configured city and assigns combined
// location ids. A city whose road data cannot be fetched is skipped
// with an error log; the remaining cities still produce samples.
func (s *Sampler) SampleAllCities(nSamples map[string]int, seed int64, forceDownload bool) ([]schema.Location, error) {
	var combined []schema.Location

	for i, key := range consts.CityKeys() {
		cfg := consts.CityConfigs[key]

		segments, err := s.RoadSegments(cfg, forceDownload)
		if err != nil {
			log.WithFields(log.Fields{
				"prefix": logPrefix,
				"city":   cfg.Name,
				"error":  err,
			}).Error("skipping city")
			continue
		}

		n, ok := nSamples[key]
		if !ok || n <= 0 {
			n = cfg.DefaultSamples
		}

		citySeed := seed + int64(i)
		sampled := SampleCity(segments, n, citySeed, cfg.Name)

		log.WithFields(log.Fields{
			"prefix":  logPrefix,
			"city":    cfg.Name,
			"sampled": len(sampled),
		}).Info("sampled locations")

		combined = append(combined, sampled...)
	}

	if len(combined) == 0 {
		return nil, fmt.Errorf("no locations sampled for any city")
	}

	for i := range combined {
		combined[i].LocationID = fmt.Sprintf("loc_%05d", i)
	}

	return combined, nil
}
