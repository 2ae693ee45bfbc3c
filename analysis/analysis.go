package analysis

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/sawasdee-research/gsview/schema"
	"github.com/sawasdee-research/gsview/score"
)

const logPrefix = "analysis"

// Annotated - an annotation record joined with its location metadata
type Annotated struct {
	Record   schema.AnnotationRecord
	Location schema.Location
}

// Join matches annotation records to sampled locations. Records whose
// location id is unknown are dropped with a warning; the number of
// dropped records is returned alongside the joined ones.
func Join(records []schema.AnnotationRecord, locations []schema.Location) ([]Annotated, int) {
	byID := make(map[string]schema.Location, len(locations))
	for _, loc := range locations {
		byID[loc.LocationID] = loc
	}

	joined := make([]Annotated, 0, len(records))
	dropped := 0
	for _, record := range records {
		loc, ok := byID[record.LocationID]
		if !ok {
			log.WithFields(log.Fields{
				"prefix":        logPrefix,
				"annotation_id": record.AnnotationID,
				"location_id":   record.LocationID,
			}).Warn("annotation without sampled location, dropping")
			dropped++
			continue
		}
		joined = append(joined, Annotated{Record: record, Location: loc})
	}

	return joined, dropped
}

// SummarizeByCity aggregates annotations per city, cities in
// alphabetical order.
func SummarizeByCity(joined []Annotated) []schema.Summary {
	tallies := make(map[string]score.Tally)
	for _, a := range joined {
		t := tallies[a.Location.City]
		t.Add(a.Record)
		tallies[a.Location.City] = t
	}

	cities := make([]string, 0, len(tallies))
	for city := range tallies {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	summaries := make([]schema.Summary, 0, len(cities))
	for _, city := range cities {
		summaries = append(summaries, score.Summarize(city, tallies[city]))
	}
	return summaries
}

// SummarizeByRoadType aggregates annotations per road type, in the
// reporting order of the four categories. Categories without
// annotations are omitted.
func SummarizeByRoadType(joined []Annotated) []schema.Summary {
	tallies := make(map[schema.RoadType]score.Tally)
	for _, a := range joined {
		rt := a.Location.RoadType()
		t := tallies[rt]
		t.Add(a.Record)
		tallies[rt] = t
	}

	summaries := make([]schema.Summary, 0, len(tallies))
	for _, rt := range schema.RoadTypes {
		if t, ok := tallies[rt]; ok {
			summaries = append(summaries, score.Summarize(string(rt), t))
		}
	}
	return summaries
}

// CityRoadTypeTallies computes partial tallies keyed by city and road
// type. Merging a city's partials must reproduce the direct city
// aggregation.
func CityRoadTypeTallies(joined []Annotated) map[string]map[schema.RoadType]score.Tally {
	partials := make(map[string]map[schema.RoadType]score.Tally)
	for _, a := range joined {
		city := a.Location.City
		if partials[city] == nil {
			partials[city] = make(map[schema.RoadType]score.Tally)
		}
		rt := a.Location.RoadType()
		t := partials[city][rt]
		t.Add(a.Record)
		partials[city][rt] = t
	}
	return partials
}

// LocationMetric - per-location aggregate for map rendering
type LocationMetric struct {
	Location        schema.Location
	Images          int
	ProportionWomen float64
}

// PerLocation aggregates annotations per location, ordered by location
// id.
func PerLocation(joined []Annotated) []LocationMetric {
	tallies := make(map[string]score.Tally)
	locations := make(map[string]schema.Location)
	for _, a := range joined {
		t := tallies[a.Record.LocationID]
		t.Add(a.Record)
		tallies[a.Record.LocationID] = t
		locations[a.Record.LocationID] = a.Location
	}

	ids := make([]string, 0, len(tallies))
	for id := range tallies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	metrics := make([]LocationMetric, 0, len(ids))
	for _, id := range ids {
		t := tallies[id]
		metrics = append(metrics, LocationMetric{
			Location:        locations[id],
			Images:          t.Images,
			ProportionWomen: score.ProportionWomen(t),
		})
	}
	return metrics
}
