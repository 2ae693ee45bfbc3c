package downloader

import (
	"sort"

	"github.com/sawasdee-research/gsview/schema"
)

// CoverageStat - per-city coverage totals
type CoverageStat struct {
	City    string
	Total   int
	Covered int
}

// Percent - covered share of checked locations
func (c CoverageStat) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Covered) / float64(c.Total) * 100
}

// CoverageStats summarizes coverage per city, cities in alphabetical
// order, with a combined total row appended.
func CoverageStats(records []schema.CoverageRecord) []CoverageStat {
	byCity := make(map[string]*CoverageStat)
	for _, record := range records {
		stat, ok := byCity[record.City]
		if !ok {
			stat = &CoverageStat{City: record.City}
			byCity[record.City] = stat
		}
		stat.Total++
		if record.HasCoverage {
			stat.Covered++
		}
	}

	cities := make([]string, 0, len(byCity))
	for city := range byCity {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	stats := make([]CoverageStat, 0, len(cities)+1)
	total := CoverageStat{City: "Total"}
	for _, city := range cities {
		stats = append(stats, *byCity[city])
		total.Total += byCity[city].Total
		total.Covered += byCity[city].Covered
	}
	stats = append(stats, total)

	return stats
}
