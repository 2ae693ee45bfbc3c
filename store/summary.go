package store

import (
	"strconv"

	"github.com/sawasdee-research/gsview/schema"
)

var summaryHeader = []string{
	"group", "images", "women", "men",
	"proportion_women", "sex_ratio",
	"potholes", "litter", "footpath_rate", "lane_marking_rate",
}

// WriteSummaries persists an aggregate table. The sex_ratio column is
// left empty where no men were counted.
func (s *FileStore) WriteSummaries(path string, summaries []schema.Summary) error {
	rows := make([][]string, 0, len(summaries))
	for _, sum := range summaries {
		sexRatio := ""
		if sum.SexRatioDefined {
			sexRatio = strconv.FormatFloat(sum.SexRatio, 'f', 4, 64)
		}
		rows = append(rows, []string{
			sum.Group,
			strconv.Itoa(sum.Images),
			strconv.Itoa(sum.Women),
			strconv.Itoa(sum.Men),
			strconv.FormatFloat(sum.ProportionWomen, 'f', 4, 64),
			sexRatio,
			strconv.Itoa(sum.Potholes),
			strconv.Itoa(sum.Litter),
			strconv.FormatFloat(sum.FootpathRate, 'f', 4, 64),
			strconv.FormatFloat(sum.LaneMarkingRate, 'f', 4, 64),
		})
	}
	return writeCSV(path, summaryHeader, rows)
}
