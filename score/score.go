package score

import (
	"github.com/sawasdee-research/gsview/schema"
)

// Tally - raw annotation counts accumulated over a group of images.
// Tallies merge associatively, so partial sums per road type combine
// into the same city totals as direct aggregation.
type Tally struct {
	Images       int
	Women        int
	Men          int
	Potholes     int
	Litter       int
	Footpath     int
	LaneMarkings int
}

// Add accumulates one annotation record
func (t *Tally) Add(r schema.AnnotationRecord) {
	t.Images++
	t.Women += r.WomenCount
	t.Men += r.MenCount
	t.Potholes += r.Potholes
	t.Litter += r.Litter
	if r.Footpath {
		t.Footpath++
	}
	if r.LaneMarkings {
		t.LaneMarkings++
	}
}

// Merge combines two tallies
func Merge(a, b Tally) Tally {
	return Tally{
		Images:       a.Images + b.Images,
		Women:        a.Women + b.Women,
		Men:          a.Men + b.Men,
		Potholes:     a.Potholes + b.Potholes,
		Litter:       a.Litter + b.Litter,
		Footpath:     a.Footpath + b.Footpath,
		LaneMarkings: a.LaneMarkings + b.LaneMarkings,
	}
}

// ProportionWomen - women counted divided by total pedestrians
// counted. Zero when no pedestrians were seen.
func ProportionWomen(t Tally) float64 {
	pedestrians := t.Women + t.Men
	if pedestrians == 0 {
		return 0
	}
	return float64(t.Women) / float64(pedestrians)
}

// SexRatio - women counted per man counted. Undefined when no men
// were counted; the second return value reports definedness.
func SexRatio(t Tally) (float64, bool) {
	if t.Men == 0 {
		return 0, false
	}
	return float64(t.Women) / float64(t.Men), true
}

// Summarize derives the reported aggregate for one group
func Summarize(group string, t Tally) schema.Summary {
	s := schema.Summary{
		Group:           group,
		Images:          t.Images,
		Women:           t.Women,
		Men:             t.Men,
		ProportionWomen: ProportionWomen(t),
		Potholes:        t.Potholes,
		Litter:          t.Litter,
	}
	s.SexRatio, s.SexRatioDefined = SexRatio(t)
	if t.Images > 0 {
		s.FootpathRate = float64(t.Footpath) / float64(t.Images)
		s.LaneMarkingRate = float64(t.LaneMarkings) / float64(t.Images)
	}
	return s
}
