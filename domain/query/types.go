package query

import "github.com/soocke/promptcam/domain/geometry"

// Label tags an exemplar as something to find or something to avoid.
type Label int

const (
	Negative Label = iota
	Positive
)

func (l Label) String() string {
	switch l {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "unknown"
	}
}

// Sign returns "+" for positive and "-" for negative labels.
func (l Label) Sign() string {
	if l == Positive {
		return "+"
	}
	return "-"
}

// Exemplar is a user-confirmed example region in original-frame space.
type Exemplar struct {
	Box   geometry.BoundingBox
	Label Label
}

// Snapshot is a consistent copy of the query taken under one lock.
type Snapshot struct {
	Terms      []string
	Exemplars  []Exemplar
	Confidence float64
	Version    uint64
}

// Empty reports that neither text terms nor exemplars are present.
func (s Snapshot) Empty() bool { return len(s.Terms) == 0 && len(s.Exemplars) == 0 }

// Counts returns the number of positive and negative exemplars.
func (s Snapshot) Counts() (pos, neg int) {
	return CountLabels(s.Exemplars)
}

// CountLabels counts positive and negative exemplars.
func CountLabels(ex []Exemplar) (pos, neg int) {
	for _, e := range ex {
		if e.Label == Positive {
			pos++
		} else {
			neg++
		}
	}
	return pos, neg
}
