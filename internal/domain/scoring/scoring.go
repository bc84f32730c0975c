// Package scoring converts places into Spartakiad points and raw results into
// ranking scores.
package scoring

// Default place points configuration.
const (
	defaultMaxPlacePoints = 10
	defaultMinPlacePoints = 1
)

// Option applies a configuration option to PlacePoints.
type Option func(*PlacePoints)

// WithMaxPlacePoints sets the points awarded for first place. Places up to
// this value score max+1-place.
func WithMaxPlacePoints(v int) Option {
	return func(p *PlacePoints) {
		if v > 0 {
			p.max = v
		}
	}
}

// WithMinPlacePoints sets the points awarded past the scored places.
func WithMinPlacePoints(v int) Option {
	return func(p *PlacePoints) {
		if v >= 0 {
			p.min = v
		}
	}
}

// PlacePoints maps places to points: 1st = max, each next place one less,
// every place past max scores min.
type PlacePoints struct {
	max int
	min int
}

// NewPlacePoints creates a table with the Spartakiad defaults (10..1).
func NewPlacePoints(opts ...Option) *PlacePoints {
	p := &PlacePoints{
		max: defaultMaxPlacePoints,
		min: defaultMinPlacePoints,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.min > p.max {
		p.min = p.max
	}
	return p
}

// ForPlace returns the points for a 1-based place. Non-positive places score 0.
func (p *PlacePoints) ForPlace(place int) float64 {
	switch {
	case place <= 0:
		return 0
	case place <= p.max:
		return float64(max(p.max+1-place, p.min))
	default:
		return float64(p.min)
	}
}

// RankingScore converts a raw result into a score where higher ranks better.
// Time results are negated so the fastest time ranks first.
func RankingScore(value float64, timeBased bool) float64 {
	if timeBased {
		return -value
	}
	return value
}
