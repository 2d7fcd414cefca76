package rank

// Weights are the fixed combination weights of the eight signals. They are
// centrally owned here; no signal applies its own weighting.
type Weights struct {
	Tag       float64
	Similar   float64
	CoOccur   float64
	Developer float64
	Staff     float64
	Seiyuu    float64
	Trait     float64
	Quality   float64
}

// DefaultWeights returns the production weights (sum 10.4).
func DefaultWeights() Weights {
	return Weights{
		Tag:       2.5,
		Similar:   2.0,
		CoOccur:   2.0,
		Developer: 0.6,
		Staff:     0.5,
		Seiyuu:    0.3,
		Trait:     0.5,
		Quality:   1.5,
	}
}

// Total is the weight sum used to normalize the display score.
func (w Weights) Total() float64 {
	return w.Tag + w.Similar + w.CoOccur + w.Developer + w.Staff + w.Seiyuu + w.Trait + w.Quality
}
