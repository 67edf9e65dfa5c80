package engine

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Fortune is a smooth luck field over game time. Sampling simplex noise
// instead of raw randomness gives the player streaks: runs of good
// fortune where rare events cluster, and dry spells between them.
type Fortune struct {
	noise opensimplex.Noise
}

// NewFortune creates a fortune field from a seed.
func NewFortune(seed int64) *Fortune {
	return &Fortune{noise: opensimplex.New(seed)}
}

// fortuneScale stretches game time so fortune shifts over dozens of
// ticks rather than flickering per tick.
const fortuneScale = 0.02

// At returns the fortune value in [-1, 1] at a game time.
func (f *Fortune) At(gameTime uint64) float64 {
	return f.noise.Eval2(float64(gameTime)*fortuneScale, 0)
}

// RarityWeights returns selection weights for common, uncommon, rare,
// legendary at a game time. High fortune shifts mass toward the top.
func (f *Fortune) RarityWeights(gameTime uint64) []float64 {
	v := f.At(gameTime) // [-1, 1]
	return []float64{
		60 - 15*v,
		25,
		12 + 10*v,
		3 + 5*v,
	}
}
