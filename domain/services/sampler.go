package services

import (
	"math/rand"

	"prizedraw/domain/entities"
)

// Sampler draws categorical tier outcomes from a probability snapshot.
// It partitions [0,1) into four bands in tier order (first, second, third,
// comfort) and selects the band containing a single uniform variate per
// draw. Stateless apart from its randomness source.
type Sampler struct {
	uniform func() float64
}

// NewSampler creates a sampler backed by math/rand's global source.
func NewSampler() *Sampler {
	return &Sampler{uniform: rand.Float64}
}

// NewSamplerWithSource creates a sampler with an injected uniform source,
// used by tests to force specific bands.
func NewSamplerWithSource(uniform func() float64) *Sampler {
	return &Sampler{uniform: uniform}
}

// Pick draws one tier.
func (s *Sampler) Pick(p entities.Probabilities) entities.TierKey {
	r := s.uniform()
	if r < p.First {
		return entities.TierFirst
	}
	if r < p.First+p.Second {
		return entities.TierSecond
	}
	if r < p.First+p.Second+p.Third {
		return entities.TierThird
	}
	return entities.TierComfort
}

// Draw produces n independent draws under one coherent probability
// snapshot. The caller clamps n; this method trusts it.
func (s *Sampler) Draw(p entities.Probabilities, n int) []entities.TierKey {
	options := make([]entities.TierKey, 0, n)
	for i := 0; i < n; i++ {
		options = append(options, s.Pick(p))
	}
	return options
}
