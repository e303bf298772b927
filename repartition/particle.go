package repartition

import "gonum.org/v1/gonum/spatial/r3"

// Particle is the minimal read-only view this package needs of the
// caller's particle container: a position, nothing else. Mirrors the
// single field gridbased.cpp's center_of_load() reads off each particle.
type Particle struct {
	Pos r3.Vec
}

// ParticleStore is the external particle container collaborator
// (spec.md §6). Positions returns the positions of every particle local
// to this rank, in any order; CenterOfLoad only needs their mean.
type ParticleStore interface {
	Positions() []r3.Vec
}

// SliceParticles adapts a plain []Particle slice to ParticleStore, for
// callers that keep particles in a flat slice rather than a richer
// container.
type SliceParticles []Particle

func (s SliceParticles) Positions() []r3.Vec {
	out := make([]r3.Vec, len(s))
	for i, p := range s {
		out[i] = p.Pos
	}
	return out
}
