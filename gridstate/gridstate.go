// Package gridstate implements GridState (C4): the rank's owned corner
// grid-point plus the replicated table of all P corners, kept consistent
// by an all-gather after every accepted repartition.
package gridstate

import (
	"github.com/domdecomp/gridbased/box"
	"github.com/domdecomp/gridbased/topology"
	"gonum.org/v1/gonum/spatial/r3"
)

// epsilonBias is the scale-relative tie-break bias applied to a rank's
// initial corner on every non-upper-boundary axis, so that a cell
// midpoint landing exactly on a subdomain boundary is claimed by exactly
// one rank. spec.md flags the original repa source's bare 1e-6 bias as
// unit-dependent; this module applies it relative to the cell size
// instead, per that flag's own suggested fix.
const epsilonBias = 1e-6

// GridState holds this rank's owned corner and the replicated table of
// every rank's corner, plus whether the grid is still in its initial,
// axis-aligned configuration.
type GridState struct {
	Box  *box.GlobalBox
	Topo *topology.CartesianTopology
	Rank int

	GridPoint     r3.Vec
	GridPoints    []r3.Vec
	IsRegularGrid bool
}

// New constructs the initial GridState: every rank's corner is the
// upper-right corner of its axis-aligned subdomain, biased inward on
// every axis except the global upper boundary.
func New(rank int, b *box.GlobalBox, t *topology.CartesianTopology) *GridState {
	gs := &GridState{Box: b, Topo: t, Rank: rank, IsRegularGrid: true}

	gs.GridPoints = make([]r3.Vec, t.P())
	for r := 0; r < t.P(); r++ {
		gs.GridPoints[r] = initialCorner(b, t, r)
	}
	gs.GridPoint = gs.GridPoints[rank]
	return gs
}

func initialCorner(b *box.GlobalBox, t *topology.CartesianTopology, r int) r3.Vec {
	c := t.Coords(r)
	dims := t.Dims()
	L := b.L
	cs := b.CellSize()

	upper := r3.Vec{
		X: L.X * float64(c[0]+1) / float64(dims[0]),
		Y: L.Y * float64(c[1]+1) / float64(dims[1]),
		Z: L.Z * float64(c[2]+1) / float64(dims[2]),
	}

	if c[0] != dims[0]-1 {
		upper.X -= epsilonBias * cs.X
	}
	if c[1] != dims[1]-1 {
		upper.Y -= epsilonBias * cs.Y
	}
	if c[2] != dims[2]-1 {
		upper.Z -= epsilonBias * cs.Z
	}
	return upper
}

// BoundingBox returns the 8 corners of rank r's subdomain, indexed by
// geom.CornerIndex(ox,oy,oz): the ranks holding them are
// {c0, c0-1} x {c1, c1-1} x {c2, c2-1}, with a rank wrapped across a
// periodic boundary contributing a corner mirrored by one box length on
// the wrapped axis, following repa's bounding_box().
func (gs *GridState) BoundingBox(r int) [8]r3.Vec {
	c := gs.Topo.Coords(r)
	dims := gs.Topo.Dims()
	L := gs.Box.L

	var result [8]r3.Vec
	for ox := 0; ox <= 1; ox++ {
		for oy := 0; oy <= 1; oy++ {
			for oz := 0; oz <= 1; oz++ {
				off := [3]int{ox, oy, oz}
				nc := [3]int{c[0] - off[0], c[1] - off[1], c[2] - off[2]}
				var mirror [3]float64
				for d := 0; d < 3; d++ {
					if nc[d] < 0 {
						nc[d] = dims[d] - 1
						mirror[d] = -1
					}
				}
				owner := gs.Topo.Rank(nc)
				corner := gs.GridPoints[owner]
				idx := 4*ox + 2*oy + oz
				result[idx] = r3.Vec{
					X: corner.X + mirror[0]*L.X,
					Y: corner.Y + mirror[1]*L.Y,
					Z: corner.Z + mirror[2]*L.Z,
				}
			}
		}
	}
	return result
}
