// Package topology implements the virtual 3D Cartesian process topology
// (C2): rank<->coordinate mapping, periodic wrap, and the deduplicated
// 26-neighborhood, following the init_neighbors() scheme in repa's
// gridbased.cpp.
package topology

import (
	"math"

	"github.com/domdecomp/gridbased/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// CartesianTopology is the static virtual process grid. Constructed once
// from the process count and the box aspect ratio.
type CartesianTopology struct {
	dims [3]int
}

// NewCartesianTopology derives (Px, Py, Pz) with Px*Py*Pz = P, choosing
// the factoring whose axis ratios most closely match aspect.
func NewCartesianTopology(p int, aspect r3.Vec) (*CartesianTopology, error) {
	if p <= 0 {
		return nil, &errs.ConfigError{Reason: "process count must be positive"}
	}
	if aspect.X <= 0 || aspect.Y <= 0 || aspect.Z <= 0 {
		return nil, &errs.ConfigError{Reason: "box aspect ratio must be positive"}
	}

	best := [3]int{1, 1, p}
	bestScore := math.Inf(1)
	for px := 1; px <= p; px++ {
		if p%px != 0 {
			continue
		}
		remainder := p / px
		for py := 1; py <= remainder; py++ {
			if remainder%py != 0 {
				continue
			}
			pz := remainder / py

			score := aspectDeviation(px, py, pz, aspect)
			if score < bestScore {
				bestScore = score
				best = [3]int{px, py, pz}
			}
		}
	}

	return &CartesianTopology{dims: best}, nil
}

func aspectDeviation(px, py, pz int, aspect r3.Vec) float64 {
	rx := float64(px) / aspect.X
	ry := float64(py) / aspect.Y
	rz := float64(pz) / aspect.Z
	mean := (rx + ry + rz) / 3
	dx, dy, dz := rx-mean, ry-mean, rz-mean
	return dx*dx + dy*dy + dz*dz
}

// Dims returns (Px, Py, Pz).
func (t *CartesianTopology) Dims() [3]int { return t.dims }

// P returns the total process count.
func (t *CartesianTopology) P() int { return t.dims[0] * t.dims[1] * t.dims[2] }

// Coords returns the coordinate triple of rank r.
func (t *CartesianTopology) Coords(r int) [3]int {
	return [3]int{
		(r / t.dims[2]) / t.dims[1],
		(r / t.dims[2]) % t.dims[1],
		r % t.dims[2],
	}
}

// Rank returns the rank owning coordinate c, wrapping periodically on
// each axis first.
func (t *CartesianTopology) Rank(c [3]int) int {
	wc := [3]int{
		wrapCoord(c[0], t.dims[0]),
		wrapCoord(c[1], t.dims[1]),
		wrapCoord(c[2], t.dims[2]),
	}
	return (wc[0]*t.dims[1]+wc[1])*t.dims[2] + wc[2]
}

func wrapCoord(c, n int) int {
	c %= n
	if c < 0 {
		c += n
	}
	return c
}

// IsUpperBoundary reports whether rank r sits on the global upper
// boundary along axis d (coords[d] == dims[d]-1), the same condition
// the repartitioner checks inline to pin corners on periodic-wrap axes.
func (t *CartesianTopology) IsUpperBoundary(r, d int) bool {
	c := t.Coords(r)
	return c[d] == t.dims[d]-1
}

// NeighborRanks returns the distinct ranks in the 26-neighborhood of r,
// in the order first discovered while scanning offsets
// {-1,0,1}^3 \ {(0,0,0)}. A rank appearing via more than one wrap
// direction (small process counts per axis) is returned only once.
func (t *CartesianTopology) NeighborRanks(r int) []int {
	c := t.Coords(r)
	seen := make(map[int]bool)
	var out []int
	for ox := -1; ox <= 1; ox++ {
		for oy := -1; oy <= 1; oy++ {
			for oz := -1; oz <= 1; oz++ {
				if ox == 0 && oy == 0 && oz == 0 {
					continue
				}
				nc := [3]int{c[0] + ox, c[1] + oy, c[2] + oz}
				nr := t.Rank(nc)
				if nr == r || seen[nr] {
					continue
				}
				seen[nr] = true
				out = append(out, nr)
			}
		}
	}
	return out
}

// SourceNeighbors and DestNeighbors split the 26-neighborhood into the
// two halves used to build a directed graph communicator: SourceNeighbors
// are ranks reachable via an offset with every component >= 0,
// DestNeighbors via every component <= 0. Both lists end with r itself
// appended, matching repa's init_neighbors() (which seeds the graph
// communicator's adjacency with a self-edge).
func (t *CartesianTopology) SourceNeighbors(r int) []int {
	return halfNeighbors(t, r, func(ox, oy, oz int) bool { return ox >= 0 && oy >= 0 && oz >= 0 })
}

func (t *CartesianTopology) DestNeighbors(r int) []int {
	return halfNeighbors(t, r, func(ox, oy, oz int) bool { return ox <= 0 && oy <= 0 && oz <= 0 })
}

func halfNeighbors(t *CartesianTopology, r int, keep func(ox, oy, oz int) bool) []int {
	c := t.Coords(r)
	seen := make(map[int]bool)
	var out []int
	for ox := -1; ox <= 1; ox++ {
		for oy := -1; oy <= 1; oy++ {
			for oz := -1; oz <= 1; oz++ {
				if ox == 0 && oy == 0 && oz == 0 {
					continue
				}
				if !keep(ox, oy, oz) {
					continue
				}
				nc := [3]int{c[0] + ox, c[1] + oy, c[2] + oz}
				nr := t.Rank(nc)
				if nr == r || seen[nr] {
					continue
				}
				seen[nr] = true
				out = append(out, nr)
			}
		}
	}
	out = append(out, r)
	return out
}
