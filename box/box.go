// Package box implements the uniform 3D cell grid (C1 in the design
// overview): cell midpoints, cell-at-position resolution, and the fixed
// 26-neighborhood, with periodic wrap on all three axes.
//
// Global cell indices are row-major linearized triples, following the
// linearize/unlinearize scheme in repa's util/linearize.hpp.
package box

import (
	"math"

	"github.com/domdecomp/gridbased/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// shellOffsets holds the 26 periodic neighbor offsets in a fixed,
// deterministic order: nested loops over {-1,0,1}^3 with (0,0,0) skipped.
var shellOffsets = func() [26][3]int {
	var offs [26][3]int
	i := 0
	for ox := -1; ox <= 1; ox++ {
		for oy := -1; oy <= 1; oy++ {
			for oz := -1; oz <= 1; oz++ {
				if ox == 0 && oy == 0 && oz == 0 {
					continue
				}
				offs[i] = [3]int{ox, oy, oz}
				i++
			}
		}
	}
	return offs
}()

// GlobalBox is the static, uniform cell grid covering the periodic
// simulation box. It never mutates after construction.
type GlobalBox struct {
	L        r3.Vec // box lengths (Lx, Ly, Lz)
	N        [3]int // cell counts (Nx, Ny, Nz)
	cellSize r3.Vec
}

// NewGlobalBox builds a GlobalBox with N[0]*N[1]*N[2] cells covering a box
// of size L, rejecting configurations whose per-axis cell size falls below
// minCellSize.
func NewGlobalBox(L r3.Vec, N [3]int, minCellSize float64) (*GlobalBox, error) {
	if N[0] <= 0 || N[1] <= 0 || N[2] <= 0 {
		return nil, &errs.ConfigError{Reason: "cell counts must be positive"}
	}
	if L.X <= 0 || L.Y <= 0 || L.Z <= 0 {
		return nil, &errs.ConfigError{Reason: "box lengths must be positive"}
	}

	cellSize := r3.Vec{X: L.X / float64(N[0]), Y: L.Y / float64(N[1]), Z: L.Z / float64(N[2])}
	if cellSize.X < minCellSize || cellSize.Y < minCellSize || cellSize.Z < minCellSize {
		return nil, &errs.ConfigError{Reason: "cell size below configured minimum"}
	}

	return &GlobalBox{L: L, N: N, cellSize: cellSize}, nil
}

// NCells returns Nx*Ny*Nz.
func (b *GlobalBox) NCells() int { return b.N[0] * b.N[1] * b.N[2] }

// CellSize returns the per-axis cell size.
func (b *GlobalBox) CellSize() r3.Vec { return b.cellSize }

// GridSize returns (Nx, Ny, Nz).
func (b *GlobalBox) GridSize() [3]int { return b.N }

func (b *GlobalBox) linearize(c [3]int) int {
	return (c[0]*b.N[1]+c[1])*b.N[2] + c[2]
}

func (b *GlobalBox) unlinearize(g int) [3]int {
	return [3]int{
		(g / b.N[2]) / b.N[1],
		(g / b.N[2]) % b.N[1],
		g % b.N[2],
	}
}

// Midpoint returns the world-space center of global cell g.
func (b *GlobalBox) Midpoint(g int) r3.Vec {
	c := b.unlinearize(g)
	return r3.Vec{
		X: (float64(c[0]) + 0.5) * b.cellSize.X,
		Y: (float64(c[1]) + 0.5) * b.cellSize.Y,
		Z: (float64(c[2]) + 0.5) * b.cellSize.Z,
	}
}

// wrap maps p into [0, L) on every axis, periodically.
func (b *GlobalBox) wrap(p r3.Vec) r3.Vec {
	return r3.Vec{X: wrapAxis(p.X, b.L.X), Y: wrapAxis(p.Y, b.L.Y), Z: wrapAxis(p.Z, b.L.Z)}
}

func wrapAxis(x, length float64) float64 {
	x = math.Mod(x, length)
	if x < 0 {
		x += length
	}
	return x
}

// CellAtPos wraps p periodically and returns the global index of the cell
// containing it.
func (b *GlobalBox) CellAtPos(p r3.Vec) int {
	wp := b.wrap(p)
	cx := clampIndex(int(math.Floor(wp.X/b.cellSize.X)), b.N[0])
	cy := clampIndex(int(math.Floor(wp.Y/b.cellSize.Y)), b.N[1])
	cz := clampIndex(int(math.Floor(wp.Z/b.cellSize.Z)), b.N[2])
	return b.linearize([3]int{cx, cy, cz})
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Neighbor returns the global index of the k-th periodic 26-neighbor of
// cell g, k in [0, 26).
func (b *GlobalBox) Neighbor(g, k int) int {
	c := b.unlinearize(g)
	off := shellOffsets[k]
	nc := [3]int{
		wrapCoord(c[0]+off[0], b.N[0]),
		wrapCoord(c[1]+off[1], b.N[1]),
		wrapCoord(c[2]+off[2], b.N[2]),
	}
	return b.linearize(nc)
}

func wrapCoord(c, n int) int {
	c %= n
	if c < 0 {
		c += n
	}
	return c
}

// FullShellNeighWithoutCenter returns all 26 periodic neighbors of g in
// the same fixed, deterministic order used by Neighbor.
func (b *GlobalBox) FullShellNeighWithoutCenter(g int) [26]int {
	var out [26]int
	for k := 0; k < 26; k++ {
		out[k] = b.Neighbor(g, k)
	}
	return out
}
