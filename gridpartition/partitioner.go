// Package gridpartition is the public façade (§6): it wires box, topology,
// geom, gridstate, partitions, and repartition together behind the
// Partitioner interface and folds in the Resolver (C7): position-to-rank
// and position-to-cell resolution in both the regular and deformed grid
// states. Everything here is orchestration; the component packages do the
// actual geometry and algorithm work.
package gridpartition

import (
	"fmt"
	"math"

	"github.com/domdecomp/gridbased/box"
	"github.com/domdecomp/gridbased/errs"
	"github.com/domdecomp/gridbased/geom"
	"github.com/domdecomp/gridbased/gridstate"
	"github.com/domdecomp/gridbased/partitions"
	"github.com/domdecomp/gridbased/repartition"
	"github.com/domdecomp/gridbased/topology"
	"github.com/domdecomp/gridbased/transport"
	"gonum.org/v1/gonum/spatial/r3"
)

// Partitioner is the common interface every partitioning strategy in the
// original source implements (grid-based here; graph/diffusion/hybrid are
// siblings that spec.md excludes by name (see §9's "sum type" note).
// GridPartitioner is this module's sole implementation.
type Partitioner interface {
	NLocalCells() int
	NGhostCells() int
	NNeighbors() int
	NeighborRank(i int) int
	CellNeighborIndex(c, k int) int
	GetBoundaryInfo() []partitions.GhostExchangeDesc
	PositionToCellIndex(p r3.Vec) (int, error)
	PositionToRank(p r3.Vec) (int, error)
	PositionToNeighIdx(p r3.Vec) (int, error)
	Repartition(metric repartition.LoadMetric, particlePositions []r3.Vec, onCommit func() error) (bool, error)
	CellSize() r3.Vec
	GridSize() [3]int
	Command(s string) error
}

// GridPartitioner is the grid-point-displacement partitioner: the only
// concrete Partitioner this module builds.
type GridPartitioner struct {
	Box  *box.GlobalBox
	Topo *topology.CartesianTopology
	MP   transport.MessagePassing

	rank int

	state *gridstate.GridState

	neighborRanks []int // fixed order: topology's dedup 26-neighborhood of rank
	myDom         *geom.Octagon
	neighborDoms  []*geom.Octagon // parallel to neighborRanks

	decomposer *partitions.Decomposer
	result     *partitions.Result

	repartitioner *repartition.Repartitioner
}

// New builds a GridPartitioner for this rank: a uniform box of size L
// split into N cells, a process grid derived from mp.Size() and the box's
// aspect ratio, and an initial regular (axis-aligned) decomposition.
func New(mp transport.MessagePassing, L r3.Vec, N [3]int, minCellSize float64) (*GridPartitioner, error) {
	b, err := box.NewGlobalBox(L, N, minCellSize)
	if err != nil {
		return nil, err
	}
	t, err := topology.NewCartesianTopology(mp.Size(), L)
	if err != nil {
		return nil, err
	}

	rank := mp.Rank()
	gs := gridstate.New(rank, b, t)
	neighborRanks := t.NeighborRanks(rank)

	gp := &GridPartitioner{
		Box:           b,
		Topo:          t,
		MP:            mp,
		rank:          rank,
		state:         gs,
		neighborRanks: neighborRanks,
		repartitioner: repartition.New(mp, t, rank, minCellSize),
	}

	gp.rebuildOctagons()

	gp.decomposer = &partitions.Decomposer{
		Box:           b,
		Rank:          rank,
		NeighborRanks: neighborRanks,
		Strict:        true,
	}
	if err := gp.rebuildDecomposer(); err != nil {
		return nil, err
	}

	return gp, nil
}

// rebuildOctagons recomputes this rank's Octagon and every declared
// neighbor's Octagon from the current replicated corner table. Both are
// needed: the former for local-cell membership, the latter for the
// deformed-grid slow path in PositionToRank.
func (gp *GridPartitioner) rebuildOctagons() {
	gp.myDom = geom.NewOctagon(gp.state.BoundingBox(gp.rank))
	gp.neighborDoms = make([]*geom.Octagon, len(gp.neighborRanks))
	for i, nr := range gp.neighborRanks {
		gp.neighborDoms[i] = geom.NewOctagon(gp.state.BoundingBox(nr))
	}
}

// rebuildDecomposer rebuilds the local/ghost cell lists and exchange
// descriptors from the current Octagons.
func (gp *GridPartitioner) rebuildDecomposer() error {
	result, err := gp.decomposer.Rebuild(gp.ownerOf)
	if err != nil {
		return err
	}
	gp.result = result
	return nil
}

// ownerOf resolves, for cell g, whether it belongs to self, to one of the
// declared neighbors, or to neither. The third case is only ever reached
// from Decomposer's local-cell scan (step 1 of spec.md §4.5), which only
// compares the result against self; any non-self, non-erroring value is
// correct there. For a 26-neighbor of an already-local cell (step 2), the
// owner must resolve to self or a declared neighbor by construction; if
// it does not, Decomposer.Rebuild panics (New builds it with Strict set;
// a non-strict Decomposer returns InconsistentNeighborError instead).
func (gp *GridPartitioner) ownerOf(g int) (int, error) {
	mp := gp.Box.Midpoint(g)
	if gp.myDom.Contains(mp) {
		return gp.rank, nil
	}
	for i, dom := range gp.neighborDoms {
		if dom.Contains(mp) {
			return gp.neighborRanks[i], nil
		}
	}
	return -1, nil
}

// NLocalCells returns the number of cells owned by this rank.
func (gp *GridPartitioner) NLocalCells() int { return gp.result.NLocal }

// NGhostCells returns the number of ghost cells this rank holds.
func (gp *GridPartitioner) NGhostCells() int { return gp.result.NGhost }

// NNeighbors returns the number of distinct neighbor ranks (0 only if
// P = 1).
func (gp *GridPartitioner) NNeighbors() int { return len(gp.neighborRanks) }

// NeighborRank returns the rank of the i-th neighbor.
func (gp *GridPartitioner) NeighborRank(i int) int { return gp.neighborRanks[i] }

// CellNeighborIndex returns the local-or-ghost index of the k-th periodic
// neighbor of local cell c.
func (gp *GridPartitioner) CellNeighborIndex(c, k int) int {
	g := gp.result.Cells[c]
	ng := gp.Box.Neighbor(g, k)
	return gp.result.GlobalToLocal[ng]
}

// GetBoundaryInfo returns the ghost-exchange descriptors built by the last
// Decomposer rebuild.
func (gp *GridPartitioner) GetBoundaryInfo() []partitions.GhostExchangeDesc {
	return gp.result.Exchange
}

// regularRank returns the rank owning p under the initial axis-aligned
// tiling, in closed form: the fast path used while IsRegularGrid holds.
func (gp *GridPartitioner) regularRank(p r3.Vec) int {
	dims := gp.Topo.Dims()
	L := gp.Box.L
	c := [3]int{
		axisCoord(p.X, L.X, dims[0]),
		axisCoord(p.Y, L.Y, dims[1]),
		axisCoord(p.Z, L.Z, dims[2]),
	}
	return gp.Topo.Rank(c)
}

// axisCoord wraps x into [0, length) periodically and returns the index of
// the dim-way slab it falls in, matching the axis-aligned tiling
// gridstate.New used to place the initial corners.
func axisCoord(x, length float64, dim int) int {
	x = math.Mod(x, length)
	if x < 0 {
		x += length
	}
	c := int(math.Floor(x / (length / float64(dim))))
	if c < 0 {
		c = 0
	}
	if c >= dim {
		c = dim - 1
	}
	return c
}

// PositionToRank resolves the owning rank of world point p by first
// resolving the cell it falls in and using the cell's midpoint, not the
// raw position, so that a particle just inside a cell and one just
// outside it agree on owner. The regular grid takes the closed-form
// Cartesian fast path; a deformed grid falls back to scanning self and
// the declared neighborhood's Octagons.
func (gp *GridPartitioner) PositionToRank(p r3.Vec) (int, error) {
	g := gp.Box.CellAtPos(p)
	mp := gp.Box.Midpoint(g)

	if gp.state.IsRegularGrid {
		return gp.regularRank(mp), nil
	}

	if gp.myDom.Contains(mp) {
		return gp.rank, nil
	}
	for i, dom := range gp.neighborDoms {
		if dom.Contains(mp) {
			return gp.neighborRanks[i], nil
		}
	}
	return 0, &errs.OutOfNeighborhoodError{Rank: gp.rank}
}

// PositionToCellIndex returns the local cell index of the cell owning
// world point p, which must resolve to this rank.
func (gp *GridPartitioner) PositionToCellIndex(p r3.Vec) (int, error) {
	r, err := gp.PositionToRank(p)
	if err != nil {
		return 0, err
	}
	if r != gp.rank {
		return 0, &errs.NotLocalError{Rank: gp.rank}
	}
	g := gp.Box.CellAtPos(p)
	local, ok := gp.result.GlobalToLocal[g]
	if !ok || local >= gp.result.NLocal {
		return 0, &errs.NotLocalError{Rank: gp.rank}
	}
	return local, nil
}

// PositionToNeighIdx returns the 0-based index into the neighbor list of
// the rank owning world point p, which must not be self.
func (gp *GridPartitioner) PositionToNeighIdx(p r3.Vec) (int, error) {
	r, err := gp.PositionToRank(p)
	if err != nil {
		return 0, err
	}
	for i, nr := range gp.neighborRanks {
		if nr == r {
			return i, nil
		}
	}
	return 0, &errs.OutOfNeighborhoodError{Rank: gp.rank}
}

// CellSize returns the per-axis cell size.
func (gp *GridPartitioner) CellSize() r3.Vec { return gp.Box.CellSize() }

// GridSize returns (Nx, Ny, Nz).
func (gp *GridPartitioner) GridSize() [3]int { return gp.Box.GridSize() }

// Command parses a runtime command string (currently only "mu = <float>").
func (gp *GridPartitioner) Command(s string) error {
	return gp.repartitioner.Command(s, gp.rank)
}

// Repartition runs one repartition tick: poll metric, exchange loads,
// displace this rank's corner, validate, and commit or roll back. On
// commit, onCommit runs after the new Octagons are rebuilt but before the
// Decomposer is rebuilt, so the caller can migrate particles using the new
// PositionToRank while the old local/ghost cell lists are still valid.
func (gp *GridPartitioner) Repartition(metric repartition.LoadMetric, particlePositions []r3.Vec, onCommit func() error) (bool, error) {
	midpoints := make([]r3.Vec, gp.result.NLocal)
	for i := 0; i < gp.result.NLocal; i++ {
		midpoints[i] = gp.Box.Midpoint(gp.result.Cells[i])
	}

	committed, err := gp.repartitioner.Repartition(
		gp.state,
		metric,
		particlePositions,
		midpoints,
		gp.rebuildOctagons,
		onCommit,
		gp.rebuildDecomposer,
	)
	if err != nil {
		return false, fmt.Errorf("gridpartition: rank %d: %w", gp.rank, err)
	}
	return committed, nil
}
