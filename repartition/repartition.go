// Package repartition implements the Repartitioner (C6): load-weighted
// displacement of this rank's corner grid-point, a validity check on the
// candidate geometry, and collective commit-or-rollback across every
// rank. The algorithm follows C. Begau & G. Sutmann's grid-point
// displacement scheme as implemented in repa's gridbased.cpp
// (GridBasedGrid::repartition/command).
package repartition

import (
	"fmt"
	"log"
	"regexp"
	"strconv"

	"github.com/domdecomp/gridbased/gridstate"
	"github.com/domdecomp/gridbased/topology"
	"github.com/domdecomp/gridbased/transport"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// muCommand matches the "mu = <float>" command string, per spec.md §6.
var muCommand = regexp.MustCompile(`^\s*mu\s*=\s*(\d+\.|\.\d+|\d+\.\d+)\s*$`)

// Command parses a command string and, if it sets mu, updates Mu. rank 0
// logs the new value, matching repa's "if (this_node == 0) std::cout..."
// in GridBasedGrid::command.
func (rp *Repartitioner) Command(s string, rank int) error {
	m := muCommand.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return fmt.Errorf("repartition: parsing mu value %q: %w", m[1], err)
	}
	rp.Mu = v
	if rank == 0 {
		log.Printf("setting mu = %g", rp.Mu)
	}
	return nil
}

// LoadMetric returns one non-negative weight per local cell, in the same
// order as the Decomposer's local cell list.
type LoadMetric func() []float64

// Repartitioner owns the tunable step size and the shared neighborhood
// communicator analogue, and performs one repartition tick at a time.
type Repartitioner struct {
	MP           transport.MessagePassing
	Topo         *topology.CartesianTopology
	Neighborhood *transport.Neighborhood

	Mu          float64
	MinCellSize float64
	Verbose     bool
}

// New creates a Repartitioner with the default step size (mu = 1.0). The
// neighborhood collective is built from the source/dest split of rank's
// 26-neighborhood (topology.SourceNeighbors/DestNeighbors), matching
// init_neighbors()'s MPI_Dist_graph_create_adjacent call, distinct from
// the plain deduplicated neighbor list the Decomposer uses for ghost
// exchange.
func New(mp transport.MessagePassing, topo *topology.CartesianTopology, rank int, minCellSize float64) *Repartitioner {
	return &Repartitioner{
		MP:           mp,
		Topo:         topo,
		Neighborhood: mp.NewNeighborhood(topo.SourceNeighbors(rank), topo.DestNeighbors(rank)),
		Mu:           1.0,
		MinCellSize:  minCellSize,
	}
}

// CenterOfLoad is the mean of particlePositions, each particle counting
// once, or, when there are no local particles, the mean of
// cellMidpoints. Matches
// repa's center_of_load(), which is unweighted by the load metric: it is
// a purely geometric center, used as the "pull point" neighbors compare
// their own center against.
func CenterOfLoad(particlePositions, cellMidpoints []r3.Vec) r3.Vec {
	if len(particlePositions) > 0 {
		return mean(particlePositions)
	}
	return mean(cellMidpoints)
}

func mean(pts []r3.Vec) r3.Vec {
	var sum r3.Vec
	for _, p := range pts {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(pts)), sum)
}

// Repartition performs one full repartition tick (spec.md §4.6):
//
//  1. poll the load metric and compute this rank's center of load
//  2. gather (lambda, r) from the neighborhood's source ranks: the ranks
//     at offsets >= 0 on every axis, which share this rank's corner, and
//     this rank itself
//  3. compute the candidate corner displacement
//  4. all-gather the tentative corner table and check for conflicts
//  5. on conflict: roll back and return false
//  6. on acceptance: mark the grid deformed, rebuild octagons, invoke
//     onCommit (the caller's particle migration hook), then
//     rebuildDecomposer, in that order, so the caller can use the new
//     geometry (via PositionToRank) to migrate particles before the old
//     cell/ghost lists are discarded.
func (rp *Repartitioner) Repartition(
	gs *gridstate.GridState,
	metric LoadMetric,
	particlePositions []r3.Vec,
	localCellMidpoints []r3.Vec,
	rebuildOctagons func(),
	onCommit func() error,
	rebuildDecomposer func() error,
) (bool, error) {
	tick := uuid.New().String()[:8]

	weights := metric()
	lambdaP := sum(weights)
	rP := CenterOfLoad(particlePositions, localCellMidpoints)

	// nneigh always counts at least the self-edge init_neighbors() seeds
	// the graph with, so an isolated rank (P=1) still runs the exchange
	// below against itself; lambdaHat comes out to exactly 1 and the
	// displacement is the zero vector, the same outcome the original
	// gets by never special-casing this case either.
	nneigh := len(rp.Neighborhood.Sources)

	lambda := rp.MP.NeighborAllgatherFloat(rp.Neighborhood, lambdaP)
	lnormalizer := sum(lambda) / float64(nneigh)

	rNeigh := rp.MP.NeighborAllgatherPoint(rp.Neighborhood, rP)

	var displacement r3.Vec
	for i := 0; i < nneigh; i++ {
		lambdaHat := lambda[i] / lnormalizer
		u := r3.Sub(rNeigh[i], gs.GridPoint)
		length := r3.Norm(u)
		if length == 0 {
			continue
		}
		f := r3.Scale((lambdaHat-1)/length, u)
		displacement = r3.Add(displacement, f)
	}

	coords := rp.Topo.Coords(gs.Rank)
	dims := rp.Topo.Dims()
	newCorner := gs.GridPoint
	if coords[0] != dims[0]-1 {
		newCorner.X += rp.Mu * displacement.X
	}
	if coords[1] != dims[1]-1 {
		newCorner.Y += rp.Mu * displacement.Y
	}
	if coords[2] != dims[2]-1 {
		newCorner.Z += rp.Mu * displacement.Z
	}

	identity := newCorner == gs.GridPoint

	oldGridPoint := gs.GridPoint
	oldGridPoints := make([]r3.Vec, len(gs.GridPoints))
	copy(oldGridPoints, gs.GridPoints)

	gs.GridPoint = newCorner
	gs.GridPoints = rp.MP.AllgatherPoint(gs.GridPoint)

	bb := gs.BoundingBox(gs.Rank)
	nconflicts := conflictCount(bb, 2*rp.MinCellSize)
	nconflicts = rp.MP.AllreduceSumInt(nconflicts)

	if nconflicts > 0 {
		gs.GridPoint = oldGridPoint
		gs.GridPoints = oldGridPoints
		if rp.Verbose {
			log.Printf("repartition[%s] rank %d: rejected, %d corner conflicts", tick, gs.Rank, nconflicts)
		}
		return false, nil
	}

	if !identity {
		gs.IsRegularGrid = false
	}
	rebuildOctagons()
	if err := onCommit(); err != nil {
		return false, fmt.Errorf("repartition[%s] rank %d: exchange_start_callback: %w", tick, gs.Rank, err)
	}
	if err := rebuildDecomposer(); err != nil {
		return false, fmt.Errorf("repartition[%s] rank %d: decomposer rebuild after commit: %w", tick, gs.Rank, err)
	}

	if rp.Verbose {
		log.Printf("repartition[%s] rank %d: accepted, new corner %.6g", tick, gs.Rank, gs.GridPoint)
	}
	return true, nil
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// conflictCount counts corner pairs closer together than minDist, the
// heuristic lower bound ensuring at least one cell fits between adjacent
// corners.
func conflictCount(corners [8]r3.Vec, minDist float64) int {
	n := 0
	for i := 0; i < len(corners); i++ {
		for j := i + 1; j < len(corners); j++ {
			if r3.Norm(r3.Sub(corners[i], corners[j])) < minDist {
				n++
			}
		}
	}
	return n
}
