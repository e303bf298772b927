// Package transport abstracts the message-passing facility the design
// overview treats as an external collaborator (spec.md §6
// "MessagePassing"). The interface is grounded on
// other_examples/btracey-mpi__mpi.go's Mpi interface (Init/Finalize/
// Rank/Size/Send/Receive over a registered implementation); it keeps
// Rank/Size, not Init/Finalize/Send/Receive, and adds the collective
// operations the repartitioner needs: a neighborhood all-gather, a full
// all-gather, and a sum all-reduce.
//
// Local is an in-process fake, built on a shared scratch table and a
// sync.Cond barrier, fit for driving
// several simulated ranks from a single `go test` binary: the pure-Go,
// testable analogue of btracey-mpi's net-based Network implementation
// and of cogentcore-core__dummy.go's build-tag-gated no-op fallback
// (no real MPI wire transport is in scope here, see spec.md §1).
package transport

import "gonum.org/v1/gonum/spatial/r3"

// Neighborhood is the distributed-graph-communicator analogue built by
// MPI_Dist_graph_create_adjacent in the original source: a directed graph
// with a (possibly distinct) source list, the ranks this rank receives
// from in a neighborhood collective, and destination list, the ranks it
// sends to. Lists built by topology.CartesianTopology.SourceNeighbors/
// DestNeighbors end with the rank's own id, matching init_neighbors()
// seeding the graph with a self-edge. Both endpoints of
// a link must agree on their own neighbor order; they need not agree on
// each other's.
type Neighborhood struct {
	Self    int
	Sources []int
	Dests   []int
}

// MessagePassing is the collaborator interface the decomposition engine
// depends on. Every gather and reduce call is collective: every rank
// must invoke it, in the same relative order, for the implementation to
// make progress. Rank, Size and NewNeighborhood are local calls.
type MessagePassing interface {
	Rank() int
	Size() int

	// NewNeighborhood builds a Neighborhood descriptor for this rank from
	// ordered source and destination rank lists (as produced by
	// topology.CartesianTopology.SourceNeighbors/DestNeighbors).
	NewNeighborhood(sources, dests []int) *Neighborhood

	// AllgatherPoint gathers one r3.Vec from every rank, in rank order.
	AllgatherPoint(v r3.Vec) []r3.Vec

	// NeighborAllgatherFloat gathers one float64 from every source rank
	// in nh, in nh.Sources order.
	NeighborAllgatherFloat(nh *Neighborhood, v float64) []float64

	// NeighborAllgatherPoint gathers one r3.Vec from every source rank in
	// nh, in nh.Sources order.
	NeighborAllgatherPoint(nh *Neighborhood, v r3.Vec) []r3.Vec

	// AllreduceSumInt sums v across every rank and returns the total to
	// all of them.
	AllreduceSumInt(v int) int
}
