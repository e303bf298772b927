// Package errs collects the error kinds shared across the decomposition
// engine's packages (box, topology, partitions, gridpartition).
// Kept dependency-free so every other package can return these without
// risking an import cycle.
package errs

import "fmt"

// ConfigError reports a construction-time configuration problem: a box
// that cannot be tiled with cells at least as large as the configured
// minimum, or a zero process count.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}

// EmptySubdomainError reports that a rank's local cell count dropped to
// zero after a decomposition rebuild.
type EmptySubdomainError struct {
	Rank int
}

func (e *EmptySubdomainError) Error() string {
	return fmt.Sprintf("rank %d: empty subdomain after decomposition rebuild", e.Rank)
}

// InconsistentNeighborError reports that a rank appears in the Cartesian
// neighbor list but shares no ghost cell with it (or a cell's resolved
// owner is not among the declared neighbors).
type InconsistentNeighborError struct {
	Rank         int
	NeighborRank int
	Detail       string
}

func (e *InconsistentNeighborError) Error() string {
	return fmt.Sprintf("rank %d: inconsistent neighbor %d: %s", e.Rank, e.NeighborRank, e.Detail)
}

// OutOfNeighborhoodError reports that position_to_rank was asked to
// resolve a point outside of self and its 26-neighborhood.
type OutOfNeighborhoodError struct {
	Rank int
}

func (e *OutOfNeighborhoodError) Error() string {
	return fmt.Sprintf("rank %d: position outside of self and its neighborhood", e.Rank)
}

// NotLocalError reports that position_to_cell_index was invoked for a
// point that resolves to a ghost-layer cell or to a different rank.
type NotLocalError struct {
	Rank int
}

func (e *NotLocalError) Error() string {
	return fmt.Sprintf("rank %d: position is not local (ghost layer or foreign rank)", e.Rank)
}
