package gridpartition

import (
	"sync"
	"testing"

	"github.com/domdecomp/gridbased/errs"
	"github.com/domdecomp/gridbased/repartition"
	"github.com/domdecomp/gridbased/transport"
	"gonum.org/v1/gonum/spatial/r3"
)

// buildFleet constructs one GridPartitioner per simulated rank, sharing an
// in-process transport.Local world, running each New() call in its own
// goroutine as each rank would run in its own process. New itself makes
// no collective call (it rebuilds the Decomposer, which calls none, and
// Local.NewNeighborhood does not rendezvous), but every rank still needs
// a live MessagePassing handle to hand to the Repartitioner it constructs.
func buildFleet(t *testing.T, p int, L r3.Vec, N [3]int, minCellSize float64) []*GridPartitioner {
	t.Helper()
	world := transport.NewLocalWorld(p)

	fleet := make([]*GridPartitioner, p)
	errsOut := make([]error, p)
	var wg sync.WaitGroup
	for r := 0; r < p; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			mp := world.NewLocal(r)
			gp, err := New(mp, L, N, minCellSize)
			fleet[r] = gp
			errsOut[r] = err
		}(r)
	}
	wg.Wait()

	for r, err := range errsOut {
		if err != nil {
			t.Fatalf("rank %d: New: %v", r, err)
		}
	}
	return fleet
}

func TestNew_P1_SingleRankOwnsWholeBox(t *testing.T) {
	fleet := buildFleet(t, 1, r3.Vec{X: 4, Y: 4, Z: 4}, [3]int{4, 4, 4}, 0.1)
	gp := fleet[0]

	if gp.NLocalCells() != 64 {
		t.Errorf("expected 64 local cells, got %d", gp.NLocalCells())
	}
	if gp.NGhostCells() != 0 {
		t.Errorf("expected 0 ghost cells, got %d", gp.NGhostCells())
	}
	if gp.NNeighbors() != 0 {
		t.Errorf("expected 0 neighbors for P=1, got %d", gp.NNeighbors())
	}
	if len(gp.GetBoundaryInfo()) != 0 {
		t.Errorf("expected empty boundary info for P=1, got %v", gp.GetBoundaryInfo())
	}
}

func TestNew_P8_CoverageAndGhostSymmetry(t *testing.T) {
	const P = 8
	fleet := buildFleet(t, P, r3.Vec{X: 8, Y: 8, Z: 8}, [3]int{8, 8, 8}, 0.1)

	covered := make(map[int]int)
	for _, gp := range fleet {
		if gp.NLocalCells() != 8*8*8/P {
			t.Errorf("rank %d: expected %d local cells in a uniform 2x2x2 split, got %d", gp.rank, 8*8*8/P, gp.NLocalCells())
		}
		for i := 0; i < gp.NLocalCells(); i++ {
			covered[gp.result.Cells[i]]++
		}
	}
	if len(covered) != fleet[0].Box.NCells() {
		t.Fatalf("expected every one of %d cells covered, got %d", fleet[0].Box.NCells(), len(covered))
	}
	for g, n := range covered {
		if n != 1 {
			t.Errorf("cell %d claimed %d times, want exactly once", g, n)
		}
	}

	for _, gp := range fleet {
		for _, ex := range gp.GetBoundaryInfo() {
			other := fleet[ex.Dest]
			var found bool
			for _, oex := range other.GetBoundaryInfo() {
				if oex.Dest == gp.rank {
					found = true
					if len(oex.Recv) != len(ex.Send) {
						t.Errorf("rank %d->%d send has %d entries, rank %d's recv-from-%d has %d", gp.rank, ex.Dest, len(ex.Send), ex.Dest, gp.rank, len(oex.Recv))
					}
				}
			}
			if !found {
				t.Errorf("rank %d declares exchange with %d, which has no matching entry", gp.rank, ex.Dest)
			}
		}
	}
}

func TestPositionToRank_RoundTripsThroughCellMidpoint(t *testing.T) {
	const P = 8
	fleet := buildFleet(t, P, r3.Vec{X: 8, Y: 8, Z: 8}, [3]int{8, 8, 8}, 0.1)

	owner := make(map[int]int)
	for _, gp := range fleet {
		for i := 0; i < gp.NLocalCells(); i++ {
			owner[gp.result.Cells[i]] = gp.rank
		}
	}

	for g := 0; g < fleet[0].Box.NCells(); g++ {
		mp := fleet[0].Box.Midpoint(g)
		want := owner[g]
		for _, gp := range fleet {
			got, err := gp.PositionToRank(mp)
			if err != nil {
				t.Fatalf("rank %d: PositionToRank(%v): %v", gp.rank, mp, err)
			}
			if got != want {
				t.Errorf("rank %d: PositionToRank(midpoint of cell %d) = %d, want %d", gp.rank, g, got, want)
			}
		}
		local, err := fleet[want].PositionToCellIndex(mp)
		if err != nil {
			t.Fatalf("owning rank %d: PositionToCellIndex(%v): %v", want, mp, err)
		}
		if local >= fleet[want].NLocalCells() {
			t.Errorf("owning rank %d: PositionToCellIndex returned %d, want < Nlocal=%d", want, local, fleet[want].NLocalCells())
		}
	}
}

func TestPositionToCellIndex_NotLocalOnForeignPoint(t *testing.T) {
	fleet := buildFleet(t, 8, r3.Vec{X: 8, Y: 8, Z: 8}, [3]int{8, 8, 8}, 0.1)

	gp0 := fleet[0]
	far := r3.Vec{X: 7.5, Y: 7.5, Z: 7.5}
	rank, err := gp0.PositionToRank(far)
	if err != nil {
		t.Fatalf("PositionToRank: %v", err)
	}
	if rank == gp0.rank {
		t.Skip("chosen far point happens to still belong to rank 0 on this topology")
	}
	_, err = gp0.PositionToCellIndex(far)
	if err == nil {
		t.Fatalf("expected NotLocalError for a foreign-rank point")
	}
	if _, ok := err.(*errs.NotLocalError); !ok {
		t.Errorf("expected *errs.NotLocalError, got %T (%v)", err, err)
	}
}

func TestRepartition_UniformLoadCommitsWithoutMovingCorner(t *testing.T) {
	const P = 8
	fleet := buildFleet(t, P, r3.Vec{X: 8, Y: 8, Z: 8}, [3]int{8, 8, 8}, 0.1)

	var wg sync.WaitGroup
	before := make([]r3.Vec, P)
	after := make([]r3.Vec, P)
	committed := make([]bool, P)
	errsOut := make([]error, P)

	for r, gp := range fleet {
		before[r] = gp.state.GridPoint
		wg.Add(1)
		go func(r int, gp *GridPartitioner) {
			defer wg.Done()
			ok, err := gp.Repartition(func() []float64 {
				w := make([]float64, gp.NLocalCells())
				for i := range w {
					w[i] = 1
				}
				return w
			}, nil, func() error { return nil })
			committed[r] = ok
			after[r] = gp.state.GridPoint
			errsOut[r] = err
		}(r, gp)
	}
	wg.Wait()

	for r := 0; r < P; r++ {
		if errsOut[r] != nil {
			t.Fatalf("rank %d: %v", r, errsOut[r])
		}
		if !committed[r] {
			t.Errorf("rank %d: expected uniform-load repartition to commit", r)
		}
		if r3.Norm(r3.Sub(after[r], before[r])) > 1e-9 {
			t.Errorf("rank %d: corner moved under uniform load: %v -> %v", r, before[r], after[r])
		}
	}
}

func TestCommand_DelegatesToRepartitioner(t *testing.T) {
	fleet := buildFleet(t, 1, r3.Vec{X: 4, Y: 4, Z: 4}, [3]int{4, 4, 4}, 0.1)
	gp := fleet[0]
	if err := gp.Command("mu = 0.3"); err != nil {
		t.Fatalf("Command: %v", err)
	}
	if gp.repartitioner.Mu != 0.3 {
		t.Errorf("expected Mu=0.3, got %g", gp.repartitioner.Mu)
	}
}

var _ Partitioner = (*GridPartitioner)(nil)
var _ repartition.LoadMetric = func() []float64 { return nil }
