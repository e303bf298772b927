package box

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewGlobalBox_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		L    r3.Vec
		N    [3]int
		min  float64
	}{
		{"zero cell count", r3.Vec{X: 4, Y: 4, Z: 4}, [3]int{0, 4, 4}, 0},
		{"negative length", r3.Vec{X: -1, Y: 4, Z: 4}, [3]int{4, 4, 4}, 0},
		{"cell size below minimum", r3.Vec{X: 4, Y: 4, Z: 4}, [3]int{4, 4, 4}, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewGlobalBox(c.L, c.N, c.min); err == nil {
				t.Fatalf("expected a ConfigError, got nil")
			}
		})
	}
}

func TestGlobalBox_MidpointAndCellAtPos_RoundTrip(t *testing.T) {
	b, err := NewGlobalBox(r3.Vec{X: 4, Y: 4, Z: 4}, [3]int{4, 4, 4}, 0.1)
	if err != nil {
		t.Fatalf("NewGlobalBox: %v", err)
	}
	for g := 0; g < b.NCells(); g++ {
		mp := b.Midpoint(g)
		if got := b.CellAtPos(mp); got != g {
			t.Errorf("cell %d: CellAtPos(Midpoint(%d)) = %d", g, g, got)
		}
	}
}

func TestGlobalBox_CellAtPos_PeriodicWrap(t *testing.T) {
	b, err := NewGlobalBox(r3.Vec{X: 4, Y: 4, Z: 4}, [3]int{4, 4, 4}, 0.1)
	if err != nil {
		t.Fatalf("NewGlobalBox: %v", err)
	}
	inside := b.CellAtPos(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
	wrapped := b.CellAtPos(r3.Vec{X: 4.5, Y: 4.5, Z: 4.5})
	if inside != wrapped {
		t.Errorf("expected periodic wrap to alias (4.5,4.5,4.5) to (0.5,0.5,0.5): got %d vs %d", inside, wrapped)
	}
	negative := b.CellAtPos(r3.Vec{X: -0.5, Y: -0.5, Z: -0.5})
	expect := b.CellAtPos(r3.Vec{X: 3.5, Y: 3.5, Z: 3.5})
	if negative != expect {
		t.Errorf("expected periodic wrap for negative coordinates: got %d, want %d", negative, expect)
	}
}

func TestGlobalBox_FullShellNeighWithoutCenter_Is26Distinct(t *testing.T) {
	b, err := NewGlobalBox(r3.Vec{X: 8, Y: 8, Z: 8}, [3]int{4, 4, 4}, 0.1)
	if err != nil {
		t.Fatalf("NewGlobalBox: %v", err)
	}
	shell := b.FullShellNeighWithoutCenter(0)
	seen := make(map[int]bool, 26)
	for _, g := range shell {
		if g == 0 {
			t.Errorf("shell must not contain the center cell")
		}
		seen[g] = true
	}
	if len(seen) != 26 {
		t.Errorf("expected 26 distinct neighbors for a 4x4x4 grid, got %d", len(seen))
	}
}

func TestGlobalBox_Neighbor_PeriodicWrapAtEdge(t *testing.T) {
	b, err := NewGlobalBox(r3.Vec{X: 4, Y: 4, Z: 4}, [3]int{2, 2, 2}, 0.1)
	if err != nil {
		t.Fatalf("NewGlobalBox: %v", err)
	}
	// cell 0 is (0,0,0); its (-1,0,0) offset neighbor must wrap to (1,0,0).
	shell := b.FullShellNeighWithoutCenter(0)
	wantWrapped := b.linearize([3]int{1, 0, 0})
	found := false
	for _, g := range shell {
		if g == wantWrapped {
			found = true
		}
	}
	if !found {
		t.Errorf("expected wrapped neighbor %d in shell of cell 0: %v", wantWrapped, shell)
	}
}
