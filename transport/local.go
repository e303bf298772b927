package transport

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// world is the shared state backing every rank's Local handle. Collective
// calls rendezvous on barrier twice per call: once so every rank's
// contribution has landed in the shared scratch slot before any rank
// reads it back out, and once more so no rank starts the next collective
// (and overwrites the scratch slots) before every rank has finished
// reading this one.
type world struct {
	size    int
	barrier *cyclicBarrier

	mu sync.Mutex

	pointScratch []r3.Vec
	floatScratch []float64
	intScratch   []int
}

// NewLocalWorld creates the shared state for size simulated ranks. Call
// NewLocal(r) on the result once per simulated rank, typically one per
// goroutine.
func NewLocalWorld(size int) *sharedWorld {
	return &sharedWorld{w: &world{
		size:         size,
		barrier:      newCyclicBarrier(size),
		pointScratch: make([]r3.Vec, size),
		floatScratch: make([]float64, size),
		intScratch:   make([]int, size),
	}}
}

// sharedWorld is the handle returned to callers; NewLocal binds it to a
// specific rank.
type sharedWorld struct {
	w *world
}

// NewLocal returns the MessagePassing implementation for rank r within
// this shared world. r must be unique per call and in [0, size).
func (sw *sharedWorld) NewLocal(r int) *Local {
	return &Local{rank: r, w: sw.w}
}

// Local is the in-process MessagePassing fake: every simulated rank
// shares one *world and rendezvous on its barrier for each collective.
type Local struct {
	rank int
	w    *world
}

func (l *Local) Rank() int { return l.rank }
func (l *Local) Size() int { return l.w.size }

func (l *Local) NewNeighborhood(sources, dests []int) *Neighborhood {
	return &Neighborhood{Self: l.rank, Sources: sources, Dests: dests}
}

func (l *Local) AllgatherPoint(v r3.Vec) []r3.Vec {
	l.w.mu.Lock()
	l.w.pointScratch[l.rank] = v
	l.w.mu.Unlock()
	l.w.barrier.wait()

	out := make([]r3.Vec, l.w.size)
	copy(out, l.w.pointScratch)

	l.w.barrier.wait()
	return out
}

func (l *Local) NeighborAllgatherFloat(nh *Neighborhood, v float64) []float64 {
	l.w.mu.Lock()
	l.w.floatScratch[l.rank] = v
	l.w.mu.Unlock()
	l.w.barrier.wait()

	out := make([]float64, len(nh.Sources))
	for i, r := range nh.Sources {
		out[i] = l.w.floatScratch[r]
	}

	l.w.barrier.wait()
	return out
}

func (l *Local) NeighborAllgatherPoint(nh *Neighborhood, v r3.Vec) []r3.Vec {
	l.w.mu.Lock()
	l.w.pointScratch[l.rank] = v
	l.w.mu.Unlock()
	l.w.barrier.wait()

	out := make([]r3.Vec, len(nh.Sources))
	for i, r := range nh.Sources {
		out[i] = l.w.pointScratch[r]
	}

	l.w.barrier.wait()
	return out
}

func (l *Local) AllreduceSumInt(v int) int {
	l.w.mu.Lock()
	l.w.intScratch[l.rank] = v
	l.w.mu.Unlock()
	l.w.barrier.wait()

	sum := 0
	for _, x := range l.w.intScratch {
		sum += x
	}

	l.w.barrier.wait()
	return sum
}

// cyclicBarrier is a reusable rendezvous point for a fixed number of
// goroutines, the standard double-checkpoint pattern: each call to wait
// blocks until n goroutines have called it, then releases all of them
// together.
type cyclicBarrier struct {
	mu    sync.Mutex
	cond  *sync.Cond
	n     int
	count int
	gen   int
}

func newCyclicBarrier(n int) *cyclicBarrier {
	b := &cyclicBarrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *cyclicBarrier) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.gen
	b.count++
	if b.count == b.n {
		b.count = 0
		b.gen++
		b.cond.Broadcast()
		return
	}
	for b.gen == gen {
		b.cond.Wait()
	}
}
