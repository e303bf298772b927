package transport

// defaultMP holds the process-wide MessagePassing implementation set by
// Register, mirroring other_examples/btracey-mpi__mpi.go's package-level
// mpier/Register pair: a program wires up its transport once, normally
// during initialization, and the rest of the program calls Default()
// rather than threading the concrete implementation through everywhere.
var defaultMP MessagePassing

// Register sets the process-wide MessagePassing implementation. Intended
// to be called once, early in program startup. cmd/simrun does not use
// it (it constructs and passes transport.Local handles directly, one per
// simulated rank, since a single process stands in for the whole fleet),
// but a real multi-process deployment wiring a genuine MPI binding would
// call Register(mpiImpl) before building any GridPartitioner.
func Register(mp MessagePassing) {
	defaultMP = mp
}

// Default returns the MessagePassing implementation set by Register, or
// nil if Register has not been called.
func Default() MessagePassing {
	return defaultMP
}
