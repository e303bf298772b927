// Command simrun is a demo driver for the grid-point-displacement
// decomposition engine: it builds an in-process fleet of simulated ranks
// and repeatedly repartitions them against a synthetic skewed load,
// following the cobra/viper command layout of the gocfd sibling example's
// cmd package.
package main

func main() {
	Execute()
}
