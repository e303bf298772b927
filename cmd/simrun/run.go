package main

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/domdecomp/gridbased/config"
	"github.com/domdecomp/gridbased/gridpartition"
	"github.com/domdecomp/gridbased/repartition"
	"github.com/domdecomp/gridbased/transport"
	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"
)

var doProfile bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fixed number of repartition ticks against a skewed load",
	RunE:  runE,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&doProfile, "profile", false, "write a CPU profile of the repartition loop to ./profile/")
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("simrun: reading %s: %w", path, err)
		}
		if err := cfg.Parse(data); err != nil {
			return nil, fmt.Errorf("simrun: parsing %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Print()

	if doProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("./profile")).Stop()
	}

	runID := uuid.New().String()[:8]
	log.Printf("simrun[%s]: starting %d ranks, %d ticks", runID, cfg.ProcessCount, cfg.Ticks)

	L := r3.Vec{X: cfg.Box.L[0], Y: cfg.Box.L[1], Z: cfg.Box.L[2]}
	N := cfg.Box.N
	world := transport.NewLocalWorld(cfg.ProcessCount)

	fleet := make([]*gridpartition.GridPartitioner, cfg.ProcessCount)
	var wg sync.WaitGroup
	buildErrs := make([]error, cfg.ProcessCount)
	for r := 0; r < cfg.ProcessCount; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			gp, err := gridpartition.New(world.NewLocal(r), L, N, cfg.MinCellSize)
			fleet[r] = gp
			buildErrs[r] = err
		}(r)
	}
	wg.Wait()
	for r, err := range buildErrs {
		if err != nil {
			return fmt.Errorf("simrun[%s]: rank %d: %w", runID, r, err)
		}
	}

	for tick := 0; tick < cfg.Ticks; tick++ {
		wg.Add(cfg.ProcessCount)
		committed := make([]bool, cfg.ProcessCount)
		errsOut := make([]error, cfg.ProcessCount)
		for r := 0; r < cfg.ProcessCount; r++ {
			go func(r int) {
				defer wg.Done()
				gp := fleet[r]
				metric := skewedLoad(r, cfg.ProcessCount, gp.NLocalCells())
				ok, err := gp.Repartition(metric, nil, func() error { return nil })
				committed[r] = ok
				errsOut[r] = err
			}(r)
		}
		wg.Wait()

		for r, err := range errsOut {
			if err != nil {
				return fmt.Errorf("simrun[%s]: tick %d rank %d: %w", runID, tick, r, err)
			}
		}
		nrejected := 0
		for _, ok := range committed {
			if !ok {
				nrejected++
			}
		}
		log.Printf("simrun[%s]: tick %d: %d/%d ranks committed", runID, tick, cfg.ProcessCount-nrejected, cfg.ProcessCount)
	}

	return nil
}

// skewedLoad returns a LoadMetric that gives rank 0 ten times the weight
// of every other rank, a synthetic stand-in for a hot region of particles,
// with enough imbalance to exercise the repartitioner's displacement and
// conflict-rejection paths over several ticks.
func skewedLoad(rank, _, nlocal int) repartition.LoadMetric {
	weight := 1.0
	if rank == 0 {
		weight = 10.0
	}
	return func() []float64 {
		w := make([]float64, nlocal)
		for i := range w {
			w[i] = weight
		}
		return w
	}
}
