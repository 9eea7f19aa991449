// Command gridbench sweeps particle count and cell size, timing index
// builds and queries, and writes one CSV row per case.
//
// Usage: go run ./cmd/gridbench -output bench.csv
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hashgrid/compute"
	"github.com/pthm-cable/hashgrid/config"
	"github.com/pthm-cable/hashgrid/hashgrid"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	output := flag.String("output", "gridbench.csv", "CSV output path")
	minN := flag.Int("min-particles", 1000, "Smallest particle count")
	maxN := flag.Int("max-particles", 100000, "Largest particle count")
	nSteps := flag.Int("particle-steps", 5, "Particle counts between min and max (log spaced)")
	minR := flag.Float64("min-radius", 0.01, "Smallest cell size")
	maxR := flag.Float64("max-radius", 0.1, "Largest cell size")
	rSteps := flag.Int("radius-steps", 4, "Cell sizes between min and max")
	reps := flag.Int("reps", 5, "Builds per case")
	scene := flag.String("scene", "", "Scene (empty = config scene)")
	seed := flag.Int64("seed", 1, "RNG seed")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *output, *scene, *seed, *reps,
		*minN, *maxN, *nSteps, *minR, *maxR, *rSteps); err != nil {
		slog.Error("gridbench failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, output, scene string, seed int64, reps, minN, maxN, nSteps int, minR, maxR float64, rSteps int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if scene == "" {
		scene = cfg.Sim.Scene
	}

	dims := hashgrid.Dims2
	if cfg.Grid.Dims == 3 {
		dims = hashgrid.Dims3
	}
	codec := hashgrid.Codec{Bound: cfg.Derived.Bound32, Dims: dims}

	sw := sweep{
		MinParticles:  minN,
		MaxParticles:  maxN,
		ParticleSteps: nSteps,
		MinRadius:     minR,
		MaxRadius:     maxR,
		RadiusSteps:   rSteps,
		Reps:          reps,
		Scene:         scene,
		Extent:        cfg.Derived.Extent32,
		Seed:          seed,
	}

	dev := compute.NewDevice(compute.Options{
		Workers:           cfg.Compute.Workers,
		ParallelThreshold: cfg.Compute.ParallelThreshold,
	})
	defer dev.Close()

	var results []result
	for _, n := range sw.particleCounts() {
		positions, err := sw.positions(n)
		if err != nil {
			return err
		}
		for _, radius := range sw.radii() {
			r, err := runCase(dev, codec, positions, float32(radius), cfg.Derived.Tolerance32, sw.Reps)
			if err != nil {
				return err
			}
			slog.Info("case",
				"particles", r.Particles,
				"radius", r.Radius,
				"build_us", int(r.BuildUS),
				"sort_rounds", r.SortRounds,
				"query_ns", int(r.QueryNS),
				"mean_neighbors", r.MeanNeighbors,
				"collision_rate", r.CollisionRate,
			)
			results = append(results, r)
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gocsv.Marshal(results, f); err != nil {
		return err
	}
	slog.Info("results written", "path", output, "cases", len(results))
	return nil
}
