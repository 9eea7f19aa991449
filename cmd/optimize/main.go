// Package main tunes the grid and compute settings with CMA-ES: table
// oversize, parallel threshold and worker count, scored by mean tick time
// of a headless run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/hashgrid/config"
)

// evalRecord is one row of optimize_log.csv.
type evalRecord struct {
	Eval              int     `csv:"eval"`
	TickUS            float64 `csv:"tick_us"`
	CollisionRate     float64 `csv:"collision_rate"`
	TableSize         int     `csv:"table_size"`
	ParallelThreshold int     `csv:"parallel_threshold"`
	Workers           int     `csv:"workers"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	ticks := flag.Int("ticks", 300, "Measured ticks per run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector(runtime.GOMAXPROCS(0))

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, *ticks, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential: runs are timed
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	startTime := time.Now()

	// Wrap the function to log evaluations
	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		clamped := params.Clamp(params.Denormalize(x))
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = clamped
		}

		applied := *baseCfg
		params.ApplyToConfig(&applied, clamped)
		rec := []evalRecord{{
			Eval:              evalCount,
			TickUS:            fitness,
			CollisionRate:     evaluator.LastCollisionRate(),
			TableSize:         applied.Grid.TableSize,
			ParallelThreshold: applied.Compute.ParallelThreshold,
			Workers:           applied.Compute.Workers,
		}}
		if evalCount == 1 {
			err = gocsv.Marshal(rec, logFile)
		} else {
			err = gocsv.MarshalWithoutHeaders(rec, logFile)
		}
		if err != nil {
			log.Printf("failed to write log row: %v", err)
		}

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

		fmt.Printf("Eval %d/%d: tick=%.0fus table=%d threshold=%d workers=%d (best=%.0fus) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, fitness,
			applied.Grid.TableSize, applied.Compute.ParallelThreshold, applied.Compute.Workers,
			bestFitness, formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d, particles: %d\n", *seeds, *ticks, baseCfg.Sim.Particles)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best tick time: %.0fus\n", bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.3f\n", spec.Name, spec.Path, bestParams[i])
	}

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
