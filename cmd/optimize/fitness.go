package main

import (
	"fmt"
	"math"
	"time"

	"github.com/pthm-cable/hashgrid/config"
	"github.com/pthm-cable/hashgrid/sim"
)

// penalty is the fitness of a configuration that fails to run or validate.
const penalty = 1e9

// FitnessEvaluator runs headless simulations and scores tick time.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int
	warmup     int
	seeds      []int64
	baseConfig *config.Config

	lastCollisionRate float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		ticks:      ticks,
		warmup:     max(ticks/10, 1),
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastCollisionRate returns the bucket collision rate of the most recent
// evaluation, averaged over seeds.
func (fe *FitnessEvaluator) LastCollisionRate() float64 {
	return fe.lastCollisionRate
}

// Evaluate computes fitness for a parameter vector (lower = better): the
// mean tick time in microseconds over all seeds. Seeds run one at a time
// so they do not compete for workers.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	var total, collisions float64
	for _, seed := range fe.seeds {
		us, rate, err := fe.runSimulation(cfg, seed)
		if err != nil {
			fmt.Printf("  seed %d failed: %v\n", seed, err)
			return penalty
		}
		total += us
		collisions += rate
	}

	n := float64(len(fe.seeds))
	fe.lastCollisionRate = collisions / n
	return total / n
}

// runSimulation returns the mean tick time in microseconds after warmup
// and the collision rate of the final validation.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) (float64, float64, error) {
	s, err := sim.New(cfg, sim.Options{Seed: seed, ValidateEvery: math.MaxInt32})
	if err != nil {
		return 0, 0, err
	}
	defer s.Close()

	for range fe.warmup {
		if err := s.Step(); err != nil {
			return 0, 0, err
		}
	}

	start := time.Now()
	for range fe.ticks {
		if err := s.Step(); err != nil {
			return 0, 0, err
		}
	}
	elapsed := time.Since(start)

	stats, err := s.Validate()
	if err != nil {
		return 0, 0, err
	}
	return float64(elapsed.Microseconds()) / float64(fe.ticks), stats.CollisionRate, nil
}

// copyConfig returns a copy of the base config for one evaluation.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
