package main

import (
	"math"

	"github.com/pthm-cable/hashgrid/config"
	"github.com/pthm-cable/hashgrid/hashgrid"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the grid tuning parameters. maxWorkers bounds the
// worker count search.
func NewParamVector(maxWorkers int) *ParamVector {
	maxWorkers = max(maxWorkers, 2)
	return &ParamVector{
		Specs: []ParamSpec{
			// Table oversize as a power of two over the minimum
			{Name: "table_factor_log2", Path: "grid.table_size", Min: 0, Max: 3, Default: 0},
			{Name: "parallel_threshold_log2", Path: "compute.parallel_threshold", Min: 3, Max: 12, Default: 6},
			{Name: "workers", Path: "compute.workers", Min: 1, Max: float64(maxWorkers), Default: float64(maxWorkers)},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Max(spec.Min, math.Min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct. The
// continuous values are rounded to what the grid accepts.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	// Order must match Specs order
	factor := int(math.Round(clamped[0]))
	cfg.Grid.TableSize = hashgrid.TableSize(cfg.Sim.Particles) << factor

	cfg.Compute.ParallelThreshold = 1 << int(math.Round(clamped[1]))
	cfg.Compute.Workers = int(math.Round(clamped[2]))
}
