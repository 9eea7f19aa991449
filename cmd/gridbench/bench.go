package main

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hashgrid/compute"
	"github.com/pthm-cable/hashgrid/hashgrid"
	"github.com/pthm-cable/hashgrid/sim"
	"github.com/pthm-cable/hashgrid/telemetry"
)

// result is one row of the benchmark CSV.
type result struct {
	Particles     int     `csv:"particles"`
	Radius        float64 `csv:"radius"`
	TableSize     int     `csv:"table_size"`
	SortRounds    int     `csv:"sort_rounds"`
	BuildUS       float64 `csv:"build_us"`
	BuildStdUS    float64 `csv:"build_std_us"`
	WriteUS       float64 `csv:"write_us"`
	SortUS        float64 `csv:"sort_us"`
	IndexUS       float64 `csv:"index_us"`
	QueryNS       float64 `csv:"query_ns"` // per query
	MeanNeighbors float64 `csv:"mean_neighbors"`
	CollisionRate float64 `csv:"collision_rate"`
	LoadFactor    float64 `csv:"load_factor"`
	OccupancyMean float64 `csv:"occupancy_mean"`
	OccupancyP95  float64 `csv:"occupancy_p95"`
	MaxQuantError float64 `csv:"max_quant_error"`
}

// sweep holds the benchmark grid.
type sweep struct {
	MinParticles, MaxParticles int
	ParticleSteps              int
	MinRadius, MaxRadius       float64
	RadiusSteps                int
	Reps                       int
	Scene                      string
	Extent                     float32
	Seed                       int64
}

// particleCounts spaces particle counts logarithmically.
func (s sweep) particleCounts() []int {
	if s.ParticleSteps < 2 || s.MinParticles == s.MaxParticles {
		return []int{s.MinParticles}
	}
	span := floats.LogSpan(make([]float64, s.ParticleSteps), float64(s.MinParticles), float64(s.MaxParticles))
	counts := make([]int, 0, len(span))
	for _, v := range span {
		n := int(math.Round(v))
		if len(counts) == 0 || counts[len(counts)-1] != n {
			counts = append(counts, n)
		}
	}
	return counts
}

// radii spaces cell sizes linearly.
func (s sweep) radii() []float64 {
	if s.RadiusSteps < 2 || s.MinRadius == s.MaxRadius {
		return []float64{s.MinRadius}
	}
	return floats.Span(make([]float64, s.RadiusSteps), s.MinRadius, s.MaxRadius)
}

// positions places n particles with the named scene.
func (s sweep) positions(n int) ([]hashgrid.Vec, error) {
	place, err := sim.LookupScene(s.Scene)
	if err != nil {
		return nil, err
	}
	ps := place(rand.New(rand.NewSource(s.Seed)), n, s.Extent)
	out := make([]hashgrid.Vec, len(ps))
	for i, p := range ps {
		out[i] = hashgrid.Vec{p.X, p.Y}
	}
	return out, nil
}

// runCase builds the index reps times, queries every particle once and
// validates the final build.
func runCase(dev *compute.Device, codec hashgrid.Codec, positions []hashgrid.Vec, radius, tolerance float32, reps int) (result, error) {
	ix := hashgrid.NewIndex(dev, hashgrid.Options{Codec: codec})
	reps = max(reps, 1)

	build := make([]float64, reps)
	var write, sorting, index float64
	var last hashgrid.BuildStats
	for i := range reps {
		if err := ix.Build(positions, radius); err != nil {
			return result{}, err
		}
		last = ix.LastStats()
		build[i] = us(last.Total())
		write += us(last.Write)
		sorting += us(last.Sort)
		index += us(last.Index)
	}
	mean, std := stat.MeanStdDev(build, nil)
	if reps < 2 {
		std = 0
	}

	view, err := ix.View()
	if err != nil {
		return result{}, err
	}
	counts := make([]float64, len(positions))
	var hits []hashgrid.Neighbor
	start := time.Now()
	for i, p := range positions {
		hits = view.Query(hits[:0], positions, p, radius, 0)
		counts[i] = float64(len(hits))
	}
	queryTime := time.Since(start)

	report, err := ix.Validate(positions, tolerance)
	if err != nil {
		return result{}, err
	}
	gs := telemetry.NewGridStats(0, report)

	r := result{
		Particles:     len(positions),
		Radius:        float64(radius),
		TableSize:     last.Size,
		SortRounds:    last.SortRounds,
		BuildUS:       mean,
		BuildStdUS:    std,
		WriteUS:       write / float64(reps),
		SortUS:        sorting / float64(reps),
		IndexUS:       index / float64(reps),
		CollisionRate: gs.CollisionRate,
		LoadFactor:    gs.LoadFactor,
		OccupancyMean: gs.OccupancyMean,
		OccupancyP95:  gs.OccupancyP95,
		MaxQuantError: gs.MaxQuantError,
	}
	if n := len(positions); n > 0 {
		r.QueryNS = float64(queryTime.Nanoseconds()) / float64(n)
		r.MeanNeighbors = floats.Sum(counts) / float64(n)
	}
	return r, nil
}

func us(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}
