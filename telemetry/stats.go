package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hashgrid/hashgrid"
)

// GridStats summarizes one validation run of the spatial index.
type GridStats struct {
	Tick             int32   `csv:"tick"`
	Particles        int     `csv:"particles"`
	Slots            int     `csv:"slots"`
	DistinctKeys     int     `csv:"distinct_keys"`
	CollidingBuckets int     `csv:"colliding_buckets"`
	CollidingEntries int     `csv:"colliding_entries"`
	CollisionRate    float64 `csv:"collision_rate"`
	LoadFactor       float64 `csv:"load_factor"` // distinct keys / slots
	MaxQuantError    float64 `csv:"max_quant_error"`

	// Bucket occupancy distribution
	OccupancyMean float64 `csv:"occupancy_mean"`
	OccupancyStd  float64 `csv:"occupancy_std"`
	OccupancyP50  float64 `csv:"occupancy_p50"`
	OccupancyP95  float64 `csv:"occupancy_p95"`
	OccupancyMax  float64 `csv:"occupancy_max"`
}

// NewGridStats computes summary statistics from a validation report.
func NewGridStats(tick int32, r hashgrid.Report) GridStats {
	s := GridStats{
		Tick:             tick,
		Particles:        r.Live,
		Slots:            r.Slots,
		DistinctKeys:     r.DistinctKeys,
		CollidingBuckets: r.CollidingBuckets,
		CollidingEntries: r.CollidingEntries,
		CollisionRate:    r.CollisionRate(),
		MaxQuantError:    float64(r.MaxQuantError),
	}
	if r.Slots > 0 {
		s.LoadFactor = float64(r.DistinctKeys) / float64(r.Slots)
	}

	if len(r.Occupancy) == 0 {
		return s
	}

	// Quantile requires sorted input
	sorted := slices.Clone(r.Occupancy)
	slices.Sort(sorted)

	s.OccupancyMean, s.OccupancyStd = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		s.OccupancyStd = 0
	}
	s.OccupancyP50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.OccupancyP95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	s.OccupancyMax = sorted[len(sorted)-1]

	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GridStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", int(s.Tick)),
		slog.Int("particles", s.Particles),
		slog.Int("slots", s.Slots),
		slog.Int("distinct_keys", s.DistinctKeys),
		slog.Int("colliding_buckets", s.CollidingBuckets),
		slog.Int("colliding_entries", s.CollidingEntries),
		slog.Float64("collision_rate", s.CollisionRate),
		slog.Float64("occupancy_mean", s.OccupancyMean),
		slog.Float64("occupancy_p95", s.OccupancyP95),
		slog.Float64("occupancy_max", s.OccupancyMax),
		slog.Float64("max_quant_error", s.MaxQuantError),
	)
}
