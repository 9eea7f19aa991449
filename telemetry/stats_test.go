package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/hashgrid/hashgrid"
)

func TestNewGridStats(t *testing.T) {
	report := hashgrid.Report{
		Slots:            16,
		Live:             10,
		DistinctKeys:     4,
		CollidingBuckets: 1,
		CollidingEntries: 4,
		MaxQuantError:    0.0005,
		Occupancy:        []float64{4, 1, 2, 3},
	}

	s := NewGridStats(300, report)

	if s.Tick != 300 || s.Particles != 10 || s.Slots != 16 {
		t.Errorf("unexpected identity fields: %+v", s)
	}
	if s.LoadFactor != 0.25 {
		t.Errorf("expected load factor 0.25, got %v", s.LoadFactor)
	}
	if s.CollisionRate != 0.25 {
		t.Errorf("expected collision rate 0.25, got %v", s.CollisionRate)
	}
	if s.OccupancyMean != 2.5 {
		t.Errorf("expected mean occupancy 2.5, got %v", s.OccupancyMean)
	}
	// Sample standard deviation of {1,2,3,4}
	if want := math.Sqrt(5.0 / 3.0); math.Abs(s.OccupancyStd-want) > 1e-9 {
		t.Errorf("expected std %v, got %v", want, s.OccupancyStd)
	}
	if s.OccupancyMax != 4 {
		t.Errorf("expected max occupancy 4, got %v", s.OccupancyMax)
	}
	if s.OccupancyP50 != 2 || s.OccupancyP95 != 4 {
		t.Errorf("unexpected quantiles p50=%v p95=%v", s.OccupancyP50, s.OccupancyP95)
	}
	// Input must not be reordered
	if report.Occupancy[0] != 4 {
		t.Error("occupancy slice was sorted in place")
	}
}

func TestNewGridStats_Empty(t *testing.T) {
	s := NewGridStats(0, hashgrid.Report{})

	if s.LoadFactor != 0 || s.OccupancyMean != 0 || s.OccupancyMax != 0 {
		t.Errorf("expected zero stats for empty report, got %+v", s)
	}
}

func TestNewGridStats_SingleBucket(t *testing.T) {
	s := NewGridStats(1, hashgrid.Report{Slots: 1, Live: 1, DistinctKeys: 1, Occupancy: []float64{1}})

	if math.IsNaN(s.OccupancyStd) || s.OccupancyStd != 0 {
		t.Errorf("expected zero std for one bucket, got %v", s.OccupancyStd)
	}
}
