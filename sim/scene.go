package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"

	"github.com/pthm-cable/hashgrid/components"
)

// ErrUnknownScene is returned when a scene name is not registered.
var ErrUnknownScene = errors.New("unknown scene")

// Scene places n particles inside [-extent, extent] on both axes.
type Scene func(rng *rand.Rand, n int, extent float32) []components.Position

var scenes = map[string]Scene{
	"random":  randomScene,
	"lattice": latticeScene,
	"block":   blockScene,
}

// SceneNames returns the registered scene names in sorted order.
func SceneNames() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupScene returns the scene registered under name.
func LookupScene(name string) (Scene, error) {
	scene, ok := scenes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownScene, name, strings.Join(SceneNames(), ", "))
	}
	return scene, nil
}

// randomScene scatters particles uniformly.
func randomScene(rng *rand.Rand, n int, extent float32) []components.Position {
	ps := make([]components.Position, n)
	for i := range ps {
		ps[i] = components.Position{
			X: (rng.Float32()*2 - 1) * extent,
			Y: (rng.Float32()*2 - 1) * extent,
		}
	}
	return ps
}

// latticeScene places particles on a square lattice filling the region,
// with a small jitter so no two particles coincide on a cell boundary.
func latticeScene(rng *rand.Rand, n int, extent float32) []components.Position {
	return latticeIn(rng, n, -extent, -extent, extent, extent)
}

// blockScene packs particles into the lower-left quarter, dam-break style.
func blockScene(rng *rand.Rand, n int, extent float32) []components.Position {
	return latticeIn(rng, n, -extent, -extent, 0, 0)
}

func latticeIn(rng *rand.Rand, n int, x0, y0, x1, y1 float32) []components.Position {
	ps := make([]components.Position, n)
	if n == 0 {
		return ps
	}
	side := int(math.Ceil(math.Sqrt(float64(n))))
	dx := (x1 - x0) / float32(side)
	dy := (y1 - y0) / float32(side)
	for i := range ps {
		col, row := i%side, i/side
		ps[i] = components.Position{
			X: x0 + (float32(col)+0.5+(rng.Float32()-0.5)*0.1)*dx,
			Y: y0 + (float32(row)+0.5+(rng.Float32()-0.5)*0.1)*dy,
		}
	}
	return ps
}
