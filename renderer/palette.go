package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Default particle color when no color overlay is active.
var particleColor = rl.Color{R: 120, G: 180, B: 255, A: 255}

var classColors = [8]rl.Color{
	{R: 230, G: 90, B: 90, A: 255},
	{R: 90, G: 200, B: 120, A: 255},
	{R: 90, G: 140, B: 240, A: 255},
	{R: 230, G: 200, B: 80, A: 255},
	{R: 200, G: 110, B: 220, A: 255},
	{R: 80, G: 210, B: 210, A: 255},
	{R: 240, G: 150, B: 70, A: 255},
	{R: 200, G: 200, B: 200, A: 255},
}

// BucketColor spreads bucket keys around the hue circle so neighboring
// keys get distinct colors.
func BucketColor(key uint32) rl.Color {
	const golden = 0.618033988749895
	hue := float32(math.Mod(float64(key)*golden, 1)) * 360
	return rl.ColorFromHSV(hue, 0.65, 0.95)
}

// ClassColor returns the color for a cell class.
func ClassColor(class uint8) rl.Color {
	return classColors[class%uint8(len(classColors))]
}
