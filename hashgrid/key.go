// Package hashgrid implements a spatial hash grid index for radius-neighbor
// search over particle positions.
//
// Each tick the Index is rebuilt from the live positions in three
// barrier-separated phases (write, sort, index) on a compute.Device. The
// result is a lookup table sorted by bucket key plus a start-offset table,
// which queries read concurrently. Validate cross-checks a host readback of
// both tables against the authoritative positions.
package hashgrid

import "math"

// Bit layout of a PackedKey, least significant first:
//
//	bits  0..22  particle index (NoParticle when the slot is padding)
//	bits 23..27  cell class
//	bits 28..39  x, quantized
//	bits 40..51  y, quantized
//	bits 52..63  z, quantized (zero in 2D)
const (
	IndexBits    = 23
	ClassBits    = 5
	PositionBits = 12

	classShift    = IndexBits
	positionShift = IndexBits + ClassBits

	indexMask    = 1<<IndexBits - 1
	classMask    = 1<<ClassBits - 1
	positionMask = 1<<PositionBits - 1
)

// NoParticle is the index value stored in padding slots.
// It is never a valid particle index.
const NoParticle uint32 = indexMask

// MaxParticles is the largest particle count an index can hold.
const MaxParticles = int(NoParticle)

// DefaultBound is the default quantization bound B; positions are
// quantized over [-B, B] on every axis.
const DefaultBound = 2.0

// DefaultTolerance is the per-axis decode error accepted by Validate.
const DefaultTolerance = 0.002

// PackedKey is the 64-bit lookup payload: particle index, cell class and
// quantized position.
type PackedKey uint64

// EncodeIndex returns a key holding only the particle index i.
// Indices above MaxParticles are truncated to the index field.
func EncodeIndex(i uint32) PackedKey {
	return PackedKey(i & indexMask)
}

// Index returns the particle index. NoParticle means the slot is padding.
func (k PackedKey) Index() uint32 {
	return uint32(k) & indexMask
}

// HasParticle reports whether the key refers to a particle.
func (k PackedKey) HasParticle() bool {
	return k.Index() != NoParticle
}

// Class returns the cell class tag.
func (k PackedKey) Class() uint8 {
	return uint8(k>>classShift) & classMask
}

// WithClass returns k with its class field replaced.
func (k PackedKey) WithClass(class uint8) PackedKey {
	k &^= classMask << classShift
	return k | PackedKey(class&classMask)<<classShift
}

// Position returns the raw position field (three 12-bit axes).
func (k PackedKey) Position() uint64 {
	return uint64(k) >> positionShift
}

// Dims is the number of spatial axes in use.
type Dims uint8

const (
	Dims2 Dims = 2
	Dims3 Dims = 3
)

// Codec quantizes positions into the position field of a PackedKey.
type Codec struct {
	Bound float32
	Dims  Dims
}

// DefaultCodec returns the 2D codec over [-DefaultBound, DefaultBound].
func DefaultCodec() Codec {
	return Codec{Bound: DefaultBound, Dims: Dims2}
}

// Step returns the width of one quantization step.
func (c Codec) Step() float32 {
	return 2 * c.Bound / (1 << PositionBits)
}

// quantize maps v from [-Bound, Bound] to [0, 4095]. Out of range values
// clamp to the nearest edge.
func (c Codec) quantize(v float32) uint64 {
	t := (v + c.Bound) / (2 * c.Bound)
	if !(t > 0) { // also catches NaN
		return 0
	}
	if t >= 1 {
		return positionMask
	}
	return uint64(t * positionMask)
}

// dequantize returns the center of bin q, so the decode error is at most
// half a bin.
func (c Codec) dequantize(q uint64) float32 {
	return (float32(q)+0.5)/positionMask*(2*c.Bound) - c.Bound
}

// Encode packs p into the position field. The index and class fields are
// zero. Encode never fails; positions outside the bound alias to the edge.
func (c Codec) Encode(p Vec) PackedKey {
	var packed uint64
	if c.Dims == Dims3 {
		packed = c.quantize(p[2])
	}
	packed = packed<<PositionBits | c.quantize(p[1])
	packed = packed<<PositionBits | c.quantize(p[0])
	return PackedKey(packed << positionShift)
}

// Decode unpacks the position field of k. Z is zero unless Dims is Dims3.
func (c Codec) Decode(k PackedKey) Vec {
	packed := k.Position()
	var p Vec
	p[0] = c.dequantize(packed & positionMask)
	p[1] = c.dequantize(packed >> PositionBits & positionMask)
	if c.Dims == Dims3 {
		p[2] = c.dequantize(packed >> (2 * PositionBits) & positionMask)
	}
	return p
}

// RoundTripError returns the largest per-axis error of Decode(Encode(p)).
func (c Codec) RoundTripError(p Vec) float32 {
	q := c.Decode(c.Encode(p))
	var worst float64
	for axis := 0; axis < int(c.Dims); axis++ {
		worst = math.Max(worst, math.Abs(float64(q[axis]-p[axis])))
	}
	return float32(worst)
}
