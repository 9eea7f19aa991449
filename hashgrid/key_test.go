package hashgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodec_RoundTripWithinOneStep(t *testing.T) {
	for _, dims := range []Dims{Dims2, Dims3} {
		codec := Codec{Bound: DefaultBound, Dims: dims}
		step := codec.Step()

		const samples = 97
		for i := 0; i <= samples; i++ {
			for j := 0; j <= samples; j++ {
				x := -codec.Bound + 2*codec.Bound*float32(i)/samples
				y := -codec.Bound + 2*codec.Bound*float32(j)/samples
				p := Vec{x, y, (x - y) / 2}

				err := codec.RoundTripError(p)
				if err > step {
					t.Fatalf("dims %d: round trip of %v off by %v (step %v)", dims, p, err, step)
				}
			}
		}
	}
}

func TestCodec_DecodeIsStable(t *testing.T) {
	codec := DefaultCodec()
	k := codec.Encode(Vec{0.1234, -1.5})
	// Re-encoding a decoded position reproduces the same field.
	assert.Equal(t, k.Position(), codec.Encode(codec.Decode(k)).Position())
}

func TestCodec_ClampsOutOfRange(t *testing.T) {
	codec := DefaultCodec()
	got := codec.Decode(codec.Encode(Vec{5, -5}))

	assert.InDelta(t, codec.Bound, got[0], float64(codec.Step()))
	assert.InDelta(t, -codec.Bound, got[1], float64(codec.Step()))
}

func TestCodec_2DIgnoresZ(t *testing.T) {
	codec := DefaultCodec()
	k := codec.Encode(Vec{1, 1, 1.5})

	assert.Equal(t, float32(0), codec.Decode(k)[2])
	assert.Zero(t, k.Position()>>(2*PositionBits), "z field must be empty in 2D")
}

func TestCodec_AxisOrder(t *testing.T) {
	codec := Codec{Bound: 1, Dims: Dims3}
	k := codec.Encode(Vec{1, -1, -1})

	// x occupies the lowest position bits, z the highest
	assert.Equal(t, uint64(positionMask), k.Position()&positionMask)
	assert.Zero(t, k.Position()>>PositionBits)
}

func TestPackedKey_Fields(t *testing.T) {
	codec := DefaultCodec()
	pos := codec.Encode(Vec{0.5, -0.25})
	k := pos.WithClass(3) | EncodeIndex(42)

	assert.Equal(t, uint32(42), k.Index())
	assert.Equal(t, uint8(3), k.Class())
	assert.Equal(t, pos.Position(), k.Position())
	assert.True(t, k.HasParticle())

	k = k.WithClass(5)
	assert.Equal(t, uint8(5), k.Class())
	assert.Equal(t, uint32(42), k.Index(), "class update must not touch the index")
}

func TestPackedKey_NoParticle(t *testing.T) {
	assert.False(t, EncodeIndex(NoParticle).HasParticle())
	assert.Equal(t, NoParticle, padding.Payload.Index())
	assert.Equal(t, uint32(1<<23-1), NoParticle)

	// Indices wider than the field are truncated
	assert.Equal(t, uint32(5), EncodeIndex(1<<IndexBits+5).Index())
}
