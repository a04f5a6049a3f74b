package weights_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedrelay/pkg/weights"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := weights.Vector{1.5, -2.25, 0, math.MaxFloat32}

	payload, err := weights.Encode(v)
	require.NoError(t, err)
	assert.Len(t, payload, 4*len(v))

	got, err := weights.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestDecodeLittleEndian(t *testing.T) {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:], math.Float32bits(3))
	binary.LittleEndian.PutUint32(payload[4:], math.Float32bits(4))

	v, err := weights.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, weights.Vector{3, 4}, v)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		err     error
	}{
		{
			name:    "empty payload",
			payload: nil,
			err:     weights.ErrEmptyVector,
		},
		{
			name:    "truncated payload",
			payload: []byte{0x00, 0x00, 0x80},
			err:     weights.ErrMalformedPayload,
		},
		{
			name:    "trailing bytes",
			payload: []byte{0, 0, 0, 0, 1},
			err:     weights.ErrMalformedPayload,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := weights.Decode(tc.payload)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestEncodeEmpty(t *testing.T) {
	_, err := weights.Encode(nil)
	assert.ErrorIs(t, err, weights.ErrEmptyVector)
}

func TestL2Norm(t *testing.T) {
	assert.InDelta(t, 5.0, weights.Vector{3, 4}.L2Norm(), 1e-9)
	assert.InDelta(t, 0.0, weights.Vector{0, 0, 0}.L2Norm(), 1e-9)
}

func TestSameShape(t *testing.T) {
	err := weights.SameShape(weights.Vector{1, 2}, weights.Vector{3, 4})
	assert.NoError(t, err)

	err = weights.SameShape(weights.Vector{1, 2}, weights.Vector{3})
	assert.ErrorIs(t, err, weights.ErrShapeMismatch)

	err = weights.SameShape(weights.Vector{1, 2}, weights.Vector{})
	assert.ErrorIs(t, err, weights.ErrEmptyVector)

	err = weights.SameShape()
	assert.ErrorIs(t, err, weights.ErrEmptyVector)
}

func TestCloneIsIndependent(t *testing.T) {
	v := weights.Vector{1, 2, 3}
	c := v.Clone()
	c[0] = 42
	assert.Equal(t, float32(1), v[0])
}
