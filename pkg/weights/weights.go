// Package weights defines the flattened model representation exchanged
// between contributors and the relay store, together with its wire codec.
//
// The wire format is a flat array of little-endian IEEE-754 32-bit floats
// with no header and no length prefix. A payload is well formed iff its
// byte length is a non-zero multiple of 4.
package weights

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const elemSize = 4

var (
	ErrEmptyVector      = errors.New("empty weight vector")
	ErrShapeMismatch    = errors.New("weight vectors have mismatched lengths")
	ErrMalformedPayload = errors.New("payload length is not a multiple of element size")
)

// Vector is a flattened model as an ordered sequence of float32 values.
type Vector []float32

// Decode parses a wire payload into a Vector.
func Decode(payload []byte) (Vector, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyVector
	}
	if len(payload)%elemSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedPayload, len(payload))
	}

	v := make(Vector, len(payload)/elemSize)
	for i := range v {
		bits := binary.LittleEndian.Uint32(payload[i*elemSize:])
		v[i] = math.Float32frombits(bits)
	}

	return v, nil
}

// Encode serializes a Vector into its wire payload.
func Encode(v Vector) ([]byte, error) {
	if len(v) == 0 {
		return nil, ErrEmptyVector
	}

	payload := make([]byte, len(v)*elemSize)
	for i, f := range v {
		binary.LittleEndian.PutUint32(payload[i*elemSize:], math.Float32bits(f))
	}

	return payload, nil
}

// L2Norm returns the Euclidean norm of the vector.
func (v Vector) L2Norm() float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}

	return math.Sqrt(sum)
}

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)

	return out
}

// SameShape reports whether every vector shares one length.
// It fails with ErrEmptyVector when any vector is empty.
func SameShape(vectors ...Vector) error {
	if len(vectors) == 0 {
		return ErrEmptyVector
	}

	n := len(vectors[0])
	for _, v := range vectors {
		if len(v) == 0 {
			return ErrEmptyVector
		}
		if len(v) != n {
			return fmt.Errorf("%w: %d vs %d", ErrShapeMismatch, n, len(v))
		}
	}

	return nil
}
