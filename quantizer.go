// This file implements quantization for the in-memory vector cache.
//
// The file format always stores full-precision float32 records; only the
// cache representation is negotiable. A database configured with the
// half-precision quantizer keeps cached copies at 2 bytes per component
// instead of 4, trading a lossy round-trip for half the resident size.
package vectoria

import (
	"fmt"

	"github.com/x448/float16"
)

// QuantizerType identifies a cache quantization scheme.
type QuantizerType string

const (
	// FullPrecision caches vectors as float32, byte-for-byte what the
	// file stores.
	FullPrecision QuantizerType = "float32"

	// HalfPrecision caches vectors as IEEE 754 half-precision bits
	// (1 sign, 5 exponent, 10 mantissa). 50% smaller, lossy.
	HalfPrecision QuantizerType = "float16"
)

// Quantizer converts vectors into their cached representation.
type Quantizer interface {
	// Quantize stores a vector in the quantizer's cache format. The input
	// is not retained.
	Quantize(vector Vector) CachedVector

	// Type returns the quantization scheme.
	Type() QuantizerType
}

// CachedVector is one cache entry.
type CachedVector interface {
	// Vector materializes the entry back into float32 components. For
	// lossy schemes the result approximates the stored vector.
	Vector() Vector
}

// NewQuantizer creates a quantizer of the specified type.
func NewQuantizer(qType QuantizerType) (Quantizer, error) {
	switch qType {
	case FullPrecision:
		return &FullPrecisionQuantizer{}, nil
	case HalfPrecision:
		return &HalfPrecisionQuantizer{}, nil
	default:
		return nil, fmt.Errorf("unsupported quantizer type: %s", qType)
	}
}

// FullPrecisionQuantizer caches vectors in full 32-bit floating point.
//
// Memory: 4 bytes per component
// Accuracy: exact
type FullPrecisionQuantizer struct{}

func (q *FullPrecisionQuantizer) Quantize(vector Vector) CachedVector {
	return fullPrecisionVector(vector.Copy())
}

func (q *FullPrecisionQuantizer) Type() QuantizerType {
	return FullPrecision
}

type fullPrecisionVector Vector

func (v fullPrecisionVector) Vector() Vector {
	return Vector(v)
}

// HalfPrecisionQuantizer caches vectors as 16-bit floating point.
//
// Memory: 2 bytes per component (50% savings vs float32)
// Accuracy: IEEE 754 half precision
//
// Values are stored as uint16 bit representations and converted back on
// every cache hit.
type HalfPrecisionQuantizer struct{}

func (q *HalfPrecisionQuantizer) Quantize(vector Vector) CachedVector {
	bits := make(halfPrecisionVector, len(vector))
	for i, component := range vector {
		bits[i] = float16.Fromfloat32(component).Bits()
	}
	return bits
}

func (q *HalfPrecisionQuantizer) Type() QuantizerType {
	return HalfPrecision
}

type halfPrecisionVector []uint16

func (v halfPrecisionVector) Vector() Vector {
	result := make(Vector, len(v))
	for i, bits := range v {
		result[i] = float16.Frombits(bits).Float32()
	}
	return result
}
