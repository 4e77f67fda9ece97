package vectoria

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Vector is one stored embedding: a fixed number of float32 components,
// as configured per database. Once stored it is treated as immutable and
// shared read-only.
type Vector []float32

// Copy returns an independent copy of the vector.
func (v Vector) Copy() Vector {
	return append(Vector{}, v...)
}

// readVector decodes dimSize big-endian float32 components.
//
// A +Inf component is treated as the end-of-data sentinel and returns
// errEndOfData instead of a truncated vector. This conflates a legitimate
// infinite value with end-of-stream; the tradeoff is inherited from the
// file format, which has no length prefix to rely on instead.
func readVector(r io.Reader, dimSize uint32) (Vector, error) {
	var buf [4]byte
	result := make(Vector, 0, dimSize)
	for i := uint32(0); i < dimSize; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("failed to read vector component: %w", err)
		}
		component := math.Float32frombits(binary.BigEndian.Uint32(buf[:]))
		if math.IsInf(float64(component), 1) {
			return nil, errEndOfData
		}
		result = append(result, component)
	}
	return result, nil
}

// writeVector encodes the vector's components as big-endian float32 values.
func writeVector(w io.Writer, vector Vector) error {
	buf := make([]byte, 4*len(vector))
	for i, component := range vector {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(component))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write vector: %w", err)
	}
	return nil
}
