package vectoria

import (
	"errors"
	"fmt"
)

// ErrCorrupted indicates the data section violates the ascending-id
// invariant the binary search depends on. This is fatal: the operation
// that detects it aborts, and no repair is attempted.
var ErrCorrupted = errors.New("database is corrupted")

// ErrNotImplemented is returned by declared-but-unimplemented operations.
var ErrNotImplemented = errors.New("not implemented")

// ErrNameConflict is returned when creating a database whose backing file
// already exists.
var ErrNameConflict = errors.New("conflicting database name")

// errEndOfData signals the +Inf end-of-data sentinel during vector decoding.
// It never escapes the package; callers translate it into their own terms.
var errEndOfData = errors.New("end of data")

// DimensionError indicates a vector whose length does not match the
// database's configured dimensionality.
type DimensionError struct {
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch (expected %d, actual %d)", e.Expected, e.Actual)
}

// OutOfBoundsError indicates a graph operation referenced a node id at or
// beyond the graph's length.
type OutOfBoundsError struct {
	Expected uint32 // minimum length that would have made the ids valid
	Actual   uint32 // the graph's current length
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("exceeds boundary (expected to be at least %d, actual %d)", e.Expected, e.Actual)
}

// NodeNotFoundError indicates an external node id with no dense mapping in
// a scattered graph.
type NodeNotFoundError struct {
	Node uint32
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %d does not exist", e.Node)
}

// UnknownProductError indicates a header whose product tag does not match
// the vectoria file format.
type UnknownProductError struct {
	Product string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown product name (%s)", e.Product)
}
