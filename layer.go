// This file implements index layers and their wire format.
//
// A database holds an ordered stack of layers between the header and the
// data section. Each layer pairs a proximity graph with its level number.
// Layers are read once at load time and carried passively in memory; no
// automatic persistence path writes them back.
//
// WIRE FORMAT (big-endian):
//
//	[level: u32]                      0 terminates the whole layer section
//	repeated [a: u32][b: u32][distance: f32]
//	[a=0][b=0]                        terminates the layer (no distance)
//
// Two values are therefore reserved: a layer cannot have level 0, and the
// (0, 0) self-loop cannot be stored.
package vectoria

import (
	"encoding/binary"
	"fmt"
	"io"
)

// IndexLayer pairs one proximity graph with its level in the index.
type IndexLayer struct {
	// Graph stores the layer's connectivity over dense node ids.
	Graph *ProximityGraph

	// Level is the layer's position in the index hierarchy. Always
	// non-zero: level 0 is the section terminator on disk.
	Level uint32
}

// NewIndexLayer creates a layer from a graph and a level number.
func NewIndexLayer(graph *ProximityGraph, level uint32) *IndexLayer {
	return &IndexLayer{Graph: graph, Level: level}
}

// IsEmpty returns true if the layer's graph holds no nodes.
func (l *IndexLayer) IsEmpty() bool {
	return l.Graph.IsEmpty()
}

// ReadIndexLayer parses one layer from the reader. It returns (nil, nil)
// when the section terminator (level 0) is encountered instead of a layer;
// that is the normal end of the layer section, not an error.
//
// The parsed adjacency list builds a graph sized to the maximum node id
// referenced plus one.
func ReadIndexLayer(r io.Reader) (*IndexLayer, error) {
	var level uint32
	if err := binary.Read(r, binary.BigEndian, &level); err != nil {
		return nil, fmt.Errorf("failed to read layer level: %w", err)
	}
	if level == 0 {
		return nil, nil
	}

	var edges []Edge
	for {
		var a, b uint32
		if err := binary.Read(r, binary.BigEndian, &a); err != nil {
			return nil, fmt.Errorf("failed to read edge node: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &b); err != nil {
			return nil, fmt.Errorf("failed to read edge node: %w", err)
		}
		if a == 0 && b == 0 {
			break
		}
		var distance float32
		if err := binary.Read(r, binary.BigEndian, &distance); err != nil {
			return nil, fmt.Errorf("failed to read edge distance: %w", err)
		}
		edges = append(edges, Edge{A: a, B: b, Distance: distance})
	}

	return NewIndexLayer(FromAdjacencyList(edges), level), nil
}

// WriteTo serializes the layer, including its edge terminator but not the
// section terminator.
//
// A layer whose graph connects node 0 to itself cannot be serialized: the
// (0, 0) pair is reserved as the edge terminator, and emitting it would
// make a reader stop early and misparse the rest of the stream. WriteTo
// fails before writing anything in that case.
//
// Returns:
//   - int64: Number of bytes written
//   - error: Error if any write fails
func (l *IndexLayer) WriteTo(w io.Writer) (int64, error) {
	var bytesWritten int64

	if _, connected, err := l.Graph.Distance(0, 0); err == nil && connected {
		return 0, fmt.Errorf("cannot serialize the (0, 0) self-loop: reserved as the edge terminator")
	}

	if err := binary.Write(w, binary.BigEndian, l.Level); err != nil {
		return bytesWritten, fmt.Errorf("failed to write layer level: %w", err)
	}
	bytesWritten += 4

	for _, e := range l.Graph.AdjacencyList() {
		if err := binary.Write(w, binary.BigEndian, e.A); err != nil {
			return bytesWritten, fmt.Errorf("failed to write edge node: %w", err)
		}
		bytesWritten += 4
		if err := binary.Write(w, binary.BigEndian, e.B); err != nil {
			return bytesWritten, fmt.Errorf("failed to write edge node: %w", err)
		}
		bytesWritten += 4
		if err := binary.Write(w, binary.BigEndian, e.Distance); err != nil {
			return bytesWritten, fmt.Errorf("failed to write edge distance: %w", err)
		}
		bytesWritten += 4
	}

	// Edge terminator: a=0, b=0, no distance field.
	if err := binary.Write(w, binary.BigEndian, [2]uint32{0, 0}); err != nil {
		return bytesWritten, fmt.Errorf("failed to write edge terminator: %w", err)
	}
	bytesWritten += 8

	return bytesWritten, nil
}

// ReadLayerSection parses layers until the section terminator, returning
// them in on-disk order.
func ReadLayerSection(r io.Reader) ([]*IndexLayer, error) {
	var layers []*IndexLayer
	for {
		layer, err := ReadIndexLayer(r)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			return layers, nil
		}
		layers = append(layers, layer)
	}
}

// WriteLayerSection serializes the layers in order, followed by the
// section terminator (level 0).
//
// Returns:
//   - int64: Number of bytes written
//   - error: Error if any write fails
func WriteLayerSection(w io.Writer, layers []*IndexLayer) (int64, error) {
	var bytesWritten int64
	for _, layer := range layers {
		n, err := layer.WriteTo(w)
		bytesWritten += n
		if err != nil {
			return bytesWritten, err
		}
	}
	if err := binary.Write(w, binary.BigEndian, uint32(0)); err != nil {
		return bytesWritten, fmt.Errorf("failed to write section terminator: %w", err)
	}
	bytesWritten += 4
	return bytesWritten, nil
}
