package vectoria

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildTestLayer(t *testing.T, level uint32, edges []Edge) *IndexLayer {
	t.Helper()
	return NewIndexLayer(FromAdjacencyList(edges), level)
}

// TestIndexLayerRoundTrip tests that a written layer parses back unchanged
func TestIndexLayerRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		level uint32
		edges []Edge
	}{
		{
			name:  "single edge",
			level: 1,
			edges: []Edge{{A: 1, B: 2, Distance: 0.5}},
		},
		{
			name:  "several edges",
			level: 3,
			edges: []Edge{
				{A: 5, B: 1, Distance: 1.25},
				{A: 2, B: 4, Distance: 2.5},
				{A: 5, B: 3, Distance: 3.75},
			},
		},
		{
			name:  "no edges",
			level: 7,
			edges: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer := buildTestLayer(t, tt.level, tt.edges)

			var buf bytes.Buffer
			n, err := layer.WriteTo(&buf)
			if err != nil {
				t.Fatalf("WriteTo() error = %v", err)
			}
			if n != int64(buf.Len()) {
				t.Errorf("WriteTo() reported %d bytes, wrote %d", n, buf.Len())
			}

			parsed, err := ReadIndexLayer(&buf)
			if err != nil {
				t.Fatalf("ReadIndexLayer() error = %v", err)
			}
			if parsed == nil {
				t.Fatal("ReadIndexLayer() = nil, want layer")
			}
			if parsed.Level != tt.level {
				t.Errorf("Level = %d, want %d", parsed.Level, tt.level)
			}
			for _, e := range tt.edges {
				d, connected, err := parsed.Graph.Distance(e.A, e.B)
				if err != nil || !connected || d != e.Distance {
					t.Errorf("Distance(%d, %d) = %v, %v, %v, want %v", e.A, e.B, d, connected, err, e.Distance)
				}
			}
		})
	}
}

// TestIndexLayerWriteToReservedEdge tests that the (0, 0) self-loop is
// rejected instead of being emitted as a premature edge terminator
func TestIndexLayerWriteToReservedEdge(t *testing.T) {
	g := NewProximityGraph()
	g.Grow(2)
	g.Connect(0, 0, 1.0)
	g.Connect(0, 1, 2.0)
	layer := NewIndexLayer(g, 1)

	var buf bytes.Buffer
	n, err := layer.WriteTo(&buf)
	if err == nil {
		t.Fatal("WriteTo() expected error, got nil")
	}
	if n != 0 || buf.Len() != 0 {
		t.Errorf("WriteTo() wrote %d bytes before failing, want 0", buf.Len())
	}
}

// TestReadIndexLayerTerminator tests that level 0 ends the section cleanly
func TestReadIndexLayerTerminator(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(0))

	layer, err := ReadIndexLayer(&buf)
	if err != nil {
		t.Fatalf("ReadIndexLayer() error = %v", err)
	}
	if layer != nil {
		t.Errorf("ReadIndexLayer() = %+v, want nil at section terminator", layer)
	}
}

// TestReadIndexLayerTruncated tests that short layer data fails
func TestReadIndexLayerTruncated(t *testing.T) {
	tests := []struct {
		name  string
		build func(buf *bytes.Buffer)
	}{
		{
			name:  "empty stream",
			build: func(buf *bytes.Buffer) {},
		},
		{
			name: "missing edges",
			build: func(buf *bytes.Buffer) {
				binary.Write(buf, binary.BigEndian, uint32(1))
			},
		},
		{
			name: "missing distance",
			build: func(buf *bytes.Buffer) {
				binary.Write(buf, binary.BigEndian, uint32(1))
				binary.Write(buf, binary.BigEndian, uint32(2))
				binary.Write(buf, binary.BigEndian, uint32(3))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.build(&buf)
			if _, err := ReadIndexLayer(&buf); err == nil {
				t.Error("ReadIndexLayer() expected error, got nil")
			}
		})
	}
}

// TestLayerSectionRoundTrip tests multi-layer section serialization
func TestLayerSectionRoundTrip(t *testing.T) {
	layers := []*IndexLayer{
		buildTestLayer(t, 3, []Edge{{A: 1, B: 2, Distance: 0.5}}),
		buildTestLayer(t, 2, []Edge{{A: 1, B: 3, Distance: 1.5}, {A: 3, B: 2, Distance: 2.5}}),
		buildTestLayer(t, 1, nil),
	}

	var buf bytes.Buffer
	if _, err := WriteLayerSection(&buf, layers); err != nil {
		t.Fatalf("WriteLayerSection() error = %v", err)
	}

	parsed, err := ReadLayerSection(&buf)
	if err != nil {
		t.Fatalf("ReadLayerSection() error = %v", err)
	}
	if len(parsed) != len(layers) {
		t.Fatalf("ReadLayerSection() = %d layers, want %d", len(parsed), len(layers))
	}
	// On-disk order is preserved, not renumbered.
	for i, layer := range layers {
		if parsed[i].Level != layer.Level {
			t.Errorf("layer %d Level = %d, want %d", i, parsed[i].Level, layer.Level)
		}
	}
}

// TestReadLayerSectionEmpty tests a section holding only the terminator
func TestReadLayerSectionEmpty(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(0))

	layers, err := ReadLayerSection(&buf)
	if err != nil {
		t.Fatalf("ReadLayerSection() error = %v", err)
	}
	if len(layers) != 0 {
		t.Errorf("ReadLayerSection() = %d layers, want 0", len(layers))
	}
}
