package vectoria

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func newTestDatabase(t *testing.T, dimSize uint32, opts ...DatabaseOption) (*Database, *memFile) {
	t.Helper()
	f := newMemFile()
	db, err := NewDatabase("mem", dimSize, f, opts...)
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	return db, f
}

// TestDatabaseAppend tests the basic push/get round trip
func TestDatabaseAppend(t *testing.T) {
	db, _ := newTestDatabase(t, 512)

	vector := make(Vector, 512)
	for i := range vector {
		vector[i] = float32(i)
	}

	id, err := db.Push(vector)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if id != 0 {
		t.Errorf("Push() = %d, want 0", id)
	}

	count, err := db.Count()
	if err != nil || count != 1 {
		t.Errorf("Count() = %d, %v, want 1", count, err)
	}

	stored, found, err := db.Get(id)
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	for i := range vector {
		if stored[i] != vector[i] {
			t.Fatalf("component %d = %v, want %v", i, stored[i], vector[i])
		}
	}
}

// TestDatabaseBinarySearch tests retrieval of one distinguished vector
// buried in a large sorted store
func TestDatabaseBinarySearch(t *testing.T) {
	db, _ := newTestDatabase(t, 512)

	vector := make(Vector, 512)
	for i := range vector {
		vector[i] = float32(i)
	}

	for i := 0; i < 200; i++ {
		if _, err := db.Push(vector); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}
	victim := make(Vector, 512)
	victimID, err := db.Push(victim)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	for i := 0; i < 200; i++ {
		if _, err := db.Push(vector); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}

	stored, found, err := db.Get(victimID)
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	for i := range stored {
		if stored[i] != 0 {
			t.Fatalf("component %d = %v, want 0", i, stored[i])
		}
	}
}

// TestDatabaseRemove tests removal from the middle of a large store
func TestDatabaseRemove(t *testing.T) {
	db, _ := newTestDatabase(t, 4)

	for i := 1; i <= 200; i++ {
		v := Vector{float32(i), float32(i), float32(i), float32(i)}
		if _, err := db.Push(v); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}
	count, err := db.Count()
	if err != nil || count != 200 {
		t.Fatalf("Count() = %d, %v, want 200", count, err)
	}

	// Id 198 holds the 199th vector, all components 199.
	removed, found, err := db.Remove(198)
	if err != nil || !found {
		t.Fatalf("Remove() = %v, %v", found, err)
	}
	for i := range removed {
		if removed[i] != 199 {
			t.Fatalf("component %d = %v, want 199", i, removed[i])
		}
	}

	count, err = db.Count()
	if err != nil || count != 199 {
		t.Errorf("Count() = %d, %v, want 199", count, err)
	}
	if _, found, err := db.Get(198); err != nil || found {
		t.Errorf("Get() after removal = %v, %v, want miss", found, err)
	}
}

// TestDatabaseRemoveMissing tests that a miss does not mutate anything
func TestDatabaseRemoveMissing(t *testing.T) {
	db, _ := newTestDatabase(t, 4)
	db.Push(Vector{1, 2, 3, 4})

	if _, found, err := db.Remove(42); err != nil || found {
		t.Errorf("Remove() = %v, %v, want miss", found, err)
	}
	count, err := db.Count()
	if err != nil || count != 1 {
		t.Errorf("Count() = %d, %v, want 1", count, err)
	}
}

// TestDatabaseDimensionMismatch tests push rejection
func TestDatabaseDimensionMismatch(t *testing.T) {
	db, _ := newTestDatabase(t, 4)

	_, err := db.Push(Vector{1, 2})
	var dimErr *DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("Push() error = %v, want *DimensionError", err)
	}
	count, err := db.Count()
	if err != nil || count != 0 {
		t.Errorf("Count() = %d, %v, want 0", count, err)
	}
}

// TestDatabaseCacheServesHits tests that reads are memoized
func TestDatabaseCacheServesHits(t *testing.T) {
	db, f := newTestDatabase(t, 4)
	id, err := db.Push(Vector{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	// Clobber the record's payload behind the cache's back. A cache hit
	// never touches the file, so Get must still see the pushed values.
	offset := int(db.header.DataSection) + idSize
	binary.BigEndian.PutUint32(f.data[offset:], 0)

	stored, found, err := db.Get(id)
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	if stored[0] != 1 {
		t.Errorf("Get() = %v, want cached value 1", stored[0])
	}
}

// TestDatabaseCacheEviction tests that removal evicts the cache entry
func TestDatabaseCacheEviction(t *testing.T) {
	db, _ := newTestDatabase(t, 4)
	id, _ := db.Push(Vector{1, 2, 3, 4})

	if _, found, err := db.Remove(id); err != nil || !found {
		t.Fatalf("Remove() = %v, %v", found, err)
	}
	// A stale cache entry would turn this miss into a hit.
	if _, found, err := db.Get(id); err != nil || found {
		t.Errorf("Get() after removal = %v, %v, want miss", found, err)
	}
}

// TestDatabaseHalfPrecisionCache tests the quantized cache option
func TestDatabaseHalfPrecisionCache(t *testing.T) {
	db, _ := newTestDatabase(t, 4, WithCacheQuantizer(&HalfPrecisionQuantizer{}))

	// All components are exactly representable in half precision.
	vector := Vector{1, -0.5, 2048, 0}
	id, err := db.Push(vector)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	stored, found, err := db.Get(id)
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	for i := range vector {
		if stored[i] != vector[i] {
			t.Errorf("component %d = %v, want %v", i, stored[i], vector[i])
		}
	}
}

// TestDatabaseFlush tests that Flush reports its unimplemented status
func TestDatabaseFlush(t *testing.T) {
	db, _ := newTestDatabase(t, 4)
	if err := db.Flush(); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("Flush() error = %v, want ErrNotImplemented", err)
	}
}

// TestReadDatabase tests opening a database with a populated layer section
func TestReadDatabase(t *testing.T) {
	f := newMemFile()

	layers := []*IndexLayer{
		NewIndexLayer(FromAdjacencyList([]Edge{{A: 1, B: 2, Distance: 0.5}}), 2),
		NewIndexLayer(FromAdjacencyList([]Edge{{A: 1, B: 3, Distance: 1.5}}), 1),
	}

	// Lay the file out by hand: header pointing past the layer section,
	// then the layers, then an empty data section.
	var sectionLen int64
	for _, layer := range layers {
		n, err := layer.WriteTo(newMemFile())
		if err != nil {
			t.Fatalf("WriteTo() error = %v", err)
		}
		sectionLen += n
	}
	sectionLen += 4 // section terminator

	header := NewDbHeader(4)
	header.DataSection = uint64(headerSize) + uint64(sectionLen)
	if _, err := header.WriteTo(f); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if _, err := WriteLayerSection(f, layers); err != nil {
		t.Fatalf("WriteLayerSection() error = %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}

	db, err := ReadDatabase("mem", f)
	if err != nil {
		t.Fatalf("ReadDatabase() error = %v", err)
	}
	if db.DimSize() != 4 {
		t.Errorf("DimSize() = %d, want 4", db.DimSize())
	}

	parsed := db.Layers()
	if len(parsed) != 2 {
		t.Fatalf("Layers() = %d, want 2", len(parsed))
	}
	if parsed[0].Level != 2 || parsed[1].Level != 1 {
		t.Errorf("layer levels = %d, %d, want 2, 1", parsed[0].Level, parsed[1].Level)
	}
	if d, connected, err := parsed[0].Graph.Distance(1, 2); err != nil || !connected || d != 0.5 {
		t.Errorf("Distance(1, 2) = %v, %v, %v", d, connected, err)
	}

	// The store operates from the data section onward.
	id, err := db.Push(Vector{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if id != 0 {
		t.Errorf("Push() = %d, want 0", id)
	}
	stored, found, err := db.Get(id)
	if err != nil || !found || stored[3] != 4 {
		t.Errorf("Get() = %v, %v, %v", stored, found, err)
	}
}

// TestReadDatabaseBadHeader tests rejection of foreign streams
func TestReadDatabaseBadHeader(t *testing.T) {
	f := newMemFile([]byte("this is not a vectoria database, not even close")...)

	_, err := ReadDatabase("mem", f)
	var unknownErr *UnknownProductError
	if !errors.As(err, &unknownErr) {
		t.Errorf("ReadDatabase() error = %v, want *UnknownProductError", err)
	}
}
