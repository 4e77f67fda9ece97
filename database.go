// This file implements the Database type: the unit a caller opens, reads
// from, and writes to.
//
// A Database composes the parsed header, the layer stack, the vector
// store handle, and a best-effort in-memory cache of fetched vectors.
// The file is always authoritative; the cache only memoizes.
//
// LOCKING:
// The handle and the cache are guarded by separate mutexes. Every
// operation that needs both acquires the handle lock first, then the
// cache lock. That uniform order gives concurrent callers a total order
// and rules out lock-order-inversion deadlocks.
package vectoria

import (
	"fmt"
	"io"
	"sync"
)

// DatabaseOption customizes a Database at construction time.
type DatabaseOption func(*Database)

// WithCacheQuantizer selects the representation used for cached vectors.
// The default is full precision; the half-precision quantizer halves the
// cache's resident size at the cost of a lossy round-trip.
func WithCacheQuantizer(q Quantizer) DatabaseOption {
	return func(d *Database) {
		d.quantizer = q
	}
}

// Database is one open vector database.
//
// Thread-safety: all methods are safe for concurrent use. Mutating
// operations hold the handle lock for their full duration, including every
// seek, so no two operations interleave their file-offset manipulations.
type Database struct {
	name   string
	header DbHeader

	// layers is populated once at load time, ordered as read from the
	// layer section, and never mutated afterward.
	layers []*IndexLayer

	handleMu sync.Mutex
	handle   *vectorHandle

	cacheMu   sync.Mutex
	cache     map[VectorID]CachedVector
	quantizer Quantizer
}

// NewDatabase creates a fresh database on an empty stream: it writes the
// header and starts with no layers and an empty cache. The stream must be
// positioned at its beginning and exclusively owned by this database.
func NewDatabase(name string, dimSize uint32, fd io.ReadWriteSeeker, opts ...DatabaseOption) (*Database, error) {
	header := NewDbHeader(dimSize)
	if _, err := header.WriteTo(fd); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	db := &Database{
		name:      name,
		header:    header,
		handle:    newVectorHandle(header, fd),
		cache:     make(map[VectorID]CachedVector),
		quantizer: &FullPrecisionQuantizer{},
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// ReadDatabase opens an existing database: it parses the header and the
// layer section, leaving the stream positioned at the data section for the
// vector store to operate on.
func ReadDatabase(name string, fd io.ReadWriteSeeker, opts ...DatabaseOption) (*Database, error) {
	header, err := ReadDbHeader(fd)
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}
	layers, err := ReadLayerSection(fd)
	if err != nil {
		return nil, err
	}
	db := &Database{
		name:      name,
		header:    header,
		layers:    layers,
		handle:    newVectorHandle(header, fd),
		cache:     make(map[VectorID]CachedVector),
		quantizer: &FullPrecisionQuantizer{},
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Name returns the database's name.
func (d *Database) Name() string {
	return d.name
}

// Header returns the parsed file header.
func (d *Database) Header() DbHeader {
	return d.header
}

// DimSize returns the configured number of components per vector.
func (d *Database) DimSize() uint32 {
	return d.header.DimSize
}

// Layers returns the index layers in on-disk order. The returned slice is
// shared and must not be mutated.
func (d *Database) Layers() []*IndexLayer {
	return d.layers
}

// Count returns the number of stored vectors.
func (d *Database) Count() (uint64, error) {
	d.handleMu.Lock()
	defer d.handleMu.Unlock()
	return d.handle.count()
}

// Get returns the vector stored under id. A cache hit is served without
// touching the file; a miss reads through the store and populates the
// cache. found is false when no such vector exists.
func (d *Database) Get(id VectorID) (Vector, bool, error) {
	d.handleMu.Lock()
	defer d.handleMu.Unlock()
	d.cacheMu.Lock()
	defer d.cacheMu.Unlock()

	if cached, ok := d.cache[id]; ok {
		return cached.Vector(), true, nil
	}

	vector, found, err := d.handle.get(id)
	if err != nil || !found {
		return nil, false, err
	}
	d.cache[id] = d.quantizer.Quantize(vector)
	return vector, true, nil
}

// Push appends the vector under a freshly assigned id, caches it, and
// returns the id. Pushing a vector of the wrong length fails with a
// *DimensionError before anything is written.
func (d *Database) Push(vector Vector) (VectorID, error) {
	d.handleMu.Lock()
	defer d.handleMu.Unlock()

	id, err := d.handle.push(vector)
	if err != nil {
		return 0, err
	}

	d.cacheMu.Lock()
	defer d.cacheMu.Unlock()
	d.cache[id] = d.quantizer.Quantize(vector)
	return id, nil
}

// Remove deletes the vector stored under id, compacting the file and
// evicting the cache entry. It returns the removed vector; found is false
// when no such vector exists, in which case nothing is mutated.
func (d *Database) Remove(id VectorID) (Vector, bool, error) {
	d.handleMu.Lock()
	defer d.handleMu.Unlock()

	vector, found, err := d.handle.remove(id)
	if err != nil || !found {
		return nil, false, err
	}

	d.cacheMu.Lock()
	defer d.cacheMu.Unlock()
	delete(d.cache, id)
	return vector, true, nil
}

// WriteLayers serializes the database's layer section, terminator
// included. This is a tooling affordance: no automatic persistence path
// calls it.
func (d *Database) WriteLayers(w io.Writer) (int64, error) {
	return WriteLayerSection(w, d.layers)
}

// Flush is declared for API completeness but intentionally unimplemented:
// the core specifies no durability barrier beyond the underlying write
// calls themselves.
func (d *Database) Flush() error {
	return ErrNotImplemented
}
