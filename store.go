// This file implements the on-disk vector store behind one database.
//
// RECORD LAYOUT:
// The data section is a run of fixed-width records, [id: u32] followed by
// dimSize big-endian float32 components, kept in strictly ascending id
// order. That ordering is what makes binary-search lookup possible and
// every mutating operation must preserve it: push appends the next id at
// the end, remove compacts the file in place without renumbering
// survivors.
//
// ID ASSIGNMENT:
// Ids are assigned monotonically (last stored id + 1) and never reused,
// so the stored sequence is strictly increasing but may grow holes.
package vectoria

import (
	"encoding/binary"
	"fmt"
	"io"
)

// VectorID identifies one stored vector within a database.
type VectorID = uint32

// idSize is the width of the record id field in bytes.
const idSize = 4

// shiftBufferCap bounds the chunk size used when compacting after a
// removal.
const shiftBufferCap = 4096

// Truncater is the optional stream interface remove uses to cut the
// trailing unit-sized gap left by compaction. os.File implements it.
// Streams without it keep a stale trailing record after remove, which
// corrupts subsequent counts and id assignment; durable databases should
// always be backed by truncatable streams.
type Truncater interface {
	Truncate(size int64) error
}

// vectorHandle owns the random-access stream of one database and performs
// all record-level I/O.
//
// Thread-safety: none. The owning Database serializes access; every
// operation seeks explicitly, so no cursor position survives between
// calls.
type vectorHandle struct {
	dimSize     uint32
	dataSection uint64
	fd          io.ReadWriteSeeker
}

func newVectorHandle(header DbHeader, fd io.ReadWriteSeeker) *vectorHandle {
	return &vectorHandle{
		dimSize:     header.DimSize,
		dataSection: header.DataSection,
		fd:          fd,
	}
}

// unitSize returns the fixed width of one record in bytes.
func (h *vectorHandle) unitSize() uint64 {
	return uint64(h.dimSize)*4 + idSize
}

// seekCount computes the number of stored records, leaving the stream at
// the end.
func (h *vectorHandle) seekCount() (uint64, error) {
	available, err := h.fd.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to seek to stream end: %w", err)
	}
	return (uint64(available) + 1 - h.dataSection) / h.unitSize(), nil
}

// count returns the number of stored records without disturbing the
// caller-visible stream position.
func (h *vectorHandle) count() (uint64, error) {
	pos, err := h.fd.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve stream position: %w", err)
	}
	count, err := h.seekCount()
	if err != nil {
		return 0, err
	}
	if _, err := h.fd.Seek(pos, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to restore stream position: %w", err)
	}
	return count, nil
}

// readIDAt reads the id field of the record at the given index.
func (h *vectorHandle) readIDAt(index uint64) (VectorID, error) {
	if _, err := h.fd.Seek(int64(index*h.unitSize()+h.dataSection), io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek to record %d: %w", index, err)
	}
	var buf [idSize]byte
	if _, err := io.ReadFull(h.fd, buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read record id: %w", err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// lookup binary-searches the data section for the record with the given
// id and returns its byte offset. found is false on a miss, which is a
// normal outcome.
//
// At every step the boundary ids are read and checked: a head id greater
// than the tail id means the ascending-order invariant is broken, and
// lookup aborts with ErrCorrupted. The interval is then narrowed through
// the true middle element, which guarantees termination in O(log n)
// probes regardless of how the surviving ids are distributed.
func (h *vectorHandle) lookup(id VectorID) (offset uint64, found bool, err error) {
	count, err := h.seekCount()
	if err != nil {
		return 0, false, err
	}
	if count == 0 {
		return 0, false, nil
	}

	unit := h.unitSize()
	head, tail := uint64(0), count-1
	for {
		headID, err := h.readIDAt(head)
		if err != nil {
			return 0, false, err
		}
		if headID == id {
			return head*unit + h.dataSection, true, nil
		}
		if head == tail {
			return 0, false, nil
		}

		tailID, err := h.readIDAt(tail)
		if err != nil {
			return 0, false, err
		}
		if tailID == id {
			return tail*unit + h.dataSection, true, nil
		}
		if headID > tailID {
			return 0, false, fmt.Errorf("record %d id %d exceeds record %d id %d: %w",
				head, headID, tail, tailID, ErrCorrupted)
		}
		if tail-head == 1 {
			// Neither boundary matched and nothing lies between them.
			return 0, false, nil
		}

		mid := head + (tail-head)/2
		midID, err := h.readIDAt(mid)
		if err != nil {
			return 0, false, err
		}
		if id < midID {
			tail = mid
		} else {
			head = mid
		}
	}
}

// get returns the vector stored under id. found is false on a miss.
func (h *vectorHandle) get(id VectorID) (Vector, bool, error) {
	offset, found, err := h.lookup(id)
	if err != nil || !found {
		return nil, false, err
	}
	vector, err := h.readPayloadAt(offset)
	if err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

// readPayloadAt decodes the vector payload of the record starting at the
// given byte offset.
func (h *vectorHandle) readPayloadAt(offset uint64) (Vector, error) {
	if _, err := h.fd.Seek(int64(offset+idSize), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to record payload: %w", err)
	}
	vector, err := readVector(h.fd, h.dimSize)
	if err == errEndOfData {
		return nil, fmt.Errorf("expecting %d bytes of data, but got none", h.dimSize*4)
	}
	return vector, err
}

// seekLastID probes the last unit-sized slot of the stream for the highest
// assigned id. ok is false when the store is empty, detected by the slot
// falling short of the data section.
func (h *vectorHandle) seekLastID() (id VectorID, ok bool) {
	pos, err := h.fd.Seek(-int64(h.unitSize()), io.SeekEnd)
	if err != nil || uint64(pos) < h.dataSection {
		return 0, false
	}
	var buf [idSize]byte
	if _, err := io.ReadFull(h.fd, buf[:]); err != nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(buf[:]), true
}

// push appends the vector under a freshly assigned id and returns that id.
// The first push on an empty store assigns id 0; every later push assigns
// the last stored id plus one. Nothing is written if the dimension check
// fails.
func (h *vectorHandle) push(vector Vector) (VectorID, error) {
	if uint32(len(vector)) != h.dimSize {
		return 0, &DimensionError{Expected: int(h.dimSize), Actual: len(vector)}
	}

	var newID VectorID
	if last, ok := h.seekLastID(); ok {
		newID = last + 1
	}

	if _, err := h.fd.Seek(0, io.SeekEnd); err != nil {
		return 0, fmt.Errorf("failed to seek to stream end: %w", err)
	}
	var idBuf [idSize]byte
	binary.BigEndian.PutUint32(idBuf[:], newID)
	if _, err := h.fd.Write(idBuf[:]); err != nil {
		return 0, fmt.Errorf("failed to write record id: %w", err)
	}
	if err := writeVector(h.fd, vector); err != nil {
		return 0, err
	}
	return newID, nil
}

// remove deletes the record with the given id, compacting the file in
// place: every byte after the record shifts backward by one unit, then the
// trailing gap is truncated when the stream supports it. found is false
// when no such record exists, in which case the file is untouched.
//
// The shift is not transactional. A failure mid-shift can leave the file
// inconsistent; that is a known limitation, not masked here.
func (h *vectorHandle) remove(id VectorID) (Vector, bool, error) {
	offset, found, err := h.lookup(id)
	if err != nil || !found {
		return nil, false, err
	}

	vector, err := h.readPayloadAt(offset)
	if err != nil {
		return nil, false, err
	}

	available, err := h.fd.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, false, fmt.Errorf("failed to seek to stream end: %w", err)
	}

	unit := h.unitSize()
	contentStart := offset + unit
	contentLen := uint64(available) - contentStart
	if _, err := h.fd.Seek(int64(contentStart), io.SeekStart); err != nil {
		return nil, false, fmt.Errorf("failed to seek to compaction start: %w", err)
	}
	bufferSize := 10 * int(unit)
	if bufferSize > shiftBufferCap {
		bufferSize = shiftBufferCap
	}
	if err := ShiftContent(h.fd, int64(contentLen), -int64(unit), bufferSize); err != nil {
		return nil, false, err
	}

	if t, ok := h.fd.(Truncater); ok {
		if err := t.Truncate(available - int64(unit)); err != nil {
			return nil, false, fmt.Errorf("failed to truncate trailing gap: %w", err)
		}
	}

	return vector, true, nil
}
