// This file implements in-place shifting of a byte range within a
// random-access stream.
//
// WHY IS THIS NEEDED?
// Removing a fixed-width record from the middle of a file leaves a gap.
// Instead of rewriting the whole file, every byte after the gap is moved
// backward by exactly one record width. The shift happens in bounded
// chunks so removal cost is independent of available memory, and the
// chunk order is chosen so that overlapping source and destination
// ranges never clobber bytes that have not been copied yet.
package vectoria

import (
	"fmt"
	"io"
)

// ShiftContent moves contentLen bytes, starting at the stream's current
// position, to current position + offset. The copy proceeds in chunks of at
// most bufferSize bytes and is safe when source and destination overlap:
//
//   - offset >= 0 (shift toward the end): chunks are processed from the
//     tail of the content backward, so a chunk's destination never covers
//     unread source bytes.
//   - offset < 0 (shift toward the start): chunks are processed from the
//     head forward; the destination always trails behind the read cursor.
//
// The stream position after a successful shift is unspecified. There is no
// atomicity: a failure mid-shift leaves the already-copied prefix (or
// suffix) in place and the rest untouched.
func ShiftContent(rws io.ReadWriteSeeker, contentLen int64, offset int64, bufferSize int) error {
	if contentLen <= 0 {
		return nil
	}

	begin, err := rws.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("failed to resolve stream position: %w", err)
	}

	if offset >= 0 {
		return shiftForward(rws, begin, contentLen, offset, bufferSize)
	}
	return shiftBackward(rws, begin, contentLen, -offset, bufferSize)
}

// shiftForward copies [begin, begin+contentLen) to begin+offset, tail first.
func shiftForward(rws io.ReadWriteSeeker, begin, contentLen, offset int64, bufferSize int) error {
	buf := make([]byte, bufferSize)
	remaining := contentLen
	for remaining > 0 {
		chunk := int64(bufferSize)
		if chunk > remaining {
			chunk = remaining
		}
		src := begin + remaining - chunk
		if _, err := rws.Seek(src, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to chunk source: %w", err)
		}
		if _, err := io.ReadFull(rws, buf[:chunk]); err != nil {
			return fmt.Errorf("failed to read chunk: %w", err)
		}
		if _, err := rws.Seek(src+offset, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to chunk destination: %w", err)
		}
		if _, err := rws.Write(buf[:chunk]); err != nil {
			return fmt.Errorf("failed to write chunk: %w", err)
		}
		remaining -= chunk
	}
	return nil
}

// shiftBackward copies [begin, begin+contentLen) to begin-distance, head first.
func shiftBackward(rws io.ReadWriteSeeker, begin, contentLen, distance int64, bufferSize int) error {
	buf := make([]byte, bufferSize)
	pos := begin
	remaining := contentLen
	for remaining > 0 {
		chunk := int64(bufferSize)
		if chunk > remaining {
			chunk = remaining
		}
		if _, err := rws.Seek(pos, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to chunk source: %w", err)
		}
		if _, err := io.ReadFull(rws, buf[:chunk]); err != nil {
			return fmt.Errorf("failed to read chunk: %w", err)
		}
		if _, err := rws.Seek(pos-distance, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to chunk destination: %w", err)
		}
		if _, err := rws.Write(buf[:chunk]); err != nil {
			return fmt.Errorf("failed to write chunk: %w", err)
		}
		pos += chunk
		remaining -= chunk
	}
	return nil
}
