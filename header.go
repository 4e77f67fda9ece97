package vectoria

import (
	"encoding/binary"
	"fmt"
	"io"
)

// productTag identifies a vectoria database file. It is stored verbatim at
// offset zero, with no length prefix.
const productTag = "vectoriadb;version"

// CurrentVersion is the format version written into fresh headers.
const CurrentVersion uint8 = 1

// headerSize is the fixed width of the serialized header:
// product tag, version (u8), data section offset (u64), dimension (u32).
const headerSize = len(productTag) + 1 + 8 + 4

// DbHeader is the fixed-layout file header of one database.
//
// The serialization format is:
//  1. Product tag (len(productTag) bytes) - identifies the file format
//  2. Version (1 byte)
//  3. Data section offset (8 bytes) - where the first vector record begins
//  4. Dimension (4 bytes) - components per vector
//
// All integers are big-endian. The header is written once at database
// creation and never rewritten.
type DbHeader struct {
	// Version is the format version of the file.
	Version uint8

	// DimSize is the number of float32 components per vector.
	DimSize uint32

	// DataSection is the byte offset of the first vector record, placed
	// immediately after the header and the layer section.
	DataSection uint64
}

// NewDbHeader creates a header for a fresh database with no layer section,
// so the data section starts right after the header itself.
func NewDbHeader(dimSize uint32) DbHeader {
	return DbHeader{
		Version:     CurrentVersion,
		DimSize:     dimSize,
		DataSection: uint64(headerSize),
	}
}

// WriteTo serializes the header.
//
// Returns:
//   - int64: Number of bytes written
//   - error: Error if any write fails
func (h DbHeader) WriteTo(w io.Writer) (int64, error) {
	var bytesWritten int64

	n, err := io.WriteString(w, productTag)
	bytesWritten += int64(n)
	if err != nil {
		return bytesWritten, fmt.Errorf("failed to write product tag: %w", err)
	}

	if _, err := w.Write([]byte{h.Version}); err != nil {
		return bytesWritten, fmt.Errorf("failed to write version: %w", err)
	}
	bytesWritten++

	if err := binary.Write(w, binary.BigEndian, h.DataSection); err != nil {
		return bytesWritten, fmt.Errorf("failed to write data section offset: %w", err)
	}
	bytesWritten += 8

	if err := binary.Write(w, binary.BigEndian, h.DimSize); err != nil {
		return bytesWritten, fmt.Errorf("failed to write dimension: %w", err)
	}
	bytesWritten += 4

	return bytesWritten, nil
}

// ReadDbHeader parses a header from the reader.
//
// Returns an *UnknownProductError if the product tag does not match, and a
// wrapped I/O error on short reads or undecodable bytes.
func ReadDbHeader(r io.Reader) (DbHeader, error) {
	var h DbHeader

	tag := make([]byte, len(productTag))
	if _, err := io.ReadFull(r, tag); err != nil {
		return h, fmt.Errorf("failed to read product tag: %w", err)
	}
	if string(tag) != productTag {
		return h, &UnknownProductError{Product: string(tag)}
	}

	var version [1]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return h, fmt.Errorf("failed to read version: %w", err)
	}
	h.Version = version[0]

	if err := binary.Read(r, binary.BigEndian, &h.DataSection); err != nil {
		return h, fmt.Errorf("failed to read data section offset: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &h.DimSize); err != nil {
		return h, fmt.Errorf("failed to read dimension: %w", err)
	}

	return h, nil
}
