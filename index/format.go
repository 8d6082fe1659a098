package index

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic identifies a serialized index.
var Magic = [4]byte{0x0C, 0x00, 0x0D, 0x0E}

const (
	// HeaderSize is the encoded size of Header.
	HeaderSize = 4 + 8*4
	// Alignment of every section.
	Alignment = 8
	// DescriptorSize is the encoded size of one trigram descriptor.
	DescriptorSize = 3 * 4
	// maxVarintLen is the longest accepted varint for a uint32.
	maxVarintLen = 5
)

var (
	// ErrInvalidData is returned for any malformed index image.
	ErrInvalidData = errors.New("index: not a valid code index")
	// ErrInvalidArgument is returned for out-of-range document ids.
	ErrInvalidArgument = errors.New("index: invalid argument")
	// ErrTooLarge is returned when an index image would not fit the 32-bit offsets.
	ErrTooLarge = errors.New("index: image exceeds 4 GiB")
	// ErrTooManyDocuments is returned when merging would overflow the document id space.
	ErrTooManyDocuments = errors.New("index: too many documents")
	// ErrClosed is returned when releasing an index that has no references left.
	ErrClosed = errors.New("index: closed")
)

// Header is the fixed-size prefix of a serialized index.
//
// Layout (little-endian):
//
//	magic               [4]byte
//	n_documents         u32   documents including the reserved id 0
//	documents           u32   offset of the document position table
//	n_documents_bytes   u32   size of the path blob
//	n_trigrams          u32
//	trigrams            u32   offset of the descriptor table
//	n_trigrams_bytes    u32   size of the descriptor table
//	trigrams_data       u32   offset of the posting blob
//	trigrams_data_bytes u32   size of the posting blob
type Header struct {
	NumDocuments      uint32
	Documents         uint32
	DocumentsBytes    uint32
	NumTrigrams       uint32
	Trigrams          uint32
	TrigramsBytes     uint32
	TrigramsData      uint32
	TrigramsDataBytes uint32
}

// Encode appends the encoded header to dst.
func (h *Header) Encode(dst []byte) []byte {
	dst = append(dst, Magic[:]...)
	for _, v := range [...]uint32{
		h.NumDocuments, h.Documents, h.DocumentsBytes,
		h.NumTrigrams, h.Trigrams, h.TrigramsBytes,
		h.TrigramsData, h.TrigramsDataBytes,
	} {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	return dst
}

// DecodeHeader parses the header at the start of buf. Only the magic is
// checked here; section bounds are checked by validate.
func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidData, len(buf))
	}
	if [4]byte(buf[:4]) != Magic {
		return nil, fmt.Errorf("%w: bad magic % x", ErrInvalidData, buf[:4])
	}
	le := binary.LittleEndian
	return &Header{
		NumDocuments:      le.Uint32(buf[4:]),
		Documents:         le.Uint32(buf[8:]),
		DocumentsBytes:    le.Uint32(buf[12:]),
		NumTrigrams:       le.Uint32(buf[16:]),
		Trigrams:          le.Uint32(buf[20:]),
		TrigramsBytes:     le.Uint32(buf[24:]),
		TrigramsData:      le.Uint32(buf[28:]),
		TrigramsDataBytes: le.Uint32(buf[32:]),
	}, nil
}

// Descriptor locates one trigram's posting list inside the posting blob.
// Start and End are absolute file offsets.
type Descriptor struct {
	ID    uint32
	Start uint32
	End   uint32
}

func decodeDescriptor(buf []byte) Descriptor {
	le := binary.LittleEndian
	return Descriptor{
		ID:    le.Uint32(buf[0:]),
		Start: le.Uint32(buf[4:]),
		End:   le.Uint32(buf[8:]),
	}
}

func appendDescriptor(dst []byte, d Descriptor) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, d.ID)
	dst = binary.LittleEndian.AppendUint32(dst, d.Start)
	return binary.LittleEndian.AppendUint32(dst, d.End)
}

func align(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

func pad(buf []byte) []byte {
	for len(buf)%Alignment != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// appendVarint encodes v as unsigned LEB128.
func appendVarint(dst []byte, v uint32) []byte {
	return binary.AppendUvarint(dst, uint64(v))
}

// readVarint decodes one unsigned LEB128 value. n is 0 when buf ends early
// and negative when the value does not fit 32 bits.
func readVarint(buf []byte) (v uint32, n int) {
	var shift uint
	for i, b := range buf {
		if i == maxVarintLen {
			return 0, -(i + 1)
		}
		if i == maxVarintLen-1 && b > 0x0F {
			return 0, -(i + 1)
		}
		v |= uint32(b&0x7F) << shift
		if b < 0x80 {
			return v, i + 1
		}
		shift += 7
	}
	return 0, 0
}
