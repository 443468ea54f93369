// Package object implements the on-disk object model: the framed
// header shared by every object, and the Blob/Tree/ChunkList codecs
// layered on top of it.
package object

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fenilsonani/castor/internal/core/hash"
)

// ErrCorrupted is the sentinel wrapped by every decode failure.
var ErrCorrupted = errors.New("corrupted object")

// HeaderSize is the fixed size, in bytes, of every object header.
const HeaderSize = 16

var magic = [4]byte{'C', 'A', 'F', 'S'}

// Version is the only header version this store ever writes or reads.
const Version = 2

// Type identifies which of the three object variants a payload holds.
type Type uint8

const (
	TypeBlob      Type = 1
	TypeTree      Type = 2
	TypeChunkList Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeBlob:
		return "blob"
	case TypeTree:
		return "tree"
	case TypeChunkList:
		return "chunk_list"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func (t Type) valid() bool {
	switch t {
	case TypeBlob, TypeTree, TypeChunkList:
		return true
	default:
		return false
	}
}

// Compression identifies the codec applied to an object's payload bytes.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZstd Compression = 1
)

func (c Compression) valid() bool {
	return c == CompressionNone || c == CompressionZstd
}

// Header is the 16-byte frame prefixing every on-disk object.
type Header struct {
	Type        Type
	Algorithm   uint8
	Compression Compression
	PayloadLen  uint64
}

// Encode serializes h to its 16-byte on-disk form.
func (h Header) Encode() ([]byte, error) {
	if !h.Type.valid() {
		return nil, fmt.Errorf("%w: invalid type %d", ErrCorrupted, h.Type)
	}
	if !h.Compression.valid() {
		return nil, fmt.Errorf("%w: invalid compression %d", ErrCorrupted, h.Compression)
	}
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], magic[:])
	buf[4] = Version
	buf[5] = byte(h.Type)
	buf[6] = h.Algorithm
	buf[7] = byte(h.Compression)
	binary.LittleEndian.PutUint64(buf[8:16], h.PayloadLen)
	return buf, nil
}

// DecodeHeader parses the first HeaderSize bytes of buf. It never
// panics on any input of at least HeaderSize bytes.
func DecodeHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < HeaderSize {
		return h, fmt.Errorf("%w: short header (%d bytes)", ErrCorrupted, len(buf))
	}
	if [4]byte(buf[0:4]) != magic {
		return h, fmt.Errorf("%w: bad magic", ErrCorrupted)
	}
	if buf[4] != Version {
		return h, fmt.Errorf("%w: unsupported version %d", ErrCorrupted, buf[4])
	}
	t := Type(buf[5])
	if !t.valid() {
		return h, fmt.Errorf("%w: invalid type %d", ErrCorrupted, buf[5])
	}
	if hash.Algorithm(buf[6]) != hash.AlgorithmBlake3 {
		return h, fmt.Errorf("%w: unsupported algorithm %d", ErrCorrupted, buf[6])
	}
	c := Compression(buf[7])
	if !c.valid() {
		return h, fmt.Errorf("%w: invalid compression %d", ErrCorrupted, buf[7])
	}
	h.Type = t
	h.Algorithm = buf[6]
	h.Compression = c
	h.PayloadLen = binary.LittleEndian.Uint64(buf[8:16])
	return h, nil
}

// Decode splits a full on-disk object (header + payload) and validates
// that the trailing payload length matches the header exactly.
func Decode(data []byte) (Header, []byte, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return Header{}, nil, err
	}
	want := HeaderSize + int(h.PayloadLen)
	if want < 0 || len(data) != want {
		return Header{}, nil, fmt.Errorf("%w: expected %d bytes on disk, got %d", ErrCorrupted, want, len(data))
	}
	return h, data[HeaderSize:], nil
}

// Encode builds the full on-disk byte sequence for h and its payload.
func Encode(h Header, payload []byte) ([]byte, error) {
	h.PayloadLen = uint64(len(payload))
	header, err := h.Encode()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out, nil
}
