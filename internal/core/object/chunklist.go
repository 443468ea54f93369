package object

import (
	"encoding/binary"
	"fmt"

	"github.com/fenilsonani/castor/internal/core/hash"
)

// ChunkEntrySize is the on-disk size of one ChunkList entry: a 32-byte
// chunk hash followed by an 8-byte little-endian chunk size.
const ChunkEntrySize = hash.Size + 8

// ChunkEntry names one chunk blob and its size, in reassembly order.
type ChunkEntry struct {
	Hash hash.Hash
	Size uint64
}

// EncodeChunkList serializes entries to their payload form.
func EncodeChunkList(entries []ChunkEntry) []byte {
	buf := make([]byte, 0, len(entries)*ChunkEntrySize)
	for _, e := range entries {
		buf = append(buf, e.Hash[:]...)
		var sizeBuf [8]byte
		binary.LittleEndian.PutUint64(sizeBuf[:], e.Size)
		buf = append(buf, sizeBuf[:]...)
	}
	return buf
}

// DecodeChunkList parses a ChunkList payload. The payload length must be
// an exact multiple of ChunkEntrySize.
func DecodeChunkList(payload []byte) ([]ChunkEntry, error) {
	if len(payload)%ChunkEntrySize != 0 {
		return nil, fmt.Errorf("%w: chunk list length %d not a multiple of %d", ErrCorrupted, len(payload), ChunkEntrySize)
	}
	n := len(payload) / ChunkEntrySize
	entries := make([]ChunkEntry, n)
	for i := 0; i < n; i++ {
		off := i * ChunkEntrySize
		var h hash.Hash
		copy(h[:], payload[off:off+hash.Size])
		size := binary.LittleEndian.Uint64(payload[off+hash.Size : off+ChunkEntrySize])
		entries[i] = ChunkEntry{Hash: h, Size: size}
	}
	return entries, nil
}

// TotalSize sums the Size fields of entries.
func TotalSize(entries []ChunkEntry) uint64 {
	var total uint64
	for _, e := range entries {
		total += e.Size
	}
	return total
}
