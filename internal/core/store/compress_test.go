package store

import (
	"bytes"
	"testing"
)

// TestCompressDecompressIdentity covers spec.md §8 invariant 10: for
// every payload, decompress(compress(p)) == p.
func TestCompressDecompressIdentity(t *testing.T) {
	s := newTestStore(t)

	payloads := [][]byte{
		nil,
		[]byte("short"),
		bytes.Repeat([]byte("x"), CompressionThreshold-1),
		bytes.Repeat([]byte("y"), CompressionThreshold),
		bytes.Repeat([]byte("abcd"), 1<<16),
	}
	for _, p := range payloads {
		compressed, err := s.compress(p)
		if err != nil {
			t.Fatalf("compress(%d bytes) error = %v", len(p), err)
		}
		got, err := s.decompress(compressed)
		if err != nil {
			t.Fatalf("decompress() error = %v", err)
		}
		if !bytes.Equal(got, p) {
			t.Errorf("decompress(compress(p)) mismatch for %d-byte payload", len(p))
		}
	}
}
