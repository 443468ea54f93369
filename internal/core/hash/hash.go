// Package hash implements the store's content digest: a fixed 32-byte
// BLAKE3-256 hash with lowercase hex encoding.
package hash

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"lukechampine.com/blake3"
)

// Size is the length of a Hash in raw bytes.
const Size = 32

// hexLen is the length of a Hash in hex characters.
const hexLen = Size * 2

// Algorithm identifies the hashing algorithm used to produce a Hash.
// The store currently supports exactly one.
type Algorithm uint8

const (
	// AlgorithmBlake3 is the only algorithm the core emits or accepts.
	AlgorithmBlake3 Algorithm = 1
)

// Name returns the canonical config/header name for the algorithm.
func (a Algorithm) Name() string {
	switch a {
	case AlgorithmBlake3:
		return "blake3-256"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm resolves a canonical algorithm name to its id.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "blake3-256" {
		return AlgorithmBlake3, nil
	}
	return 0, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHash, name)
}

// ErrInvalidHash is returned when a hex string cannot be decoded into a Hash.
var ErrInvalidHash = errors.New("invalid hash")

// Hash is a 32-byte content digest.
type Hash [Size]byte

// Zero is the all-zero Hash. It never names a real object.
var Zero Hash

// IsZero reports whether h is the all-zero Hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Bytes returns the raw 32 bytes of h.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// String returns the lowercase hex form of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Prefix returns the first 2 hex characters of h, used as the object
// store's shard directory name.
func (h Hash) Prefix() string {
	return h.String()[:2]
}

// Suffix returns the remaining 62 hex characters of h.
func (h Hash) Suffix() string {
	return h.String()[2:]
}

// Compare returns -1, 0, or 1 as h is byte-lexicographically less than,
// equal to, or greater than other.
func (h Hash) Compare(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// FromHex parses a 64-character lowercase hex string into a Hash.
// It fails on any length other than 64 or any non-hex character.
func FromHex(s string) (Hash, error) {
	var h Hash
	if len(s) != hexLen {
		return h, fmt.Errorf("%w: want %d hex characters, got %d", ErrInvalidHash, hexLen, len(s))
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	copy(h[:], decoded)
	return h, nil
}

// FromBytes copies exactly Size bytes into a Hash.
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidHash, Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Bytes hashes data with BLAKE3-256.
func Bytes(data []byte) Hash {
	sum := blake3.Sum256(data)
	return Hash(sum)
}

// Stream hashes the full content of r with BLAKE3-256.
func Stream(r io.Reader) (Hash, error) {
	h := blake3.New(Size, nil)
	if _, err := io.Copy(h, r); err != nil {
		return Hash{}, fmt.Errorf("hash stream: %w", err)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Hasher incrementally computes a BLAKE3-256 digest, for callers that
// need to hash data as it streams through without buffering it twice.
type Hasher struct {
	h *blake3.Hasher
}

// NewHasher returns a ready-to-use incremental hasher.
func NewHasher() *Hasher {
	return &Hasher{h: blake3.New(Size, nil)}
}

// Write implements io.Writer.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum returns the digest of everything written so far.
func (h *Hasher) Sum() Hash {
	var out Hash
	copy(out[:], h.h.Sum(nil))
	return out
}
