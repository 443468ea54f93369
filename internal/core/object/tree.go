package object

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/fenilsonani/castor/internal/core/hash"
)

// EntryType distinguishes the two kinds of tree entry.
type EntryType uint8

const (
	EntryBlob EntryType = 1
	EntryTree EntryType = 2
)

func (t EntryType) valid() bool {
	return t == EntryBlob || t == EntryTree
}

// entryHeaderSize is the fixed portion of an on-disk tree entry, before
// the variable-length name: 1 (type) + 4 (mode) + 32 (hash) + 1 (name_len).
const entryHeaderSize = 1 + 4 + hash.Size + 1

// MaxNameLen is the longest a tree entry name may be.
const MaxNameLen = 255

// Entry is one row of a Tree: a name bound to either a Blob or a Tree.
type Entry struct {
	Type EntryType
	Mode uint32
	Hash hash.Hash
	Name string
}

func validateName(name string) error {
	if len(name) < 1 || len(name) > MaxNameLen {
		return fmt.Errorf("%w: name length %d out of range [1,%d]", ErrInvalidEntry, len(name), MaxNameLen)
	}
	if bytes.IndexByte([]byte(name), 0) != -1 {
		return fmt.Errorf("%w: name contains NUL", ErrInvalidEntry)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidEntry)
	}
	return nil
}

// ErrInvalidEntry is returned when a tree entry fails validation.
var ErrInvalidEntry = fmt.Errorf("invalid tree entry")

// Tree is an ordered, canonically-sorted directory listing.
type Tree struct {
	Entries []Entry
}

// Canonicalize returns a copy of entries sorted ascending by name as a
// byte sequence, validating each entry along the way.
func Canonicalize(entries []Entry) ([]Entry, error) {
	out := make([]Entry, len(entries))
	copy(out, entries)

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	seen := make(map[string]struct{}, len(out))
	for _, e := range out {
		if !e.Type.valid() {
			return nil, fmt.Errorf("%w: invalid entry type %d", ErrInvalidEntry, e.Type)
		}
		if err := validateName(e.Name); err != nil {
			return nil, err
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate entry name %q", ErrInvalidEntry, e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return out, nil
}

// EncodeTree serializes already-canonical entries to their payload form.
func EncodeTree(entries []Entry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteByte(byte(e.Type))
		var modeBuf [4]byte
		modeBuf[0] = byte(e.Mode)
		modeBuf[1] = byte(e.Mode >> 8)
		modeBuf[2] = byte(e.Mode >> 16)
		modeBuf[3] = byte(e.Mode >> 24)
		buf.Write(modeBuf[:])
		buf.Write(e.Hash[:])
		buf.WriteByte(byte(len(e.Name)))
		buf.WriteString(e.Name)
	}
	return buf.Bytes()
}

// DecodeTree parses a tree payload back into entries, validating each
// entry as it goes. Failures are reported as ErrCorrupted.
func DecodeTree(payload []byte) ([]Entry, error) {
	var entries []Entry
	for len(payload) > 0 {
		if len(payload) < entryHeaderSize {
			return nil, fmt.Errorf("%w: truncated tree entry", ErrCorrupted)
		}
		t := EntryType(payload[0])
		if !t.valid() {
			return nil, fmt.Errorf("%w: invalid entry type %d", ErrCorrupted, payload[0])
		}
		mode := uint32(payload[1]) | uint32(payload[2])<<8 | uint32(payload[3])<<16 | uint32(payload[4])<<24
		var h hash.Hash
		copy(h[:], payload[5:5+hash.Size])
		nameLen := int(payload[entryHeaderSize-1])
		payload = payload[entryHeaderSize:]
		if nameLen == 0 || len(payload) < nameLen {
			return nil, fmt.Errorf("%w: invalid name length %d", ErrCorrupted, nameLen)
		}
		name := string(payload[:nameLen])
		if err := validateName(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
		entries = append(entries, Entry{Type: t, Mode: mode, Hash: h, Name: name})
		payload = payload[nameLen:]
	}
	return entries, nil
}
