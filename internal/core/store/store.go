// Package store implements the store engine: on-disk directory layout,
// atomic object placement, path sharding, and put/get for all three
// object variants (spec.md §4.5).
package store

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/castor/internal/core/chunker"
	"github.com/fenilsonani/castor/internal/core/hash"
	"github.com/fenilsonani/castor/internal/core/object"
	"github.com/fenilsonani/castor/internal/core/storeerr"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// ChunkingThreshold is the file-size gate from spec.md §4.5: files
// strictly smaller than this are stored as a single Blob; files at or
// above this size are split into a ChunkList of Blob chunks. A file of
// exactly this size in which the chunker finds no interior cut point
// yields a single chunk whose hash is the file's own hash; that chunk's
// Blob occupies the file's object path, so such a file is stored as a
// single Blob rather than a ChunkList.
const ChunkingThreshold = 1 << 20 // 1 MiB

// Store is a single-handle store engine rooted at one directory. It
// assumes a single writer process (spec.md §5) and is not safe for
// concurrent use by multiple goroutines without external synchronization.
type Store struct {
	root       string
	objectsDir string
	cfg        Config
	log        *zap.Logger

	zEnc *zstd.Encoder
	zDec *zstd.Decoder
}

// Option configures a Store at Init/Open time.
type Option func(*Store)

// WithLogger attaches a structured logger. Components default to
// zap.NewNop() so the store stays silent unless a caller opts in.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Init creates a new store rooted at root, writing its config file and
// directory skeleton. It fails with an InvalidStore error if root
// already holds a config file.
func Init(root string, algo hash.Algorithm, opts ...Option) (*Store, error) {
	configPath := filepath.Join(root, configFileName)
	if _, err := os.Stat(configPath); err == nil {
		return nil, storeerr.New(storeerr.KindInvalidStore, "Init", fmt.Errorf("store already initialized")).WithPath(root)
	}

	dirs := []string{
		root,
		objectsRoot(root, algo),
		filepath.Join(root, refsDirName),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, storeerr.New(storeerr.KindIO, "Init", err).WithPath(dir)
		}
	}

	cfg := Config{Version: FormatVersion, Algo: algo}
	if err := writeConfig(configPath, cfg); err != nil {
		return nil, err
	}

	return newStore(root, cfg, opts...)
}

// Open opens an existing store rooted at root, validating its config.
func Open(root string, opts ...Option) (*Store, error) {
	cfg, err := readConfig(filepath.Join(root, configFileName))
	if err != nil {
		return nil, err
	}
	return newStore(root, cfg, opts...)
}

func newStore(root string, cfg Config, opts ...Option) (*Store, error) {
	enc, err := newEncoder()
	if err != nil {
		return nil, storeerr.New(storeerr.KindIO, "newStore", err)
	}
	dec, err := newDecoder()
	if err != nil {
		return nil, storeerr.New(storeerr.KindIO, "newStore", err)
	}

	s := &Store{
		root:       root,
		objectsDir: objectsRoot(root, cfg.Algo),
		cfg:        cfg,
		log:        zap.NewNop(),
		zEnc:       enc,
		zDec:       dec,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the store's compression codecs. It does not delete
// any on-disk state.
func (s *Store) Close() error {
	s.zEnc.Close()
	s.zDec.Close()
	return nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Algo returns the store's configured hash algorithm.
func (s *Store) Algo() hash.Algorithm { return s.cfg.Algo }

// HasObject reports whether an object with hash h is present on disk.
func (s *Store) HasObject(h hash.Hash) bool {
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// ObjectSize returns the on-disk size, in bytes, of the object at h.
func (s *Store) ObjectSize(h hash.Hash) (int64, error) {
	info, err := os.Stat(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, storeerr.New(storeerr.KindNotFound, "ObjectSize", err).WithHash(h.String())
		}
		return 0, storeerr.New(storeerr.KindIO, "ObjectSize", err).WithHash(h.String())
	}
	return info.Size(), nil
}

// PeekHeader reads and decodes only an object's 16-byte header,
// without reading its payload. Used by GC to dispatch on type without
// paying for a full decompress of objects with no outgoing edges.
func (s *Store) PeekHeader(h hash.Hash) (object.Header, error) {
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return object.Header{}, storeerr.New(storeerr.KindNotFound, "PeekHeader", err).WithHash(h.String())
		}
		return object.Header{}, storeerr.New(storeerr.KindIO, "PeekHeader", err).WithHash(h.String())
	}
	defer f.Close()

	buf := make([]byte, object.HeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return object.Header{}, storeerr.New(storeerr.KindCorrupted, "PeekHeader", err).WithHash(h.String())
	}
	hdr, err := object.DecodeHeader(buf)
	if err != nil {
		return object.Header{}, storeerr.New(storeerr.KindCorrupted, "PeekHeader", err).WithHash(h.String())
	}
	return hdr, nil
}

// PeekType is a convenience wrapper around PeekHeader for callers that
// only need to dispatch on object variant.
func (s *Store) PeekType(h hash.Hash) (object.Type, error) {
	hdr, err := s.PeekHeader(h)
	if err != nil {
		return 0, err
	}
	return hdr.Type, nil
}

func (s *Store) readObject(h hash.Hash) (object.Header, []byte, error) {
	data, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return object.Header{}, nil, storeerr.New(storeerr.KindNotFound, "readObject", err).WithHash(h.String())
		}
		return object.Header{}, nil, storeerr.New(storeerr.KindIO, "readObject", err).WithHash(h.String())
	}
	hdr, payload, err := object.Decode(data)
	if err != nil {
		return object.Header{}, nil, storeerr.New(storeerr.KindCorrupted, "readObject", err).WithHash(h.String())
	}
	return hdr, payload, nil
}

func (s *Store) payloadBytes(hdr object.Header, raw []byte) ([]byte, error) {
	switch hdr.Compression {
	case object.CompressionNone:
		return raw, nil
	case object.CompressionZstd:
		return s.decompress(raw)
	default:
		return nil, storeerr.New(storeerr.KindCorrupted, "payloadBytes", fmt.Errorf("unknown compression tag %d", hdr.Compression))
	}
}

// placeObject writes a fully-formed object for h if one is not already
// present, choosing compression per spec.md §4.5 (never for Tree
// payloads, zstd at or above CompressionThreshold otherwise), and places it
// atomically via temp-file-plus-rename in the object's shard directory.
func (s *Store) placeObject(h hash.Hash, typ object.Type, payload []byte) error {
	path := s.objectPath(h)
	if _, err := os.Stat(path); err == nil {
		return nil // dedup hit
	}

	compression := object.CompressionNone
	body := payload
	if typ != object.TypeTree && len(payload) >= CompressionThreshold {
		compressed, err := s.compress(payload)
		if err != nil {
			return storeerr.New(storeerr.KindIO, "placeObject", err).WithHash(h.String())
		}
		compression = object.CompressionZstd
		body = compressed
	}

	hdr := object.Header{Type: typ, Algorithm: uint8(s.cfg.Algo), Compression: compression}
	full, err := object.Encode(hdr, body)
	if err != nil {
		return storeerr.New(storeerr.KindIO, "placeObject", err).WithHash(h.String())
	}

	if err := s.atomicWrite(path, full); err != nil {
		return err
	}
	s.log.Debug("placed object",
		zap.String("hash", h.String()),
		zap.Stringer("type", typ),
		zap.Int("compression", int(compression)),
		zap.Int("payload_len", len(payload)))
	return nil
}

func (s *Store) atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return storeerr.New(storeerr.KindIO, "atomicWrite", err).WithPath(dir)
	}
	tmp, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return storeerr.New(storeerr.KindIO, "atomicWrite", err).WithPath(dir)
	}
	tmpPath := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil {
		os.Remove(tmpPath)
		return storeerr.New(storeerr.KindIO, "atomicWrite", werr).WithPath(path)
	}
	if cerr != nil {
		os.Remove(tmpPath)
		return storeerr.New(storeerr.KindIO, "atomicWrite", cerr).WithPath(path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return storeerr.New(storeerr.KindIO, "atomicWrite", err).WithPath(path)
	}
	return nil
}

// putBlobBytes stores data as a single Blob object, returning its hash.
// A final path already occupied is dedup success, not an error.
func (s *Store) putBlobBytes(data []byte) (hash.Hash, error) {
	h := hash.Bytes(data)
	if err := s.placeObject(h, object.TypeBlob, data); err != nil {
		return hash.Hash{}, err
	}
	return h, nil
}

// PutBlob stores the content of r, chunking it first if its size is at
// or above ChunkingThreshold (spec.md §4.5 put_blob).
func (s *Store) PutBlob(r io.Reader) (hash.Hash, error) {
	buf := make([]byte, ChunkingThreshold)
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		// Buffer filled exactly: stream is at or above the threshold.
		rest := io.MultiReader(bytes.NewReader(buf[:n]), r)
		return s.putChunked(rest)
	case err == io.ErrUnexpectedEOF || err == io.EOF:
		return s.putBlobBytes(buf[:n])
	default:
		return hash.Hash{}, storeerr.New(storeerr.KindIO, "PutBlob", err)
	}
}

func (s *Store) putChunked(r io.Reader) (hash.Hash, error) {
	c, err := chunker.New(r)
	if err != nil {
		return hash.Hash{}, storeerr.New(storeerr.KindIO, "PutBlob", err)
	}

	running := hash.NewHasher()
	var entries []object.ChunkEntry
	for {
		chunk, err := c.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return hash.Hash{}, storeerr.New(storeerr.KindIO, "PutBlob", err)
		}
		data := append([]byte(nil), chunk.Data...)
		running.Write(data)

		chunkHash, err := s.putBlobBytes(data)
		if err != nil {
			return hash.Hash{}, err
		}
		entries = append(entries, object.ChunkEntry{Hash: chunkHash, Size: uint64(len(data))})
	}

	fileHash := running.Sum()
	payload := object.EncodeChunkList(entries)
	if err := s.placeObject(fileHash, object.TypeChunkList, payload); err != nil {
		return hash.Hash{}, err
	}
	return fileHash, nil
}

// GetChunkList decodes the chunk entries of a ChunkList object without
// reassembling the underlying blob content.
func (s *Store) GetChunkList(h hash.Hash) ([]object.ChunkEntry, error) {
	hdr, raw, err := s.readObject(h)
	if err != nil {
		return nil, err
	}
	if hdr.Type != object.TypeChunkList {
		return nil, storeerr.New(storeerr.KindCorrupted, "GetChunkList", fmt.Errorf("not a chunk list: %s", hdr.Type)).WithHash(h.String())
	}
	payload, err := s.payloadBytes(hdr, raw)
	if err != nil {
		return nil, err
	}
	entries, err := object.DecodeChunkList(payload)
	if err != nil {
		return nil, storeerr.New(storeerr.KindCorrupted, "GetChunkList", err).WithHash(h.String())
	}
	return entries, nil
}

// GetBlob reads and fully verifies the logical content named by h,
// reassembling chunk lists as needed (spec.md §4.5 get_blob).
func (s *Store) GetBlob(h hash.Hash) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.GetBlobTo(&buf, h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetBlobTo streams the logical content named by h to w, verifying the
// hash incrementally so large chunked files need not be buffered whole.
func (s *Store) GetBlobTo(w io.Writer, h hash.Hash) error {
	hdr, raw, err := s.readObject(h)
	if err != nil {
		return err
	}

	switch hdr.Type {
	case object.TypeBlob:
		data, err := s.payloadBytes(hdr, raw)
		if err != nil {
			return err
		}
		if hash.Bytes(data) != h {
			return storeerr.New(storeerr.KindCorrupted, "GetBlob", fmt.Errorf("hash mismatch on read")).WithHash(h.String())
		}
		if _, err := w.Write(data); err != nil {
			return storeerr.New(storeerr.KindIO, "GetBlob", err).WithHash(h.String())
		}
		return nil

	case object.TypeChunkList:
		payload, err := s.payloadBytes(hdr, raw)
		if err != nil {
			return err
		}
		entries, err := object.DecodeChunkList(payload)
		if err != nil {
			return storeerr.New(storeerr.KindCorrupted, "GetBlob", err).WithHash(h.String())
		}
		running := hash.NewHasher()
		for _, entry := range entries {
			data, err := s.GetBlob(entry.Hash)
			if err != nil {
				return err
			}
			if uint64(len(data)) != entry.Size {
				return storeerr.New(storeerr.KindCorrupted, "GetBlob", fmt.Errorf("chunk %s size mismatch", entry.Hash)).WithHash(h.String())
			}
			running.Write(data)
			if _, err := w.Write(data); err != nil {
				return storeerr.New(storeerr.KindIO, "GetBlob", err).WithHash(h.String())
			}
		}
		if running.Sum() != h {
			return storeerr.New(storeerr.KindCorrupted, "GetBlob", fmt.Errorf("reassembled hash mismatch")).WithHash(h.String())
		}
		return nil

	case object.TypeTree:
		return storeerr.New(storeerr.KindCorrupted, "GetBlob", fmt.Errorf("%s is a tree, not a blob", h)).WithHash(h.String())

	default:
		return storeerr.New(storeerr.KindCorrupted, "GetBlob", fmt.Errorf("unknown object type %d", hdr.Type)).WithHash(h.String())
	}
}

// PutTree canonicalizes, validates, and stores entries as a Tree object
// (spec.md §4.5 put_tree).
func (s *Store) PutTree(entries []object.Entry) (hash.Hash, error) {
	canon, err := object.Canonicalize(entries)
	if err != nil {
		return hash.Hash{}, storeerr.New(storeerr.KindInvalidEntry, "PutTree", err)
	}
	payload := object.EncodeTree(canon)
	h := hash.Bytes(payload)
	if err := s.placeObject(h, object.TypeTree, payload); err != nil {
		return hash.Hash{}, err
	}
	return h, nil
}

// GetTree reads, verifies, and decodes a Tree object (spec.md §4.5 get_tree).
func (s *Store) GetTree(h hash.Hash) ([]object.Entry, error) {
	hdr, raw, err := s.readObject(h)
	if err != nil {
		return nil, err
	}
	if hdr.Type != object.TypeTree {
		return nil, storeerr.New(storeerr.KindCorrupted, "GetTree", fmt.Errorf("not a tree: %s", hdr.Type)).WithHash(h.String())
	}
	if hdr.Compression != object.CompressionNone {
		return nil, storeerr.New(storeerr.KindCorrupted, "GetTree", fmt.Errorf("tree has non-none compression")).WithHash(h.String())
	}
	if hash.Bytes(raw) != h {
		return nil, storeerr.New(storeerr.KindCorrupted, "GetTree", fmt.Errorf("hash mismatch on read")).WithHash(h.String())
	}
	entries, err := object.DecodeTree(raw)
	if err != nil {
		return nil, storeerr.New(storeerr.KindCorrupted, "GetTree", err).WithHash(h.String())
	}
	return entries, nil
}

// DeleteObject removes the on-disk object for h. Removing an object
// that is already absent is not an error.
func (s *Store) DeleteObject(h hash.Hash) error {
	if err := os.Remove(s.objectPath(h)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return storeerr.New(storeerr.KindIO, "DeleteObject", err).WithHash(h.String())
	}
	return nil
}

// WalkObjects invokes fn once per object hash stored under objects/,
// skipping in-flight temp files from atomicWrite.
func (s *Store) WalkObjects(fn func(hash.Hash) error) error {
	root := s.objectsDir
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return storeerr.New(storeerr.KindIO, "WalkObjects", err).WithPath(path)
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return storeerr.New(storeerr.KindIO, "WalkObjects", err).WithPath(path)
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != hash.Size*2-2 {
			return nil // not a shard/suffix pair: a stray temp file
		}
		h, err := hash.FromHex(parts[0] + parts[1])
		if err != nil {
			return nil
		}
		return fn(h)
	})
}
