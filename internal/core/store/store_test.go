package store

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/castor/internal/core/hash"
	"github.com/fenilsonani/castor/internal/core/object"
	"github.com/fenilsonani/castor/internal/core/storeerr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Init(t.TempDir(), hash.AlgorithmBlake3)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInit_WritesConfig(t *testing.T) {
	root := t.TempDir()
	s, err := Init(root, hash.AlgorithmBlake3)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer s.Close()

	data, err := os.ReadFile(filepath.Join(root, configFileName))
	if err != nil {
		t.Fatalf("ReadFile(config) error = %v", err)
	}
	content := string(data)
	if !bytes.Contains(data, []byte("version=1")) || !bytes.Contains(data, []byte("algo=blake3-256")) {
		t.Errorf("config content = %q, missing expected keys", content)
	}
}

func TestOpen_MissingConfig(t *testing.T) {
	_, err := Open(t.TempDir())
	if !errors.Is(err, storeerr.ErrInvalidStore) {
		t.Errorf("Open() error = %v, want ErrInvalidStore", err)
	}
}

func TestPutBlob_SmallUncompressed(t *testing.T) {
	s := newTestStore(t)

	content := []byte("tiny")
	h, err := s.PutBlob(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}

	hdr, err := s.PeekHeader(h)
	if err != nil {
		t.Fatalf("PeekHeader() error = %v", err)
	}
	if hdr.Compression != object.CompressionNone {
		t.Errorf("small blob compression = %v, want none", hdr.Compression)
	}
}

func TestPutBlob_LargePayloadCompressed(t *testing.T) {
	s := newTestStore(t)

	content := bytes.Repeat([]byte("a"), CompressionThreshold+1)
	h, err := s.PutBlob(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}

	hdr, err := s.PeekHeader(h)
	if err != nil {
		t.Fatalf("PeekHeader() error = %v", err)
	}
	if hdr.Compression != object.CompressionZstd {
		t.Errorf("large blob compression = %v, want zstd", hdr.Compression)
	}

	got, err := s.GetBlob(h)
	if err != nil {
		t.Fatalf("GetBlob() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("GetBlob() roundtrip mismatch for compressed content")
	}
}

func TestPutTree_NeverCompressed(t *testing.T) {
	s := newTestStore(t)

	entries := make([]object.Entry, 0, 200)
	for i := 0; i < 200; i++ {
		entries = append(entries, object.Entry{
			Type: object.EntryBlob,
			Mode: 0644,
			Hash: hash.Bytes([]byte{byte(i)}),
			Name: fmt.Sprintf("entry-%03d", i),
		})
	}

	h, err := s.PutTree(entries)
	if err != nil {
		t.Fatalf("PutTree() error = %v", err)
	}

	hdr, err := s.PeekHeader(h)
	if err != nil {
		t.Fatalf("PeekHeader() error = %v", err)
	}
	if hdr.Compression != object.CompressionNone {
		t.Errorf("tree compression = %v, want none even for large payloads", hdr.Compression)
	}
}

func TestPutBlob_DedupSkipsRewrite(t *testing.T) {
	s := newTestStore(t)

	content := []byte("same content twice")
	h1, err := s.PutBlob(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("first PutBlob() error = %v", err)
	}
	h2, err := s.PutBlob(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("second PutBlob() error = %v", err)
	}
	if h1 != h2 {
		t.Errorf("PutBlob() hashes differ on identical content: %v vs %v", h1, h2)
	}
}

func TestPutBlob_ChunkedLargeFile(t *testing.T) {
	s := newTestStore(t)

	content := bytes.Repeat([]byte("0123456789abcdef"), ChunkingThreshold/16+1)
	h, err := s.PutBlob(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}

	typ, err := s.PeekType(h)
	if err != nil {
		t.Fatalf("PeekType() error = %v", err)
	}
	if typ != object.TypeChunkList {
		t.Errorf("PeekType() = %v, want ChunkList for file above chunking threshold", typ)
	}

	got, err := s.GetBlob(h)
	if err != nil {
		t.Fatalf("GetBlob() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("GetBlob() roundtrip mismatch for chunked content")
	}
}

func TestGetTree_RejectsNonTreeType(t *testing.T) {
	s := newTestStore(t)

	h, err := s.PutBlob(bytes.NewReader([]byte("a blob")))
	if err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}

	_, err = s.GetTree(h)
	if !errors.Is(err, storeerr.ErrCorrupted) {
		t.Errorf("GetTree() on a blob hash error = %v, want ErrCorrupted", err)
	}
}

func TestWalkObjects_SkipsTempFiles(t *testing.T) {
	s := newTestStore(t)

	h, err := s.PutBlob(bytes.NewReader([]byte("content")))
	if err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}

	stray, err := os.CreateTemp(s.shardDir(h), "tmp-*")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	stray.Close()

	var seen []hash.Hash
	err = s.WalkObjects(func(h hash.Hash) error {
		seen = append(seen, h)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkObjects() error = %v", err)
	}
	if len(seen) != 1 || seen[0] != h {
		t.Errorf("WalkObjects() = %v, want exactly [%v]", seen, h)
	}
}

// TestScenario_S1_SmallFileRoundTrip checks the literal header bytes
// spec.md §8 scenario S1 specifies for a 6-byte uncompressed blob.
func TestScenario_S1_SmallFileRoundTrip(t *testing.T) {
	s := newTestStore(t)

	content := []byte("hello\n")
	h, err := s.PutBlob(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}
	if want := hash.Bytes(content); h != want {
		t.Errorf("PutBlob() hash = %s, want %s", h, want)
	}

	raw, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		t.Fatalf("ReadFile(object) error = %v", err)
	}
	wantHeader := []byte{0x43, 0x41, 0x46, 0x53, 0x02, 0x01, 0x01, 0x00, 0x06, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(raw[:16], wantHeader) {
		t.Errorf("header bytes = % x, want % x", raw[:16], wantHeader)
	}
	if !bytes.Equal(raw[16:], content) {
		t.Errorf("payload = %q, want %q", raw[16:], content)
	}

	got, err := s.GetBlob(h)
	if err != nil {
		t.Fatalf("GetBlob() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("GetBlob() = %q, want %q", got, content)
	}
}

// TestScenario_S2_MediumFileCompressed covers spec.md §8 scenario S2.
func TestScenario_S2_MediumFileCompressed(t *testing.T) {
	s := newTestStore(t)

	content := bytes.Repeat([]byte("abcd"), 10*1024/4)
	if len(content) != 10*1024 {
		t.Fatalf("setup: content length = %d, want 10240", len(content))
	}

	h, err := s.PutBlob(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}
	if want := hash.Bytes(content); h != want {
		t.Errorf("PutBlob() hash = %s, want %s", h, want)
	}

	hdr, err := s.PeekHeader(h)
	if err != nil {
		t.Fatalf("PeekHeader() error = %v", err)
	}
	if hdr.Compression != object.CompressionZstd {
		t.Errorf("compression = %v, want zstd", hdr.Compression)
	}
	if hdr.PayloadLen >= 10240 {
		t.Errorf("payload_len = %d, want < 10240", hdr.PayloadLen)
	}

	got, err := s.GetBlob(h)
	if err != nil {
		t.Fatalf("GetBlob() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("GetBlob() roundtrip mismatch")
	}
}

// TestScenario_S3_LargeFileChunked covers spec.md §8 scenario S3.
func TestScenario_S3_LargeFileChunked(t *testing.T) {
	s := newTestStore(t)

	content := randomBytesForTest(3 * 1024 * 1024)
	h, err := s.PutBlob(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}
	if want := hash.Bytes(content); h != want {
		t.Errorf("PutBlob() hash = %s, want %s", h, want)
	}

	typ, err := s.PeekType(h)
	if err != nil {
		t.Fatalf("PeekType() error = %v", err)
	}
	if typ != object.TypeChunkList {
		t.Fatalf("PeekType() = %v, want ChunkList", typ)
	}

	chunks, err := s.GetChunkList(h)
	if err != nil {
		t.Fatalf("GetChunkList() error = %v", err)
	}
	if len(chunks) < 3 {
		t.Errorf("chunk count = %d, want >= 3", len(chunks))
	}
	for _, c := range chunks {
		chunkTyp, err := s.PeekType(c.Hash)
		if err != nil {
			t.Fatalf("PeekType(chunk) error = %v", err)
		}
		if chunkTyp != object.TypeBlob {
			t.Errorf("chunk object type = %v, want Blob", chunkTyp)
		}
		chunkHdr, err := s.PeekHeader(c.Hash)
		if err != nil {
			t.Fatalf("PeekHeader(chunk) error = %v", err)
		}
		if chunkHdr.Compression != object.CompressionZstd {
			t.Errorf("chunk compression = %v, want zstd (chunks are >= 4KiB)", chunkHdr.Compression)
		}
	}

	got, err := s.GetBlob(h)
	if err != nil {
		t.Fatalf("GetBlob() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("GetBlob() chunked roundtrip mismatch")
	}
}

// TestScenario_S4_TreeCanonicalization covers spec.md §8 scenario S4:
// put_tree is insensitive to entry order.
func TestScenario_S4_TreeCanonicalization(t *testing.T) {
	s := newTestStore(t)

	ha, err := s.PutBlob(bytes.NewReader([]byte("a content")))
	if err != nil {
		t.Fatalf("PutBlob(a) error = %v", err)
	}
	hb, err := s.PutBlob(bytes.NewReader([]byte("b content")))
	if err != nil {
		t.Fatalf("PutBlob(b) error = %v", err)
	}

	forward := []object.Entry{
		{Type: object.EntryBlob, Mode: 0o644, Hash: hb, Name: "b.txt"},
		{Type: object.EntryBlob, Mode: 0o644, Hash: ha, Name: "a.txt"},
	}
	reverse := []object.Entry{forward[1], forward[0]}

	h1, err := s.PutTree(forward)
	if err != nil {
		t.Fatalf("PutTree(forward) error = %v", err)
	}
	h2, err := s.PutTree(reverse)
	if err != nil {
		t.Fatalf("PutTree(reverse) error = %v", err)
	}
	if h1 != h2 {
		t.Errorf("PutTree() order-dependent: %s != %s", h1, h2)
	}
}

func randomBytesForTest(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(1)).Read(b)
	return b
}

func TestDeleteObject_MissingIsNotError(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteObject(hash.Bytes([]byte("never stored"))); err != nil {
		t.Errorf("DeleteObject() on missing object error = %v, want nil", err)
	}
}
