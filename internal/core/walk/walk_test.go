package walk

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/castor/internal/core/hash"
	"github.com/fenilsonani/castor/internal/core/object"
	"github.com/fenilsonani/castor/internal/core/storeerr"
)

// fakeEngine is an in-memory stand-in for the store engine, grounded on
// the Engine interface's method set.
type fakeEngine struct {
	blobs map[hash.Hash][]byte
	trees map[hash.Hash][]object.Entry
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		blobs: make(map[hash.Hash][]byte),
		trees: make(map[hash.Hash][]object.Entry),
	}
}

func (f *fakeEngine) PutBlob(r io.Reader) (hash.Hash, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return hash.Hash{}, err
	}
	h := hash.Bytes(data)
	f.blobs[h] = data
	return h, nil
}

func (f *fakeEngine) PutTree(entries []object.Entry) (hash.Hash, error) {
	canon, err := object.Canonicalize(entries)
	if err != nil {
		return hash.Hash{}, err
	}
	payload := object.EncodeTree(canon)
	h := hash.Bytes(payload)
	f.trees[h] = canon
	return h, nil
}

func (f *fakeEngine) GetTree(h hash.Hash) ([]object.Entry, error) {
	entries, ok := f.trees[h]
	if !ok {
		return nil, errors.New("not found")
	}
	return entries, nil
}

func (f *fakeEngine) GetBlobTo(w io.Writer, h hash.Hash) error {
	data, ok := f.blobs[h]
	if !ok {
		return errors.New("not found")
	}
	_, err := w.Write(data)
	return err
}

func (f *fakeEngine) PeekType(h hash.Hash) (object.Type, error) {
	if _, ok := f.trees[h]; ok {
		return object.TypeTree, nil
	}
	if _, ok := f.blobs[h]; ok {
		return object.TypeBlob, nil
	}
	return 0, errors.New("not found")
}

func TestAddPath_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	e := newFakeEngine()
	h, err := AddPath(e, path)
	if err != nil {
		t.Fatalf("AddPath() error = %v", err)
	}
	if !bytes.Equal(e.blobs[h], []byte("hello")) {
		t.Errorf("AddPath() stored %q, want %q", e.blobs[h], "hello")
	}
}

func TestAddPath_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("bbb"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	e := newFakeEngine()
	h, err := AddPath(e, dir)
	if err != nil {
		t.Fatalf("AddPath() error = %v", err)
	}

	entries, err := e.GetTree(h)
	if err != nil {
		t.Fatalf("GetTree() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("GetTree() returned %d entries, want 2", len(entries))
	}
	if entries[0].Name != "a.txt" || entries[1].Name != "sub" {
		t.Errorf("GetTree() entries = %+v, want sorted a.txt, sub", entries)
	}
	if entries[1].Type != object.EntryTree {
		t.Errorf("sub entry type = %v, want EntryTree", entries[1].Type)
	}
}

func TestMaterialize_RoundTrip(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("aaa"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.Mkdir(filepath.Join(src, "sub"), 0755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("bbb"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	e := newFakeEngine()
	h, err := AddPath(e, src)
	if err != nil {
		t.Fatalf("AddPath() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "out")
	if err := Materialize(e, h, dest); err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	gotA, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile(a.txt) error = %v", err)
	}
	if string(gotA) != "aaa" {
		t.Errorf("a.txt content = %q, want %q", gotA, "aaa")
	}
	gotB, err := os.ReadFile(filepath.Join(dest, "sub", "b.txt"))
	if err != nil {
		t.Fatalf("ReadFile(sub/b.txt) error = %v", err)
	}
	if string(gotB) != "bbb" {
		t.Errorf("sub/b.txt content = %q, want %q", gotB, "bbb")
	}
}

func TestMaterialize_PathExists(t *testing.T) {
	e := newFakeEngine()
	h, err := e.PutBlob(bytes.NewReader([]byte("content")))
	if err != nil {
		t.Fatalf("PutBlob() error = %v", err)
	}

	dest := t.TempDir() // already exists
	err = Materialize(e, h, dest)
	if !errors.Is(err, storeerr.ErrPathExists) {
		t.Errorf("Materialize() error = %v, want ErrPathExists", err)
	}
}
