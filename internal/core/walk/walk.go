// Package walk implements the filesystem-facing tree operations
// (spec.md §4.5): add_path walks a subtree into Blob/Tree objects, and
// materialize reconstructs a subtree on disk from a hash.
package walk

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fenilsonani/castor/internal/core/hash"
	"github.com/fenilsonani/castor/internal/core/object"
	"github.com/fenilsonani/castor/internal/core/storeerr"
)

// Engine is the subset of the store engine add_path and materialize
// need: putting/getting blobs and trees by hash.
type Engine interface {
	PutBlob(r io.Reader) (hash.Hash, error)
	PutTree(entries []object.Entry) (hash.Hash, error)
	GetTree(h hash.Hash) ([]object.Entry, error)
	GetBlobTo(w io.Writer, h hash.Hash) error
	PeekType(h hash.Hash) (object.Type, error)
}

// AddPath recursively walks path, storing regular files as Blob
// objects and directories as Tree objects, and returns the hash of the
// root. Symlinks and other non-regular files are rejected with IoError,
// per spec.md §4.5's "caller policy applies" note (the core has no
// symlink semantics).
func AddPath(e Engine, path string) (hash.Hash, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return hash.Hash{}, storeerr.New(storeerr.KindIO, "AddPath", err).WithPath(path)
	}

	switch {
	case info.Mode().IsRegular():
		f, err := os.Open(path)
		if err != nil {
			return hash.Hash{}, storeerr.New(storeerr.KindIO, "AddPath", err).WithPath(path)
		}
		defer f.Close()
		h, err := e.PutBlob(f)
		if err != nil {
			return hash.Hash{}, err
		}
		return h, nil

	case info.IsDir():
		dirEntries, err := os.ReadDir(path)
		if err != nil {
			return hash.Hash{}, storeerr.New(storeerr.KindIO, "AddPath", err).WithPath(path)
		}
		sort.Slice(dirEntries, func(i, j int) bool { return dirEntries[i].Name() < dirEntries[j].Name() })

		entries := make([]object.Entry, 0, len(dirEntries))
		for _, de := range dirEntries {
			childPath := filepath.Join(path, de.Name())
			childInfo, err := de.Info()
			if err != nil {
				return hash.Hash{}, storeerr.New(storeerr.KindIO, "AddPath", err).WithPath(childPath)
			}
			childHash, err := AddPath(e, childPath)
			if err != nil {
				return hash.Hash{}, err
			}
			entryType := object.EntryBlob
			if childInfo.IsDir() {
				entryType = object.EntryTree
			}
			entries = append(entries, object.Entry{
				Type: entryType,
				Mode: uint32(childInfo.Mode().Perm()),
				Hash: childHash,
				Name: de.Name(),
			})
		}
		return e.PutTree(entries)

	default:
		return hash.Hash{}, storeerr.New(storeerr.KindIO, "AddPath", os.ErrInvalid).WithPath(path)
	}
}

// Materialize reconstructs the object named by h on disk at dest. It
// fails with PathExists if dest is already occupied (spec.md §4.5).
func Materialize(e Engine, h hash.Hash, dest string) error {
	if _, err := os.Lstat(dest); err == nil {
		return storeerr.New(storeerr.KindPathExists, "Materialize", os.ErrExist).WithPath(dest)
	}

	typ, err := e.PeekType(h)
	if err != nil {
		return err
	}

	switch typ {
	case object.TypeTree:
		if err := os.MkdirAll(dest, 0755); err != nil {
			return storeerr.New(storeerr.KindIO, "Materialize", err).WithPath(dest)
		}
		entries, err := e.GetTree(h)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			childDest := filepath.Join(dest, entry.Name)
			if err := Materialize(e, entry.Hash, childDest); err != nil {
				return err
			}
			if err := os.Chmod(childDest, os.FileMode(entry.Mode)); err != nil {
				return storeerr.New(storeerr.KindIO, "Materialize", err).WithPath(childDest)
			}
		}
		return nil

	default: // Blob or ChunkList: a single file.
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return storeerr.New(storeerr.KindIO, "Materialize", err).WithPath(dest)
		}
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			if os.IsExist(err) {
				return storeerr.New(storeerr.KindPathExists, "Materialize", err).WithPath(dest)
			}
			return storeerr.New(storeerr.KindIO, "Materialize", err).WithPath(dest)
		}
		defer f.Close()
		if err := e.GetBlobTo(f, h); err != nil {
			return err
		}
		return nil
	}
}
