// Package refs implements named references (spec.md §4.8): one
// append-only text file per name under refs/, whose current value is
// the last non-blank, non-comment line.
package refs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fenilsonani/castor/internal/core/hash"
	"github.com/fenilsonani/castor/internal/core/storeerr"
)

// Ref is a named pointer to a hash.
type Ref struct {
	Name string
	Hash hash.Hash
}

// Manager manages the refs/ directory of a store.
type Manager struct {
	dir string
}

// NewManager returns a Manager rooted at dir (a store's refs/ directory).
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// ValidateName rejects path separators, parent references, NUL bytes,
// and empty strings, per spec.md §4.8.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty ref name", storeerr.ErrInvalidRef)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: ref name contains NUL", storeerr.ErrInvalidRef)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: ref name contains a path separator", storeerr.ErrInvalidRef)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: ref name is a parent reference", storeerr.ErrInvalidRef)
	}
	return nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name)
}

// Add appends h as the new current value of name, creating the ref
// file if it does not yet exist.
func (m *Manager) Add(name string, h hash.Hash) error {
	if err := ValidateName(name); err != nil {
		return storeerr.New(storeerr.KindInvalidRef, "refs.Add", err).WithName(name)
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return storeerr.New(storeerr.KindIO, "refs.Add", err).WithName(name)
	}
	f, err := os.OpenFile(m.path(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return storeerr.New(storeerr.KindIO, "refs.Add", err).WithName(name)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, h.String()); err != nil {
		return storeerr.New(storeerr.KindIO, "refs.Add", err).WithName(name)
	}
	return nil
}

// currentValue reads the last non-blank, non-comment line of the ref
// file at path and parses it as a hash.
func currentValue(path string) (hash.Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return hash.Hash{}, err
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		last = line
	}
	if err := scanner.Err(); err != nil {
		return hash.Hash{}, err
	}
	if last == "" {
		return hash.Hash{}, fmt.Errorf("ref file has no current value")
	}
	return hash.FromHex(last)
}

// Get resolves name to its current hash.
func (m *Manager) Get(name string) (hash.Hash, error) {
	if err := ValidateName(name); err != nil {
		return hash.Hash{}, storeerr.New(storeerr.KindInvalidRef, "refs.Get", err).WithName(name)
	}
	h, err := currentValue(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return hash.Hash{}, storeerr.New(storeerr.KindNotFound, "refs.Get", err).WithName(name)
		}
		return hash.Hash{}, storeerr.New(storeerr.KindCorrupted, "refs.Get", err).WithName(name)
	}
	return h, nil
}

// List returns every ref in the directory, sorted by name.
func (m *Manager) List() ([]Ref, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, storeerr.New(storeerr.KindIO, "refs.List", err).WithPath(m.dir)
	}

	var out []Ref
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		h, err := currentValue(m.path(name))
		if err != nil {
			return nil, storeerr.New(storeerr.KindCorrupted, "refs.List", err).WithName(name)
		}
		out = append(out, Ref{Name: name, Hash: h})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Remove deletes the ref file for name. Removing a ref that does not
// exist is not an error.
func (m *Manager) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return storeerr.New(storeerr.KindInvalidRef, "refs.Remove", err).WithName(name)
	}
	if err := os.Remove(m.path(name)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return storeerr.New(storeerr.KindIO, "refs.Remove", err).WithName(name)
	}
	return nil
}
