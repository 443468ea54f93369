// Package castor is the single-handle facade gluing the core packages
// (hash, object, chunker, store, refs, journal, gc, walk) into the
// documented API (spec.md §6 / SPEC_FULL.md §9).
package castor

import (
	"io"
	"path/filepath"

	"github.com/fenilsonani/castor/internal/core/gc"
	"github.com/fenilsonani/castor/internal/core/hash"
	"github.com/fenilsonani/castor/internal/core/journal"
	"github.com/fenilsonani/castor/internal/core/object"
	"github.com/fenilsonani/castor/internal/core/refs"
	"github.com/fenilsonani/castor/internal/core/store"
	"github.com/fenilsonani/castor/internal/core/walk"
	"go.uber.org/zap"
)

// Hash re-exports the core content digest type so callers of this
// package never need to import internal/core/hash directly.
type Hash = hash.Hash

// Entry re-exports a tree entry.
type Entry = object.Entry

// Ref names a stored reference and the hash it currently points to.
type Ref = refs.Ref

// JournalEntry re-exports one decoded journal record.
type JournalEntry = journal.Entry

// GCResult summarizes one garbage-collection run.
type GCResult = gc.Result

// Orphan describes one orphan tree root.
type Orphan = gc.Orphan

// Store is the single-handle entry point to a castor store: the
// storage engine plus its refs/journal/GC collaborators, all rooted at
// one directory.
type Store struct {
	engine  *store.Store
	refs    *refs.Manager
	journal *journal.Journal
	log     *zap.Logger
}

// Option configures a Store at Init/Open time.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger attaches a structured logger to every component of the
// opened store.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func resolveOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Init creates a new store rooted at root using the given hash
// algorithm, failing with InvalidStore if root already holds a config
// file (spec.md §4.5 init).
func Init(root string, algo hash.Algorithm, opts ...Option) (*Store, error) {
	o := resolveOptions(opts)
	engine, err := store.Init(root, algo, store.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return newStore(root, engine, o), nil
}

// Open opens an existing store rooted at root, validating its config
// (spec.md §4.5 open).
func Open(root string, opts ...Option) (*Store, error) {
	o := resolveOptions(opts)
	engine, err := store.Open(root, store.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return newStore(root, engine, o), nil
}

func newStore(root string, engine *store.Store, o *options) *Store {
	return &Store{
		engine:  engine,
		refs:    refs.NewManager(filepath.Join(root, store.RefsDirName)),
		journal: journal.New(filepath.Join(root, store.JournalFileName)),
		log:     o.logger,
	}
}

// Close releases the store's underlying resources (compression codecs).
func (s *Store) Close() error {
	return s.engine.Close()
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.engine.Root() }

// Algo returns the store's configured hash algorithm.
func (s *Store) Algo() hash.Algorithm { return s.engine.Algo() }

// PutBlob stores the content of r, chunking it if needed, and returns
// its content hash (spec.md §4.5 put_blob).
func (s *Store) PutBlob(r io.Reader) (Hash, error) {
	return s.engine.PutBlob(r)
}

// GetBlob reads and fully verifies the logical content named by h
// (spec.md §4.5 get_blob).
func (s *Store) GetBlob(h Hash) ([]byte, error) {
	return s.engine.GetBlob(h)
}

// GetBlobTo streams the logical content named by h to w.
func (s *Store) GetBlobTo(w io.Writer, h Hash) error {
	return s.engine.GetBlobTo(w, h)
}

// PutTree canonicalizes, validates, and stores entries as a Tree object
// (spec.md §4.5 put_tree).
func (s *Store) PutTree(entries []Entry) (Hash, error) {
	return s.engine.PutTree(entries)
}

// GetTree reads, verifies, and decodes a Tree object (spec.md §4.5 get_tree).
func (s *Store) GetTree(h Hash) ([]Entry, error) {
	return s.engine.GetTree(h)
}

// AddPath recursively walks path, storing files as Blob objects and
// directories as Tree objects, and returns the hash of the root
// (spec.md §4.5 add_path).
func (s *Store) AddPath(path string) (Hash, error) {
	return walk.AddPath(s.engine, path)
}

// Materialize reconstructs the object named by h on disk at dest
// (spec.md §4.5 materialize).
func (s *Store) Materialize(h Hash, dest string) error {
	return walk.Materialize(s.engine, h, dest)
}

// HasObject reports whether an object with hash h is present.
func (s *Store) HasObject(h Hash) bool {
	return s.engine.HasObject(h)
}

// RefsAPI groups the named-reference operations (spec.md §4.8).
type RefsAPI struct {
	store *Store
}

// Refs returns the store's reference sub-API.
func (s *Store) Refs() RefsAPI { return RefsAPI{store: s} }

// Add appends h as the new current value of name (refs.add).
func (r RefsAPI) Add(name string, h Hash) error {
	return r.store.refs.Add(name, h)
}

// Get resolves name to its current hash (refs.get).
func (r RefsAPI) Get(name string) (Hash, error) {
	return r.store.refs.Get(name)
}

// List returns every ref, sorted by name (refs.list).
func (r RefsAPI) List() ([]Ref, error) {
	return r.store.refs.List()
}

// Remove deletes the ref file for name (refs.remove).
func (r RefsAPI) Remove(name string) error {
	return r.store.refs.Remove(name)
}

// JournalAPI groups the append-only journal operations (spec.md §4.7).
type JournalAPI struct {
	store *Store
}

// Journal returns the store's journal sub-API.
func (s *Store) Journal() JournalAPI { return JournalAPI{store: s} }

// Append records one operation. now is the caller-supplied Unix
// timestamp; the core never reads the clock itself.
func (j JournalAPI) Append(now int64, operation, hexHash, path, metadata string) error {
	return j.store.journal.Append(now, operation, hexHash, path, metadata)
}

// ReadRecent returns the n most recent well-formed journal entries.
func (j JournalAPI) ReadRecent(n int) ([]JournalEntry, error) {
	return j.store.journal.ReadRecent(n)
}

// ReadOrphaned returns journal entries whose hash names one of the
// given orphan hashes.
func (j JournalAPI) ReadOrphaned(orphanHashes map[string]struct{}) ([]JournalEntry, error) {
	return j.store.journal.ReadOrphaned(orphanHashes)
}

// refTargets collects the hashes currently named by any reference, the
// GC root set (spec.md §4.9 mark phase step 1).
func (s *Store) refTargets() ([]Hash, error) {
	all, err := s.refs.List()
	if err != nil {
		return nil, err
	}
	targets := make([]Hash, len(all))
	for i, ref := range all {
		targets[i] = ref.Hash
	}
	return targets, nil
}

// GC runs a mark-and-sweep collection rooted at every current reference
// target. When dryRun is true, no objects are deleted (spec.md §4.9).
func (s *Store) GC(dryRun bool) (GCResult, error) {
	targets, err := s.refTargets()
	if err != nil {
		return GCResult{}, err
	}
	return gc.Run(s.engine, s.log, targets, dryRun)
}

// FindOrphans returns every Tree object reachable neither from a
// reference nor as a child of another live tree (spec.md §4.6).
func (s *Store) FindOrphans() ([]Orphan, error) {
	targets, err := s.refTargets()
	if err != nil {
		return nil, err
	}
	return gc.FindOrphans(s.engine, targets)
}
