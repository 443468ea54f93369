// Package gc implements mark-and-sweep garbage collection (spec.md
// §4.9) and orphan tree discovery (spec.md §4.6) over a store engine.
package gc

import (
	"github.com/fenilsonani/castor/internal/core/hash"
	"github.com/fenilsonani/castor/internal/core/object"
	"github.com/fenilsonani/castor/internal/core/storeerr"
	"go.uber.org/zap"
)

// Engine is the subset of the store engine GC needs: enough to walk
// every object, read its type and edges, and delete the unreachable.
type Engine interface {
	WalkObjects(fn func(hash.Hash) error) error
	PeekType(h hash.Hash) (object.Type, error)
	GetTree(h hash.Hash) ([]object.Entry, error)
	GetChunkList(h hash.Hash) ([]object.ChunkEntry, error)
	ObjectSize(h hash.Hash) (int64, error)
	DeleteObject(h hash.Hash) error
}

// Result summarizes one GC run (spec.md §6 gc → {objects_deleted, bytes_freed}).
type Result struct {
	ObjectsMarked  int
	ObjectsDeleted int
	BytesFreed     int64
	DeleteErrors   map[hash.Hash]error
}

// Mark computes the reachable closure starting from roots, following
// Tree and ChunkList edges (spec.md §4.9 mark phase). A read error on
// any reachable object is returned immediately without partial results,
// since the mark-time failure contract requires aborting GC entirely.
func Mark(e Engine, roots []hash.Hash) (map[hash.Hash]struct{}, error) {
	live := make(map[hash.Hash]struct{}, len(roots))
	queue := make([]hash.Hash, 0, len(roots))
	for _, h := range roots {
		if _, ok := live[h]; !ok {
			live[h] = struct{}{}
			queue = append(queue, h)
		}
	}

	for len(queue) > 0 {
		h := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		typ, err := e.PeekType(h)
		if err != nil {
			return nil, storeerr.New(storeerr.KindIO, "gc.Mark", err).WithHash(h.String())
		}

		switch typ {
		case object.TypeBlob:
			// No outgoing edges.
		case object.TypeTree:
			entries, err := e.GetTree(h)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				if _, ok := live[entry.Hash]; !ok {
					live[entry.Hash] = struct{}{}
					queue = append(queue, entry.Hash)
				}
			}
		case object.TypeChunkList:
			chunks, err := e.GetChunkList(h)
			if err != nil {
				return nil, err
			}
			for _, chunk := range chunks {
				if _, ok := live[chunk.Hash]; !ok {
					live[chunk.Hash] = struct{}{}
					queue = append(queue, chunk.Hash)
				}
			}
		}
	}
	return live, nil
}

// Run performs a full mark-and-sweep collection rooted at refTargets.
// When dryRun is true, no objects are deleted but counters reflect what
// would have been freed (spec.md §4.9).
func Run(e Engine, log *zap.Logger, refTargets []hash.Hash, dryRun bool) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	live, err := Mark(e, refTargets)
	if err != nil {
		return Result{}, err
	}
	log.Info("gc mark complete", zap.Int("live_objects", len(live)))

	result := Result{ObjectsMarked: len(live), DeleteErrors: make(map[hash.Hash]error)}
	walkErr := e.WalkObjects(func(h hash.Hash) error {
		if _, ok := live[h]; ok {
			return nil
		}
		size, err := e.ObjectSize(h)
		if err != nil {
			result.DeleteErrors[h] = err
			return nil
		}
		if dryRun {
			result.ObjectsDeleted++
			result.BytesFreed += size
			return nil
		}
		if err := e.DeleteObject(h); err != nil {
			result.DeleteErrors[h] = err
			return nil
		}
		result.ObjectsDeleted++
		result.BytesFreed += size
		return nil
	})
	if walkErr != nil {
		return result, walkErr
	}

	log.Info("gc sweep complete",
		zap.Int("objects_deleted", result.ObjectsDeleted),
		zap.Int64("bytes_freed", result.BytesFreed),
		zap.Bool("dry_run", dryRun),
		zap.Int("delete_errors", len(result.DeleteErrors)))
	return result, nil
}

// Orphan describes one orphan tree root (spec.md §4.6 find_orphans).
type Orphan struct {
	Hash       hash.Hash
	EntryCount int
	ApproxSize int64
}

// FindOrphans returns every Tree object reachable neither from a
// reference nor as a child of another live tree.
func FindOrphans(e Engine, refTargets []hash.Hash) ([]Orphan, error) {
	allTrees := make(map[hash.Hash]struct{})
	childTrees := make(map[hash.Hash]struct{})

	err := e.WalkObjects(func(h hash.Hash) error {
		typ, err := e.PeekType(h)
		if err != nil {
			return err
		}
		if typ != object.TypeTree {
			return nil
		}
		allTrees[h] = struct{}{}

		entries, err := e.GetTree(h)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.Type == object.EntryTree {
				childTrees[entry.Hash] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rooted := make(map[hash.Hash]struct{}, len(refTargets))
	for _, h := range refTargets {
		rooted[h] = struct{}{}
	}

	var orphans []Orphan
	for h := range allTrees {
		if _, isRoot := rooted[h]; isRoot {
			continue
		}
		if _, isChild := childTrees[h]; isChild {
			continue
		}
		entries, err := e.GetTree(h)
		if err != nil {
			return nil, err
		}
		size, err := e.ObjectSize(h)
		if err != nil {
			return nil, err
		}
		orphans = append(orphans, Orphan{Hash: h, EntryCount: len(entries), ApproxSize: size})
	}
	return orphans, nil
}
