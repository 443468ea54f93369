package store

import (
	"path/filepath"

	"github.com/fenilsonani/castor/internal/core/hash"
)

const (
	objectsDirName = "objects"
	refsDirName    = "refs"
	configFileName = "config"

	// RefsDirName and JournalFileName are exported so pkg/castor can
	// point its refs.Manager and journal.Journal at the same paths
	// without duplicating the layout's naming.
	RefsDirName     = refsDirName
	JournalFileName = "journal"
)

func objectsRoot(storeRoot string, algo hash.Algorithm) string {
	return filepath.Join(storeRoot, objectsDirName, algo.Name())
}

// objectPath returns the canonical on-disk location of an object with
// hash h: objects/<algo>/<first-2-hex>/<remaining-62-hex>.
func (s *Store) objectPath(h hash.Hash) string {
	return filepath.Join(s.objectsDir, h.Prefix(), h.Suffix())
}

func (s *Store) shardDir(h hash.Hash) string {
	return filepath.Join(s.objectsDir, h.Prefix())
}
