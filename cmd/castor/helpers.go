package main

import (
	"fmt"
	"os"

	"github.com/fenilsonani/castor/internal/core/hash"
	"github.com/fenilsonani/castor/pkg/castor"
)

// storeRootFlag is bound to the root command's --store persistent flag.
var storeRootFlag string

// defaultStoreDir is the fallback store root when neither --store nor
// CASTOR_STORE is set, per SPEC_FULL.md's CLI default-root decision.
const defaultStoreDir = "./castor-store"

// resolveStoreRoot implements the CLI's store-root resolution policy:
// the core itself never reads environment variables, so the CLI
// (external collaborator) resolves a user-supplied flag, then
// CASTOR_STORE, then a fixed default.
func resolveStoreRoot() string {
	if storeRootFlag != "" {
		return storeRootFlag
	}
	if env := os.Getenv("CASTOR_STORE"); env != "" {
		return env
	}
	return defaultStoreDir
}

// openStore opens the store at the resolved root, failing with a clear
// message if it has not been initialized yet.
func openStore() (*castor.Store, error) {
	root := resolveStoreRoot()
	s, err := castor.Open(root, castor.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("not a castor store at %s: %w", root, err)
	}
	return s, nil
}

// parseHashArg parses a command-line hex hash argument with a
// consistent error message across commands.
func parseHashArg(s string) (hash.Hash, error) {
	h, err := hash.FromHex(s)
	if err != nil {
		return hash.Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return h, nil
}
