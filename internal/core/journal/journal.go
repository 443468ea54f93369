// Package journal implements the store's append-only operation log
// (spec.md §4.7): a human-readable, best-effort record of what the
// store engine did. It never gates garbage collection.
package journal

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fenilsonani/castor/internal/core/storeerr"
)

// StdinPath is the sentinel original-path value for content read from
// standard input rather than a filesystem path.
const StdinPath = "(stdin)"

// Entry is one decoded journal record.
type Entry struct {
	Timestamp int64
	Operation string
	Hash      string
	Path      string
	Metadata  string
}

// Journal appends to and reads a single append-only log file.
type Journal struct {
	path string
}

// New returns a Journal backed by the file at path. The file is
// created on first Append if it does not exist.
func New(path string) *Journal {
	return &Journal{path: path}
}

// Append writes one record: timestamp|operation|hex_hash|path|metadata.
// now is the caller-supplied Unix timestamp; the journal package never
// reads the clock itself so callers control time sourcing.
func (j *Journal) Append(now int64, operation, hexHash, path, metadata string) error {
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return storeerr.New(storeerr.KindIO, "journal.Append", err).WithPath(j.path)
	}
	defer f.Close()

	line := strings.Join([]string{
		strconv.FormatInt(now, 10),
		operation,
		hexHash,
		path,
		metadata,
	}, "|")
	if _, err := fmt.Fprintln(f, line); err != nil {
		return storeerr.New(storeerr.KindIO, "journal.Append", err).WithPath(j.path)
	}
	return nil
}

// parseLine decodes one journal line, returning ok=false for anything
// malformed. Readers MUST ignore malformed lines rather than fail.
func parseLine(line string) (Entry, bool) {
	fields := strings.SplitN(line, "|", 5)
	if len(fields) != 5 {
		return Entry{}, false
	}
	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Timestamp: ts,
		Operation: fields[1],
		Hash:      fields[2],
		Path:      fields[3],
		Metadata:  fields[4],
	}, true
}

// ReadAll reads every well-formed entry in the journal, in file order.
func (j *Journal) ReadAll() ([]Entry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, storeerr.New(storeerr.KindIO, "journal.ReadAll", err).WithPath(j.path)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if entry, ok := parseLine(line); ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, storeerr.New(storeerr.KindIO, "journal.ReadAll", err).WithPath(j.path)
	}
	return entries, nil
}

// ReadRecent returns the n most recent well-formed entries.
func (j *Journal) ReadRecent(n int) ([]Entry, error) {
	all, err := j.ReadAll()
	if err != nil {
		return nil, err
	}
	if n < 0 || n >= len(all) {
		return all, nil
	}
	return all[len(all)-n:], nil
}

// ReadOrphaned returns the subset of entries whose hash matches one of
// the given orphan hashes, for supplying human-readable context (the
// original path an orphaned tree was added from) to find_orphans.
func (j *Journal) ReadOrphaned(orphanHashes map[string]struct{}) ([]Entry, error) {
	all, err := j.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if _, ok := orphanHashes[e.Hash]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}
