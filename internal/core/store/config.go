package store

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fenilsonani/castor/internal/core/hash"
	"github.com/fenilsonani/castor/internal/core/storeerr"
)

// FormatVersion is the store's on-disk layout version, written to the
// config file's version= key. It is independent of object.Version,
// the per-object header format version.
const FormatVersion = 1

// Config is the parsed content of $STORE_ROOT/config (spec.md §6): a
// line-oriented key=value file with exactly two recognized keys.
// Unknown keys are accepted and ignored for forward compatibility.
type Config struct {
	Version int
	Algo    hash.Algorithm
}

func writeConfig(path string, cfg Config) error {
	var buf strings.Builder
	fmt.Fprintf(&buf, "version=%d\n", cfg.Version)
	fmt.Fprintf(&buf, "algo=%s\n", cfg.Algo.Name())
	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return storeerr.New(storeerr.KindIO, "writeConfig", err).WithPath(path)
	}
	return nil
}

func readConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, storeerr.New(storeerr.KindInvalidStore, "readConfig", fmt.Errorf("missing config file")).WithPath(path)
		}
		return Config{}, storeerr.New(storeerr.KindIO, "readConfig", err).WithPath(path)
	}
	defer f.Close()

	var cfg Config
	var haveVersion, haveAlgo bool

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "version":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return Config{}, storeerr.New(storeerr.KindInvalidStore, "readConfig", fmt.Errorf("bad version %q", value)).WithPath(path)
			}
			cfg.Version = n
			haveVersion = true
		case "algo":
			algo, err := hash.ParseAlgorithm(strings.TrimSpace(value))
			if err != nil {
				return Config{}, storeerr.New(storeerr.KindInvalidStore, "readConfig", err).WithPath(path)
			}
			cfg.Algo = algo
			haveAlgo = true
		default:
			// Forward-compatible: unknown keys are ignored.
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, storeerr.New(storeerr.KindIO, "readConfig", err).WithPath(path)
	}
	if !haveVersion || !haveAlgo {
		return Config{}, storeerr.New(storeerr.KindInvalidStore, "readConfig", fmt.Errorf("missing version or algo key")).WithPath(path)
	}
	return cfg, nil
}
