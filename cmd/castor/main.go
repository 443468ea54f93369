package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "castor",
		Short: "A local content-addressed file store",
		Long: `castor stores files and directory trees as immutable, content-addressed
objects, deduplicating and compressing as it goes, and tracks named
references as garbage-collection roots.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}

	rootCmd.PersistentFlags().StringVar(&storeRootFlag, "store", "", "store root directory (default: $CASTOR_STORE or ./castor-store)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newInitCommand(),
		newPutBlobCommand(),
		newGetBlobCommand(),
		newAddCommand(),
		newMaterializeCommand(),
		newRefCommand(),
		newGCCommand(),
		newOrphansCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
