package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGCCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Reclaim objects unreachable from any reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.GC(dryRun)
			if err != nil {
				return fmt.Errorf("gc failed: %w", err)
			}

			verb := "deleted"
			if dryRun {
				verb = "would delete"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d object(s), freeing %d byte(s)\n", verb, result.ObjectsDeleted, result.BytesFreed)
			for h, derr := range result.DeleteErrors {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to delete %s: %v\n", h, derr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute counters without deleting anything")
	return cmd
}
