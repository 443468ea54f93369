package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMaterializeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "materialize <hash> <dest>",
		Short: "Reconstruct a stored object on disk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHashArg(args[0])
			if err != nil {
				return err
			}
			dest := args[1]

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Materialize(h, dest); err != nil {
				return fmt.Errorf("failed to materialize %s at %s: %w", args[0], dest, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Materialized %s at %s\n", args[0], dest)
			return nil
		},
	}
	return cmd
}
