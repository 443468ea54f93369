package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOrphansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "List tree roots unreachable from any reference or parent tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			orphans, err := s.FindOrphans()
			if err != nil {
				return fmt.Errorf("failed to find orphans: %w", err)
			}

			orphanHashes := make(map[string]struct{}, len(orphans))
			for _, o := range orphans {
				orphanHashes[o.Hash.String()] = struct{}{}
			}
			context, err := s.Journal().ReadOrphaned(orphanHashes)
			if err != nil {
				return fmt.Errorf("failed to read journal: %w", err)
			}
			paths := make(map[string]string, len(context))
			for _, entry := range context {
				paths[entry.Hash] = entry.Path
			}

			for _, o := range orphans {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tentries=%d\tapprox_size=%d\toriginal_path=%s\n",
					o.Hash, o.EntryCount, o.ApproxSize, paths[o.Hash.String()])
			}
			return nil
		},
	}
	return cmd
}
