package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetBlobCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-blob <hash>",
		Short: "Print the stored content named by a hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHashArg(args[0])
			if err != nil {
				return err
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.GetBlobTo(cmd.OutOrStdout(), h); err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return nil
		},
	}
	return cmd
}
