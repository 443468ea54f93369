package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Recursively store a file or directory tree",
		Long:  "Walks path, storing regular files as Blob objects and directories as Tree objects, and prints the hash of the root.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			h, err := s.AddPath(path)
			if err != nil {
				return fmt.Errorf("failed to add %s: %w", path, err)
			}
			if err := s.Journal().Append(time.Now().Unix(), "add_path", h.String(), path, ""); err != nil {
				return fmt.Errorf("failed to append journal entry: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	return cmd
}
