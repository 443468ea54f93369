package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ref",
		Short: "Manage named references",
	}
	cmd.AddCommand(
		newRefAddCommand(),
		newRefGetCommand(),
		newRefListCommand(),
		newRefRemoveCommand(),
	)
	return cmd
}

func newRefAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <hash>",
		Short: "Point a reference at a hash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHashArg(args[1])
			if err != nil {
				return err
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Refs().Add(args[0], h); err != nil {
				return fmt.Errorf("failed to add ref %s: %w", args[0], err)
			}
			return nil
		},
	}
}

func newRefGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print the hash a reference currently points to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			h, err := s.Refs().Get(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve ref %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func newRefListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every reference, sorted by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			refs, err := s.Refs().List()
			if err != nil {
				return fmt.Errorf("failed to list refs: %w", err)
			}
			for _, ref := range refs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ref.Hash, ref.Name)
			}
			return nil
		},
	}
}

func newRefRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Refs().Remove(args[0]); err != nil {
				return fmt.Errorf("failed to remove ref %s: %w", args[0], err)
			}
			return nil
		},
	}
}
