package main

import (
	"fmt"

	"github.com/fenilsonani/castor/internal/core/hash"
	"github.com/fenilsonani/castor/pkg/castor"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new store",
		Long:  "Create an empty castor store at the resolved store root.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := resolveStoreRoot()
			s, err := castor.Init(root, hash.AlgorithmBlake3, castor.WithLogger(newLogger()))
			if err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			defer s.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty castor store in %s\n", s.Root())
			return nil
		},
	}
	return cmd
}
