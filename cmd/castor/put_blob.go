package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fenilsonani/castor/internal/core/journal"
	"github.com/spf13/cobra"
)

func newPutBlobCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put-blob [file...]",
		Short: "Store file contents as blob objects",
		Long:  "Reads each file (or stdin, if none given) and stores its content as a Blob or ChunkList object, printing its hash.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 0 {
				h, err := s.PutBlob(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to store stdin: %w", err)
				}
				if err := s.Journal().Append(time.Now().Unix(), "put_blob", h.String(), journal.StdinPath, ""); err != nil {
					return fmt.Errorf("failed to append journal entry: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), h)
				return nil
			}

			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}
				h, err := s.PutBlob(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("failed to store %s: %w", path, err)
				}
				if err := s.Journal().Append(time.Now().Unix(), "put_blob", h.String(), path, ""); err != nil {
					return fmt.Errorf("failed to append journal entry: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}
	return cmd
}
