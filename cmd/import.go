package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewImportCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the collection with previously exported data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := zap.L()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			s, closeStore, err := openStore(cmd.Context(), v, l)
			if err != nil {
				return err
			}
			defer closeStore()

			if ok := s.Import(cmd.Context(), string(data)); !ok {
				// the store already logged what is wrong with the data
				return errors.New("import rejected")
			}

			l.Info("imported collection",
				zap.String("file", args[0]),
				zap.Int("numberOfSnippets", s.Len()),
			)
			return nil
		},
	}

	flags := cmd.Flags()
	addStorageFlags(flags, v)

	return cmd
}
