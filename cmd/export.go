package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewExportCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collection to a file in its canonical form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := zap.L()

			s, closeStore, err := openStore(cmd.Context(), v, l)
			if err != nil {
				return err
			}
			defer closeStore()

			data := s.Export()

			output := outputFlag(v)
			if output == "" || output == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), data)
				return err
			}
			if err := os.WriteFile(output, []byte(data), 0600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			l.Info("exported collection",
				zap.String("output", output),
				zap.Int("numberOfSnippets", s.Len()),
			)
			return nil
		},
	}

	flags := cmd.Flags()
	addOutputFlag(flags, v)
	addStorageFlags(flags, v)

	return cmd
}
