package main

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/glowcart/internal/source"
)

func snapshotCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch the upstream payload and write it as a gzip snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			remote, err := opts.remote()
			if err != nil {
				return err
			}
			records, err := remote.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			if err := source.WriteSnapshot(out, records); err != nil {
				return errors.Wrap(err, "write snapshot")
			}
			opts.lg.Debug("Snapshot written", zap.String("path", out), zap.String("url", remote.URL()))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d products to %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "catalog.json.gz", "snapshot file to write")
	return cmd
}
