package main

import (
	"github.com/spf13/cobra"
)

func newModelsCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models advertised by a provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			adapter, err := e.adapter(name, "")
			if err != nil {
				return err
			}

			ctx, cancel := e.context(cmd.Context())
			defer cancel()

			list, err := adapter.ListModels(ctx)
			if err != nil {
				return err
			}
			return e.print(list)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "provider id or name from the providers file")

	return cmd
}
