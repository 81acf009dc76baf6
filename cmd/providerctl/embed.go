package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newEmbedCmd(opts *rootOptions) *cobra.Command {
	var name, text string

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Compute an embedding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				return errors.New("--text is required")
			}

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

			vector, err := adapter.Embeddings(ctx, text)
			if err != nil {
				return err
			}
			return e.print(map[string]any{
				"dimensions": len(vector),
				"embedding":  vector,
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "provider id or name from the providers file")
	cmd.Flags().StringVar(&text, "text", "", "text to embed")

	return cmd
}
