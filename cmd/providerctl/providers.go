package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asystent-radnego/common-go/pkg/providers/registry"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported provider types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range registry.NewDefaultRegistry().SupportedProviders() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
