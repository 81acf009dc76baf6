package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asystent-radnego/common-go/pkg/config"
	"github.com/asystent-radnego/common-go/pkg/health"
	"github.com/asystent-radnego/common-go/pkg/supabase"
	"github.com/asystent-radnego/common-go/pkg/types"
)

type testFlags struct {
	name     string
	configID string
	save     bool
}

func newTestCmd(opts *rootOptions) *cobra.Command {
	flags := &testFlags{}

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run provider connection tests",
		Long: `Run connection tests and print one JSON report per provider.

Without --name or --config-id every provider in the providers file is tested.
Exits with status 2 when any provider fails its test.

Examples:
  # Test every provider in a file
  providerctl test --providers providers.yaml

  # Test one stored configuration and record the outcome
  providerctl test --config-id 3f0c... --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := e.context(cmd.Context())
			defer cancel()

			var store *supabase.Client
			if flags.configID != "" || flags.save {
				if store, err = e.store(); err != nil {
					return err
				}
			}

			var configs []types.ProviderConfig
			switch {
			case flags.configID != "":
				cfg, err := store.GetProviderConfig(ctx, flags.configID)
				if err != nil {
					return err
				}
				configs = append(configs, *cfg)
			case flags.name != "":
				cfg, ok := config.FindProvider(e.providers, flags.name)
				if !ok {
					return fmt.Errorf("provider %q not found in providers file", flags.name)
				}
				configs = append(configs, cfg)
			default:
				configs = e.providers
			}

			if len(configs) == 0 {
				return errors.New("no providers to test")
			}

			checker := health.NewChecker(e.factory, health.WithLogger(e.log), health.WithParallelism(e.app.Worker.Parallelism))
			reports := checker.CheckAll(ctx, configs)

			if err := e.print(reports); err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if flags.save && r.ConfigID != "" {
					if err := store.SaveTestResult(ctx, r.Result.Record(r.ConfigID)); err != nil {
						return fmt.Errorf("failed to save test result for %s: %w", r.ConfigID, err)
					}
				}
				if !r.Healthy() {
					failed++
				}
			}

			if failed > 0 {
				return &exitError{code: 2, msg: fmt.Sprintf("%d of %d providers failed", failed, len(reports))}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "provider id or name from the providers file")
	cmd.Flags().StringVar(&flags.configID, "config-id", "", "stored configuration id to test")
	cmd.Flags().BoolVar(&flags.save, "save", false, "store the outcome in the test history")

	return cmd
}
