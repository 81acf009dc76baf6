package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/asystent-radnego/common-go/pkg/config"
	"github.com/asystent-radnego/common-go/pkg/interfaces"
	"github.com/asystent-radnego/common-go/pkg/logger"
	"github.com/asystent-radnego/common-go/pkg/providers/base"
	"github.com/asystent-radnego/common-go/pkg/providers/factory"
	"github.com/asystent-radnego/common-go/pkg/providers/registry"
	"github.com/asystent-radnego/common-go/pkg/supabase"
	"github.com/asystent-radnego/common-go/pkg/types"
)

const envPrefix = "LLM"

// exitError carries a process exit code other than 1
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

// rootOptions holds the persistent flags
type rootOptions struct {
	configPath    string
	providersPath string
	timeout       time.Duration
}

// newRootCmd builds the command tree. A fresh tree per invocation keeps flag
// state from leaking between runs.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "providerctl",
		Short: "Inspect and exercise configured LLM providers",
		Long: `providerctl runs connection tests, lists models and sends chat or
embedding requests through the provider adapters.

Providers come from a YAML providers file (--providers or providers_file in
the application config) or, for test, from a stored configuration id.
Application config is read from --config and LLM_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "application config file")
	root.PersistentFlags().StringVar(&opts.providersPath, "providers", "", "providers YAML file (overrides providers_file)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall command timeout")

	root.AddCommand(
		newProvidersCmd(),
		newTestCmd(opts),
		newModelsCmd(opts),
		newChatCmd(opts),
		newEmbedCmd(opts),
	)

	return root
}

// Execute runs the command line and returns the exit code
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		fmt.Fprintln(stderr, exit.msg)
		return exit.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	if perr, ok := base.AsProviderError(err); ok && perr.Raw != nil {
		if raw, jerr := json.Marshal(perr.Raw); jerr == nil {
			fmt.Fprintf(stderr, "Provider response: %s\n", raw)
		}
	}
	return 1
}

// env is the state shared by every command
type env struct {
	app       *config.AppConfig
	providers []types.ProviderConfig
	log       logger.Logger
	factory   factory.AdapterFactory
	timeout   time.Duration
	out       io.Writer
}

func (o *rootOptions) load(cmd *cobra.Command) (*env, error) {
	app, err := config.LoadApp(envPrefix, o.configPath)
	if err != nil {
		return nil, err
	}

	// Logs go to stderr so stdout stays machine readable
	var log logger.Logger
	if app.LogFormat == "json" {
		log = logger.NewJSON(app.LogLevel, cmd.ErrOrStderr())
	} else {
		log = logger.NewConsole(app.LogLevel, cmd.ErrOrStderr())
	}

	path := app.ProvidersFile
	if o.providersPath != "" {
		path = o.providersPath
	}

	var providers []types.ProviderConfig
	if path != "" {
		providers, err = config.LoadProviderFile(path)
		if err != nil {
			return nil, err
		}
	}

	return &env{
		app:       app,
		providers: providers,
		log:       log,
		factory:   factory.NewAdapterFactory(registry.NewDefaultRegistry(base.WithLogger(log))),
		timeout:   o.timeout,
		out:       cmd.OutOrStdout(),
	}, nil
}

func (e *env) context(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, e.timeout)
}

// adapter resolves a provider from the providers file, optionally with
// another chat model
func (e *env) adapter(name, model string) (interfaces.Adapter, error) {
	if name == "" {
		return nil, errors.New("--name is required")
	}
	cfg, ok := config.FindProvider(e.providers, name)
	if !ok {
		return nil, fmt.Errorf("provider %q not found in providers file", name)
	}
	if model != "" {
		var err error
		if cfg, err = factory.ConfigBuilderFrom(cfg).WithModel(model).Build(); err != nil {
			return nil, err
		}
	}
	return e.factory.GetAdapter(cfg)
}

func (e *env) store() (*supabase.Client, error) {
	return supabase.NewClient(supabase.ClientConfig{
		URL:      e.app.Supabase.URL,
		APIKey:   e.app.Supabase.ServiceKey,
		CacheTTL: e.app.Supabase.CacheTTL,
		Timeout:  e.app.Supabase.Timeout,
		Logger:   e.log,
	})
}

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
