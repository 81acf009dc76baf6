package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asystent-radnego/common-go/pkg/models"
	"github.com/asystent-radnego/common-go/pkg/types"
)

type chatFlags struct {
	name        string
	message     string
	system      string
	model       string
	maxTokens   int
	temperature float64
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	flags := &chatFlags{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send one chat message",
		Long: `Send a single user message, optionally preceded by a system prompt,
and print the normalized response.

Examples:
  providerctl chat --providers providers.yaml --name openai -m "ping"
  providerctl chat --name claude --system "Be brief" -m "Summarize" --max-tokens 64`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(flags.message) == "" {
				return errors.New("--message is required")
			}

			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			adapter, err := e.adapter(flags.name, flags.model)
			if err != nil {
				return err
			}

			var messages []types.ChatMessage
			if flags.system != "" {
				messages = append(messages, types.ChatMessage{Role: types.RoleSystem, Content: flags.system})
			}
			messages = append(messages, types.ChatMessage{Role: types.RoleUser, Content: flags.message})

			chatOpts := &models.ChatOptions{}
			if flags.maxTokens > 0 {
				chatOpts.MaxTokens = models.Int(flags.maxTokens)
			}
			if flags.temperature >= 0 {
				chatOpts.Temperature = models.Float(flags.temperature)
			}

			ctx, cancel := e.context(cmd.Context())
			defer cancel()

			resp, err := adapter.Chat(ctx, messages, chatOpts)
			if err != nil {
				return err
			}
			return e.print(resp)
		},
	}

	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "provider id or name from the providers file")
	cmd.Flags().StringVarP(&flags.message, "message", "m", "", "user message")
	cmd.Flags().StringVar(&flags.system, "system", "", "optional system prompt")
	cmd.Flags().StringVar(&flags.model, "model", "", "chat model override")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 0, "maximum completion tokens")
	cmd.Flags().Float64Var(&flags.temperature, "temperature", -1, "sampling temperature; negative keeps the provider default")

	return cmd
}
