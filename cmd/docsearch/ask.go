package main

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/MissionSquad/missionsquad-docs/internal/domain"
	"github.com/MissionSquad/missionsquad-docs/internal/stream"
	"github.com/MissionSquad/missionsquad-docs/internal/tui"
)

func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask the docs assistant through the streaming proxy",
		Long:  `Opens an interactive session against the proxy's /api/ask endpoint. With --plain and a question argument, streams the answer straight to stdout instead.`,
		RunE:  runAsk,
	}

	cmd.Flags().Bool("plain", false, "Print the streamed answer to stdout without the UI")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := stream.NewClient(cfg.Ask.ProxyURL)

	if plain, _ := cmd.Flags().GetBool("plain"); plain {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return errors.New("ask --plain needs a question argument")
		}
		return askPlain(cmd, client, cfg.Ask.Model, question)
	}

	m := tui.New(client, cfg.Ask.Model)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func askPlain(cmd *cobra.Command, client *stream.Client, model, question string) error {
	var streamErr error
	client.Ask(cmd.Context(), domain.AskOptions{
		Model: model,
		Messages: []domain.Message{
			{Role: "user", Content: question},
		},
	}, stream.Handlers{
		OnToken: func(text string) { fmt.Fprint(cmd.OutOrStdout(), text) },
		OnError: func(err error) { streamErr = err },
		OnDone:  func() { fmt.Fprintln(cmd.OutOrStdout()) },
	})
	return streamErr
}
