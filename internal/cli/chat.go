package cli

import (
	"fmt"

	"github.com/parleyhq/parley/internal/tui"
	"github.com/parleyhq/parley/pkg/api"
	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/event"
	"github.com/parleyhq/parley/pkg/workspace"
	"github.com/spf13/cobra"
)

func NewChatCommand() *cobra.Command {
	var remoteURL string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the terminal workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, _, err := config.Load()
			if err != nil {
				return err
			}
			if remoteURL == "" {
				remoteURL = cfg.RemoteURL()
			}
			token := cfg.RemoteToken()
			if token == "" {
				return fmt.Errorf("no session token; run `parley login` first")
			}

			events := event.NewEmitter()
			client := api.NewClient(remoteURL, token)
			engine := workspace.New(client, events, logger)
			client.OnUnauthorized(engine.SessionExpired)
			defer engine.Close()

			return tui.NewWorkspace(engine).Run()
		},
	}

	cmd.Flags().StringVar(&remoteURL, "remote", "", "Service URL (default from config)")

	return cmd
}
