package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/parleyhq/parley/pkg/api"
	"github.com/parleyhq/parley/pkg/config"
	"github.com/spf13/cobra"
)

func NewLoginCommand() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a Parley service and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load()
			if err != nil {
				return err
			}

			if username == "" {
				username = cfg.AdminUser()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password for %s@%s: ", username, cfg.RemoteURL())
			reader := bufio.NewReader(os.Stdin)
			password, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			password = strings.TrimRight(password, "\r\n")

			client := api.NewClient(cfg.RemoteURL(), "")
			token, err := client.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %s", api.ErrorMessage(err))
			}

			cfg.SetRemoteToken(token)
			path, err := config.Save(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in; session token saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "Username (default from config)")

	return cmd
}
