package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/server"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	var addr string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Parley service",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, _, err := config.Load()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = fmt.Sprintf("%s:%d", cfg.Host(), cfg.Port())
			}
			if dbPath == "" {
				dbPath = cfg.DBPath()
			}
			password := cfg.AdminPassword()
			if password == "" {
				return fmt.Errorf("server.admin_password is not set; add it to the config file before serving")
			}

			srv, err := server.New(server.Options{
				DBPath:        dbPath,
				AdminUser:     cfg.AdminUser(),
				AdminPassword: password,
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to database file (default: ~/.parley/parley.db)")

	return cmd
}
