package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tasktrack-dev/tasktrack/internal/auth"
	"github.com/tasktrack-dev/tasktrack/internal/models"
)

// Admins cannot self-register over HTTP, so the first one is created here.
func createAdminCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an account with the Admin role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			gateway, err := auth.NewGateway(a.db, cfg.Auth)
			if err != nil {
				return err
			}

			account, err := gateway.Register(context.Background(), name, email, password, models.RoleAdmin)
			if err != nil {
				return err
			}

			fmt.Printf("Created admin %s (id %d)\n", account.Email, account.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password (at least 8 characters)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
