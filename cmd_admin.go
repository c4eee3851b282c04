package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shopguide/internal/auth"
	"shopguide/internal/logging"
)

func newAdminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	var username, email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create the first admin directly in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logging.Install(logger)()
			defer logger.Sync()

			st, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			user, err := auth.CreateFirstAdmin(cmd.Context(), st, username, email, password)
			if err != nil {
				return err
			}
			logger.Info("admin created", zap.String("id", user.ID.Hex()), zap.String("username", user.Username))
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", user.Username, user.ID.Hex())
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "admin", "admin username")
	create.Flags().StringVar(&email, "email", "", "admin email")
	create.Flags().StringVar(&password, "password", "", "admin password")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	admin.AddCommand(create)
	return admin
}
