/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/aryanprajapat98/REMS/config"
	"github.com/aryanprajapat98/REMS/internal/db"
	"github.com/aryanprajapat98/REMS/internal/logger"
	"github.com/aryanprajapat98/REMS/internal/notify"
	"github.com/aryanprajapat98/REMS/internal/services"
	"github.com/aryanprajapat98/REMS/internal/store"
	"github.com/spf13/cobra"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
	adminContact  string
)

// adminCmd groups administrator maintenance commands.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator account",
	Long: `Creates an administrator. Admin accounts cannot be registered over HTTP. Usage:

	rems admin create --name "Site Admin" --email admin@example.com --password secret
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log, sync := logger.New(cfg.Log)
		defer sync()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		auth := services.NewAuthService(
			store.NewUserRepository(dbConn),
			store.NewPasswordResetRepository(dbConn),
			notify.NewLogNotifier(log),
			log,
		)
		user, err := auth.CreateAdmin(cmd.Context(), services.SignupInput{
			Name:          adminName,
			Email:         adminEmail,
			Password:      adminPassword,
			ContactNumber: adminContact,
		})
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %d <%s>\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)

	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "Display name")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Login email")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Login password")
	adminCreateCmd.Flags().StringVar(&adminContact, "contact", "", "Optional contact number")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")
}
