/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"time"

	"github.com/sandeepshegane1/localtask-sub000/internal/auth"
	"github.com/sandeepshegane1/localtask-sub000/internal/config"
	"github.com/spf13/cobra"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development access token",
	Long: `Mint a signed access token for local development and testing.
The token is signed with the configured auth secret and carries the
given subject and role, so it is accepted by a server running with
the same configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		subject, _ := cmd.Flags().GetString("subject")
		role, _ := cmd.Flags().GetString("role")
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if subject == "" {
			return fmt.Errorf("--subject is required")
		}
		if role != "client" && role != "provider" {
			return fmt.Errorf("--role must be client or provider")
		}

		validator := auth.NewTokenValidator(cfg.Auth.Secret, cfg.Auth.Issuer)
		token, err := validator.Sign(subject, role, name, ttl)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}

		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("config", "", "Config file path")
	tokenCmd.Flags().String("subject", "", "Subject (user ID) for the token")
	tokenCmd.Flags().String("role", "client", "Role: client or provider")
	tokenCmd.Flags().String("name", "", "Display name")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
