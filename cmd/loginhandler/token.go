package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"git.sr.ht/~jakintosh/loginhandler/internal/settings"
	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue and inspect session tokens offline",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <uid>",
	Short: "Issue a session token for a user id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.NewStore(cfg.SettingsPath)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		issuer, _, err := tokens.InitServer(store.SigningConfig())
		if err != nil {
			return err
		}
		token, err := issuer.IssueSessionToken(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token.Encoded())
		return nil
	},
}

type tokenClaims struct {
	UID        string    `json:"uid"`
	Subject    string    `json:"sub"`
	Issuer     string    `json:"iss"`
	Audience   string    `json:"aud"`
	IssuedAt   time.Time `json:"iat"`
	Expiration time.Time `json:"exp"`
}

var tokenVerifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Verify a session token and print its claims",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.NewStore(cfg.SettingsPath)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		_, validator, err := tokens.InitServer(store.SigningConfig())
		if err != nil {
			return err
		}

		token := &tokens.SessionToken{}
		if err := token.Decode(args[0], validator); err != nil {
			return fmt.Errorf("token rejected: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tokenClaims{
			UID:        token.UID(),
			Subject:    token.Subject(),
			Issuer:     token.Issuer(),
			Audience:   token.Audience(),
			IssuedAt:   token.IssuedAt(),
			Expiration: token.Expiration(),
		})
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenCmd.AddCommand(tokenVerifyCmd)
}
