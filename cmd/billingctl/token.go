package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dealbridge-billing/internal/db"
	"dealbridge-billing/internal/pkg/jwt"
	"dealbridge-billing/internal/pkg/session"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue or revoke access tokens for local testing",
	}
	cmd.AddCommand(newTokenIssueCmd(), newTokenRevokeCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var sub jwt.Subject
	var roles string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign an access token with JWT_PRIVATE_KEY_PATH",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := jwt.LoadGenerator(cfg.JWT)
			if err != nil {
				return err
			}
			if roles != "" {
				sub.Roles = strings.Split(roles, ",")
			}

			token, jti, err := gen.GenerateAccessToken(sub)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "jti: %s\n", jti)
			fmt.Fprintln(out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub.UserID, "user", "", "user id")
	cmd.Flags().StringVar(&sub.UserType, "type", "Investor", "Investor, Startup or Advisor")
	cmd.Flags().StringVar(&sub.Country, "country", "", "country")
	cmd.Flags().StringVar(&sub.Email, "email", "", "email")
	cmd.Flags().StringVar(&roles, "roles", "", "comma separated roles")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newTokenRevokeCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "revoke [jti]",
		Short: "Blacklist a token id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := db.NewRedisClient(cmd.Context(), db.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
			if err != nil {
				return err
			}
			defer client.Close()

			if err := session.NewBlacklist(client).BlacklistToken(cmd.Context(), args[0], ttl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token revoked: %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "how long to keep the revocation")
	return cmd
}
