package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/auri-app/auri/internal/server"
)

// tokenCommand creates the token command, which signs API bearer tokens
// with the configured secret.
func (c *CLI) tokenCommand() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token [user]",
		Short: "Issue a bearer token for the HTTP API",
		Long: `Issue a bearer token for the HTTP API.

The token is signed with server.jwt_secret (or AURI_JWT_SECRET) and names
the user whose journal the requests act on. The configured user is used
when none is given. Only the token is written to stdout.`,
		Example: `  curl -H "Authorization: Bearer $(auri token)" localhost:8080/v1/emotions`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := c.Config.User
			if len(args) == 1 {
				user = args[0]
			}

			auth, err := server.NewAuthenticator(c.Config.Server.JWTSecret)
			if err != nil {
				return err
			}
			token, err := auth.Issue(user, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			c.Logger.Debug("issued token", "user", user, "expires", time.Now().Add(ttl).Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
