package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/exon-report/internal/auth"
	"github.com/j-veylop/exon-report/internal/logger"
	"github.com/j-veylop/exon-report/internal/models"
)

func newLoginCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain a portal token and show who it belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.manager.Authenticate(cmd.Context(), force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if user, err := a.manager.CurrentUser(cmd.Context()); err != nil {
				logger.Warn("failed to load current user", "error", err)
			} else {
				printUser(out, user)
			}

			info, err := auth.DescribeToken(token)
			if err != nil {
				logger.Debug("access token is not a readable JWT", "error", err)
				fmt.Fprintln(out, "Logged in.")
				return nil
			}

			name := info.Username
			if name == "" {
				name = info.Subject
			}
			fmt.Fprintf(out, "Logged in as %s\n", name)
			if !info.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "Token expires %s (in %s)\n",
					info.ExpiresAt.Local().Format("2006-01-02 15:04:05"),
					time.Until(info.ExpiresAt).Round(time.Second))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Ignore the stored token and log in again")

	return cmd
}

func printUser(w io.Writer, u *models.User) {
	name := strings.TrimSpace(u.LastName + " " + u.FirstName)
	if name == "" {
		name = u.Username
	}
	fmt.Fprintf(w, "Portal user: %s", name)
	if org, ok := u.CurrentOrganisationID(); ok {
		fmt.Fprintf(w, " (organization %s)", org)
	}
	fmt.Fprintln(w)
}
