package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"todoweb/internal/app"
	"todoweb/internal/auth/models"
)

func (c *CLI) loginCmd() *cobra.Command {
	var req models.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: c.run(public, func(ctx context.Context, a *app.App, _ []string) error {
			res, err := a.Auth.Login(ctx, &req)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(c.out, "Signed in as %s (%s)\n", res.User.DisplayName(), res.User.Role)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().BoolVar(&req.RememberMe, "remember", true, "keep the session for the token lifetime")
	return cmd
}

func (c *CLI) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: c.run(public, func(_ context.Context, a *app.App, _ []string) error {
			a.Auth.Logout()
			fmt.Fprintln(c.out, "Signed out")
			return nil
		}),
	}
}

func (c *CLI) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: c.run(signedIn, func(_ context.Context, a *app.App, _ []string) error {
			user := a.Sessions.Snapshot().User
			fmt.Fprintf(c.out, "%s <%s> %s\n", user.DisplayName(), user.Email, user.Role)
			return nil
		}),
	}
}

func (c *CLI) registerCmd() *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: c.run(public, func(ctx context.Context, a *app.App, _ []string) error {
			req.ConfirmPassword = req.Password
			user, err := a.Auth.Register(ctx, &req)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(c.out, "Registered %s. Sign in with `todoctl login`.\n", user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	return cmd
}
