// Package cli is the terminal client. It shares the durable storage file with
// the web server: bolt is opened per operation, and the server rehydrates
// before each page request, so a sign-in, sign-out or selection made by
// either is seen by both.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"todoweb/internal/app"
	"todoweb/internal/platform/config"
	"todoweb/internal/session"
)

var (
	errNotSignedIn = errors.New("not signed in; run `todoctl login` first")
	errNotAdmin    = errors.New("this command needs an ADMIN account")
	errNoSelection = errors.New("no todos selected")
)

// CLI builds the command tree. Every command opens its own App and closes it
// before returning.
type CLI struct {
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	errOut  io.Writer
	appOpts []app.Option
}

func New(cfg *config.Config, logger *slog.Logger, out, errOut io.Writer, opts ...app.Option) *CLI {
	return &CLI{cfg: cfg, logger: logger, out: out, errOut: errOut, appOpts: opts}
}

// Root returns the todoctl command with every subcommand attached.
func (c *CLI) Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "todoctl",
		Short:         "Manage your todos from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.registerCmd(),
		c.listCmd(),
		c.addCmd(),
		c.markCmd("done", true),
		c.markCmd("undone", false),
		c.rmCmd(),
		c.selectCmd(),
		c.usersCmd(),
	)
	return root
}

// access is what a command requires of the session before it runs.
type access int

const (
	public access = iota
	signedIn
	adminOnly
)

type runFunc func(ctx context.Context, a *app.App, args []string) error

// run opens the App, checks access, runs fn and prints whatever the gateway
// queued for the user (e.g. a session expiry) to stderr.
func (c *CLI) run(need access, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := app.New(c.cfg, c.logger, c.appOpts...)
		if err != nil {
			return fmt.Errorf("open client: %w", err)
		}
		defer func() {
			if err := a.Close(); err != nil {
				c.logger.Warn("failed to close client", "error", err)
			}
		}()

		snap := a.Sessions.Snapshot()
		switch {
		case need >= signedIn && !snap.Authenticated():
			return errNotSignedIn
		case need == adminOnly && snap.Role() != session.RoleAdmin:
			return errNotAdmin
		}

		err = fn(cmd.Context(), a, args)
		for _, m := range a.Flash.Drain() {
			fmt.Fprintf(c.errOut, "%s: %s\n", m.Level, m.Text)
		}
		return err
	}
}
