package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"todoweb/internal/app"
	"todoweb/internal/todo/listquery"
)

func (c *CLI) usersCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List registered users (admin)",
		Args:  cobra.NoArgs,
		RunE: c.run(adminOnly, func(ctx context.Context, a *app.App, _ []string) error {
			page = max(page, 1)
			res, err := a.Todos.ListUsers(ctx, page, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
			for _, u := range res.Users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.DisplayName(), u.Email, u.Role)
			}
			_ = tw.Flush()
			fmt.Fprintf(c.out, "Page %d of %d (%d users)  %s\n",
				page, max(res.TotalPages, 1), res.TotalItems, windowLabel(page, listquery.Window(page, res.TotalPages)))
			return nil
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "users per page")
	return cmd
}
