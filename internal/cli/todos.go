package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"todoweb/internal/app"
	"todoweb/internal/todo/listquery"
	"todoweb/internal/todo/models"
)

func (c *CLI) listCmd() *cobra.Command {
	var (
		page   int
		rows   int
		search string
		status string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your todos, newest first",
		Args:  cobra.NoArgs,
		RunE: c.run(signedIn, func(ctx context.Context, a *app.App, _ []string) error {
			lists := a.Dashboard
			// Filters reset the page, so the page goes last.
			if rows > 0 {
				lists.SetRows(rows)
			}
			lists.SetStatus(models.ParseStatus(status))
			lists.SetSearch(search)
			lists.SetPage(page)

			res, err := lists.Current(ctx)
			if err != nil {
				return err
			}
			c.printTodos(res, lists.Selection())
			return nil
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&rows, "rows", 0, "todos per page (default from config)")
	cmd.Flags().StringVar(&search, "search", "", "only todos whose text contains this")
	cmd.Flags().StringVar(&status, "status", string(models.StatusAll), "all, done or undone")
	return cmd
}

func (c *CLI) printTodos(res *listquery.Result, selection *listquery.Selection) {
	if len(res.Page.Items) == 0 {
		fmt.Fprintln(c.out, "No todos found")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tITEM\tCREATED")
	for _, t := range res.Page.Items {
		done := " "
		if t.IsDone {
			done = "x"
		}
		id := t.ID
		if selection != nil && selection.Contains(t.ID) {
			id += "*"
		}
		fmt.Fprintf(tw, "%s\t[%s]\t%s\t%s\n", id, done, t.Item, t.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
	fmt.Fprintf(c.out, "Page %d of %d (%d todos)  %s\n",
		res.Key.Page, max(res.Page.TotalPages, 1), res.Page.TotalItems, windowLabel(res.Key.Page, res.Window))
}

// windowLabel renders the pagination window with the current page bracketed.
func windowLabel(current int, window []int) string {
	parts := make([]string, len(window))
	for i, p := range window {
		if p == current {
			parts[i] = fmt.Sprintf("[%d]", p)
		} else {
			parts[i] = fmt.Sprint(p)
		}
	}
	return strings.Join(parts, " ")
}

func (c *CLI) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <item>",
		Short: "Create a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(signedIn, func(ctx context.Context, a *app.App, args []string) error {
			todo, err := a.Dashboard.Create(ctx, &models.CreateRequest{Item: strings.Join(args, " ")})
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(c.out, "Todo created successfully (%s)\n", todo.ID)
			return nil
		}),
	}
}

func (c *CLI) markCmd(name string, done bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: "Mark a todo as " + name,
		Args:  cobra.ExactArgs(1),
		RunE: c.run(signedIn, func(ctx context.Context, a *app.App, args []string) error {
			if err := a.Dashboard.Toggle(ctx, args[0], done); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Status updated successfully")
			return nil
		}),
	}
}

func (c *CLI) rmCmd() *cobra.Command {
	var selected bool
	cmd := &cobra.Command{
		Use:   "rm [id...]",
		Short: "Delete todos; several ids or --selected delete in bulk",
		RunE: c.run(signedIn, func(ctx context.Context, a *app.App, args []string) error {
			ids := args
			if selected {
				ids = slices.Concat(ids, a.Dashboard.Selection().IDs())
				slices.Sort(ids)
				ids = slices.Compact(ids)
			}
			switch len(ids) {
			case 0:
				return errNoSelection
			case 1:
				if err := a.Dashboard.Delete(ctx, ids[0]); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "Todo deleted successfully")
				return nil
			}

			res, err := a.Dashboard.BulkDelete(ctx, ids)
			if len(res.Deleted) > 0 {
				fmt.Fprintf(c.out, "%d todos deleted successfully\n", len(res.Deleted))
			}
			for _, id := range ids {
				if failure, ok := res.Failed[id]; ok {
					fmt.Fprintf(c.errOut, "%s: %v\n", id, failure)
				}
			}
			return err
		}),
	}
	cmd.Flags().BoolVar(&selected, "selected", false, "also delete every selected todo")
	return cmd
}

func (c *CLI) selectCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "select [id...]",
		Short: "Toggle todos in the bulk selection",
		RunE: c.run(signedIn, func(_ context.Context, a *app.App, args []string) error {
			sel := a.Dashboard.Selection()
			if reset {
				sel.Clear()
			}
			for _, id := range args {
				sel.Toggle(id)
			}
			fmt.Fprintf(c.out, "%d todos selected\n", sel.Len())
			return nil
		}),
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "empty the selection first")
	return cmd
}
