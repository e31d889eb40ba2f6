package admin

import (
	"context"

	"golang.org/x/sync/errgroup"

	"todoweb/internal/admin/types"
	"todoweb/internal/todo/models"
)

// TodoStore is the task listing the stats are computed from.
type TodoStore interface {
	List(ctx context.Context, p models.ListParams) (*models.Page, error)
}

// UserStore is the admin user listing.
type UserStore interface {
	ListUsers(ctx context.Context, page, limit int) (*models.UserPage, error)
}

// Service provides admin-level read operations.
type Service struct {
	todos TodoStore
	users UserStore
}

// NewService creates a new admin service
func NewService(todos TodoStore, users UserStore) *Service {
	return &Service{todos: todos, users: users}
}

// GetStats counts tasks by status and users. The API reports totals with
// every page, so each count is a one-row request; they run concurrently.
func (s *Service) GetStats(ctx context.Context) (*types.Stats, error) {
	var stats types.Stats
	g, ctx := errgroup.WithContext(ctx)

	count := func(status models.Status, dst *int) {
		g.Go(func() error {
			page, err := s.todos.List(ctx, models.ListParams{Page: 1, Rows: 1, Status: status})
			if err != nil {
				return err
			}
			*dst = page.TotalItems
			return nil
		})
	}
	count(models.StatusDone, &stats.Done)
	count(models.StatusUndone, &stats.Open)
	g.Go(func() error {
		page, err := s.users.ListUsers(ctx, 1, 1)
		if err != nil {
			return err
		}
		stats.Users = page.TotalItems
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.Total = stats.Done + stats.Open
	return &stats, nil
}

// GetUsers returns one page of users.
func (s *Service) GetUsers(ctx context.Context, page, limit int) (*models.UserPage, error) {
	return s.users.ListUsers(ctx, page, limit)
}
