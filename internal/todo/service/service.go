// Package service wraps the /todos and /users endpoints in typed calls.
package service

import (
	"context"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"todoweb/internal/gateway"
	"todoweb/internal/session"
	"todoweb/internal/todo/models"
	"todoweb/pkg/platform/httputil"
)

// API is the gateway surface the todo endpoints need.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Service struct {
	api API
}

func New(api API) *Service {
	return &Service{api: api}
}

// List fetches one page of tasks. The API scopes the result to the caller;
// an admin token sees every user's tasks.
func (s *Service) List(ctx context.Context, p models.ListParams) (*models.Page, error) {
	var resp gateway.PagedEnvelope[models.Todo]
	if err := s.api.Get(ctx, "/todos", p.Query(), &resp); err != nil {
		return nil, err
	}
	return &models.Page{
		Items:      resp.Content.Entries,
		TotalPages: resp.TotalPages,
		TotalItems: resp.TotalItems,
	}, nil
}

// Counts reports how many of the caller's tasks are done out of all of them,
// regardless of any filter. Each total is a one-row request; both run
// concurrently.
func (s *Service) Counts(ctx context.Context) (*models.Counts, error) {
	var c models.Counts
	g, ctx := errgroup.WithContext(ctx)
	total := func(status models.Status, dst *int) {
		g.Go(func() error {
			page, err := s.List(ctx, models.ListParams{Page: 1, Rows: 1, Status: status})
			if err != nil {
				return err
			}
			*dst = page.TotalItems
			return nil
		})
	}
	total(models.StatusDone, &c.Done)
	total(models.StatusAll, &c.Total)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create validates and submits a new task.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*models.Todo, error) {
	if err := httputil.PrepareRequest(req); err != nil {
		return nil, err
	}
	var resp gateway.Envelope[models.Todo]
	if err := s.api.Post(ctx, "/todos", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Content, nil
}

// Mark sets the completion state of a task.
func (s *Service) Mark(ctx context.Context, id string, done bool) error {
	return s.api.Put(ctx, "/todos/"+url.PathEscape(id)+"/mark", models.NewMarkRequest(done), nil)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, "/todos/"+url.PathEscape(id), nil)
}

// ListUsers fetches one page of the admin user listing.
func (s *Service) ListUsers(ctx context.Context, page, limit int) (*models.UserPage, error) {
	query := url.Values{
		"page":  {strconv.Itoa(max(page, 1))},
		"limit": {strconv.Itoa(max(limit, 1))},
	}
	var resp gateway.PagedEnvelope[session.User]
	if err := s.api.Get(ctx, "/users", query, &resp); err != nil {
		return nil, err
	}
	return &models.UserPage{
		Users:      resp.Content.Entries,
		TotalPages: resp.TotalPages,
		TotalItems: resp.TotalItems,
	}, nil
}
