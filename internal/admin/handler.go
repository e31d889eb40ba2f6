// Package admin serves the administrator pages: every user's tasks with
// search, filter and pagination, and the user listing.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"todoweb/internal/admin/types"
	"todoweb/internal/guard"
	"todoweb/internal/platform/middleware"
	"todoweb/internal/todo/listquery"
	"todoweb/internal/todo/models"
	"todoweb/internal/web"
)

// UsersPerPage is the page size of the user listing.
const UsersPerPage = 10

// Lists is the list query coordinator behind the admin task table.
type Lists interface {
	Key() listquery.Key
	SetSearch(text string)
	SetStatus(status models.Status)
	SetPage(page int)
	Search(ctx context.Context, text string) error
	Current(ctx context.Context) (*listquery.Result, error)
}

// Handler handles the admin pages
type Handler struct {
	lists   Lists
	service *Service
	render  *web.Renderer
	flash   *web.Flash
	logger  *slog.Logger
}

// New creates a new admin handler
func New(lists Lists, service *Service, render *web.Renderer, flash *web.Flash, logger *slog.Logger) *Handler {
	return &Handler{
		lists:   lists,
		service: service,
		render:  render,
		flash:   flash,
		logger:  logger,
	}
}

// Register registers admin routes with the router
func (h *Handler) Register(r chi.Router) {
	r.Get(guard.AdminPath, h.HandleTodos)
	r.Get(guard.AdminPath+"/search", h.HandleSearch)
	r.Get(guard.AdminPath+"/users", h.HandleUsers)
}

// HandleTodos renders the full task page. Search and status in the query
// reset the page when they change; an explicit page is applied last.
func (h *Handler) HandleTodos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	if q.Has("q") {
		h.lists.SetSearch(q.Get("q"))
	}
	if q.Has("status") {
		h.lists.SetStatus(models.ParseStatus(q.Get("status")))
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		h.lists.SetPage(page)
	}

	table, key, err := h.table(ctx)
	if err != nil {
		h.fail(ctx, err, "Failed to load todos")
	}
	view := types.TodosView{TodoTable: table, Search: key.Search, Status: key.Status}

	if err == nil {
		stats, err := h.service.GetStats(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "failed to get stats",
				"error", err,
				"request_id", middleware.GetRequestID(ctx),
			)
		}
		view.Stats = stats
	}

	h.render.Page(w, r, http.StatusOK, web.PageAdmin, "All tasks", view)
}

// HandleSearch is called on every keystroke. Only the request that survives
// the debounce fetches and answers with the table fragment; superseded
// requests answer 204 and the page keeps its current table.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.lists.Search(ctx, r.URL.Query().Get("q"))
	switch {
	case errors.Is(err, listquery.ErrSuperseded):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		// The client went away.
		return
	}

	table, _, err := h.table(ctx)
	if err != nil {
		h.fail(ctx, err, "Failed to load todos")
		if _, forced := web.ForcedNavigation(ctx); !forced {
			w.WriteHeader(http.StatusBadGateway)
		}
		return
	}
	h.render.Fragment(w, http.StatusOK, web.PageAdmin, "todo_table", table)
}

func (h *Handler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	view := types.UsersView{}
	users, err := h.service.GetUsers(ctx, page, UsersPerPage)
	if err != nil {
		h.fail(ctx, err, "Failed to load users")
	} else {
		page = min(page, max(users.TotalPages, 1))
		view.Users = users.Users
		view.Pager = web.NewPager(guard.AdminPath+"/users", nil, page, users.TotalPages, users.TotalItems,
			listquery.Window(page, users.TotalPages))
	}
	h.render.Page(w, r, http.StatusOK, web.PageUsers, "Users", view)
}

// table fetches the current key and shapes it for the "todo_table" block.
// The key is returned even on failure so the filters still render.
func (h *Handler) table(ctx context.Context) (types.TodoTable, listquery.Key, error) {
	res, err := h.lists.Current(ctx)
	if err != nil {
		return types.TodoTable{}, h.lists.Key(), err
	}
	query := url.Values{"status": {string(res.Key.Status)}}
	if res.Key.Search != "" {
		query.Set("q", res.Key.Search)
	}
	return types.TodoTable{
		Items: res.Page.Items,
		Pager: web.NewPager(guard.AdminPath, query, res.Key.Page, res.Page.TotalPages, res.Page.TotalItems, res.Window),
	}, res.Key, nil
}

func (h *Handler) fail(ctx context.Context, err error, fallback string) {
	h.logger.InfoContext(ctx, "admin request failed",
		"error", err,
		"request_id", middleware.GetRequestID(ctx),
	)
	h.flash.Failure(err, fallback)
}
