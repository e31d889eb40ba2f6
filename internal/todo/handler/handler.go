// Package handler serves the signed-in user's task dashboard.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"todoweb/internal/guard"
	"todoweb/internal/platform/middleware"
	"todoweb/internal/todo/listquery"
	"todoweb/internal/todo/models"
	"todoweb/internal/web"
	dErrors "todoweb/pkg/domain-errors"
)

// Lists is the list query coordinator behind the dashboard.
type Lists interface {
	Key() listquery.Key
	SetStatus(status models.Status)
	SetPage(page int)
	Current(ctx context.Context) (*listquery.Result, error)
	Create(ctx context.Context, req *models.CreateRequest) (*models.Todo, error)
	Toggle(ctx context.Context, id string, done bool) error
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (listquery.BulkResult, error)
	Selection() *listquery.Selection
}

// Counter summarises the user's whole task list for the dashboard header.
type Counter interface {
	Counts(ctx context.Context) (*models.Counts, error)
}

type Handler struct {
	lists  Lists
	counts Counter
	render *web.Renderer
	flash  *web.Flash
	logger *slog.Logger
}

// New builds the dashboard handler. counts may be nil, which hides the
// completion summary.
func New(lists Lists, counts Counter, render *web.Renderer, flash *web.Flash, logger *slog.Logger) *Handler {
	return &Handler{lists: lists, counts: counts, render: render, flash: flash, logger: logger}
}

// Register registers the dashboard routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get(guard.DashboardPath, h.HandleDashboard)
	r.Post(guard.DashboardPath+"/todos", h.HandleCreate)
	r.Post(guard.DashboardPath+"/todos/{id}/toggle", h.HandleToggle)
	r.Post(guard.DashboardPath+"/todos/{id}/delete", h.HandleDelete)
	r.Post(guard.DashboardPath+"/todos/{id}/select", h.HandleSelect)
	r.Post(guard.DashboardPath+"/bulk-delete", h.HandleBulkDelete)
}

type dashboardData struct {
	Item          string
	Errors        map[string]string
	Status        models.Status
	SelectedCount int
	Selected      map[string]bool
	Items         []models.Todo
	Pager         web.Pager
	Counts        *models.Counts
}

// HandleDashboard shows one page of the user's tasks. A status change in the
// query resets the page; an explicit page is applied after it.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("status") {
		h.lists.SetStatus(models.ParseStatus(q.Get("status")))
	}
	if page, ok := pageParam(q.Get("page")); ok {
		h.lists.SetPage(page)
	}
	h.renderDashboard(w, r, http.StatusOK, dashboardData{})
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, data dashboardData) {
	ctx := r.Context()
	res, err := h.lists.Current(ctx)
	if err != nil {
		h.report(ctx, err, "Failed to load todos")
		data.Status = h.lists.Key().Status
	} else {
		data.Status = res.Key.Status
		data.Items = res.Page.Items
		query := url.Values{"status": {string(res.Key.Status)}}
		data.Pager = web.NewPager(guard.DashboardPath, query, res.Key.Page, res.Page.TotalPages, res.Page.TotalItems, res.Window)
		data.Counts = h.loadCounts(ctx)
	}
	if sel := h.lists.Selection(); sel != nil {
		data.Selected = sel.Set()
		data.SelectedCount = len(data.Selected)
	}
	h.render.Page(w, r, status, web.PageDashboard, "Dashboard", data)
}

// loadCounts returns nil when the summary is unavailable.
func (h *Handler) loadCounts(ctx context.Context) *models.Counts {
	if h.counts == nil {
		return nil
	}
	c, err := h.counts.Counts(ctx)
	if err != nil {
		h.logger.DebugContext(ctx, "task counts unavailable",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		return nil
	}
	return c
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	req := &models.CreateRequest{Item: r.PostForm.Get("item")}

	if _, err := h.lists.Create(ctx, req); err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			h.renderDashboard(w, r, http.StatusUnprocessableEntity, dashboardData{
				Item:   req.Item,
				Errors: dErrors.FieldErrors(err),
			})
			return
		}
		h.report(ctx, err, "Failed to create todo")
		web.Redirect(w, r, guard.DashboardPath)
		return
	}
	h.flash.Success("Todo created successfully")
	web.Redirect(w, r, guard.DashboardPath)
}

func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	done := r.PostForm.Get("done") == "true"
	if err := h.lists.Toggle(ctx, chi.URLParam(r, "id"), done); err != nil {
		h.report(ctx, err, "Failed to update status")
	} else {
		h.flash.Success("Status updated successfully")
	}
	web.Redirect(w, r, guard.DashboardPath)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.lists.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.report(ctx, err, "Failed to delete todo")
	} else {
		h.flash.Success("Todo deleted successfully")
	}
	web.Redirect(w, r, guard.DashboardPath)
}

// HandleSelect flips a task in the persisted bulk selection.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if sel := h.lists.Selection(); sel != nil {
		sel.Toggle(chi.URLParam(r, "id"))
	}
	web.Redirect(w, r, guard.DashboardPath)
}

// HandleBulkDelete deletes every selected task. Tasks that could not be
// deleted stay selected.
func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sel := h.lists.Selection()
	if sel == nil || sel.Len() == 0 {
		h.flash.Info("No todos selected")
		web.Redirect(w, r, guard.DashboardPath)
		return
	}

	res, err := h.lists.BulkDelete(ctx, sel.IDs())
	if n := len(res.Deleted); n > 0 {
		h.flash.Success(fmt.Sprintf("%d todos deleted successfully", n))
	}
	if err != nil {
		h.report(ctx, err, "Failed to delete todos")
	}
	web.Redirect(w, r, guard.DashboardPath)
}

func (h *Handler) report(ctx context.Context, err error, fallback string) {
	h.logger.InfoContext(ctx, "todo request failed",
		"code", string(dErrors.CodeOf(err)),
		"error", err,
		"request_id", middleware.GetRequestID(ctx),
	)
	h.flash.Failure(err, fallback)
}

func pageParam(v string) (int, bool) {
	page, err := strconv.Atoi(v)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}
