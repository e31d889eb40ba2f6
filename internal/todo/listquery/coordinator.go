// Package listquery keeps a paginated, filtered, searched view of the task
// collection consistent with user intent and with the API.
//
// The query key is {page, rows, search, status}. Changing anything but the
// page resets the page to 1. Search text joins the key only after it has been
// stable for the debounce delay. Results are cached per key until the next
// mutation, which invalidates the cache so the following fetch reflects the
// server. A fetch that completes after the key changed, or after an
// invalidation, is discarded rather than shown.
package listquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"todoweb/internal/platform/metrics"
	"todoweb/internal/platform/tracer"
	"todoweb/internal/todo/models"
	dErrors "todoweb/pkg/domain-errors"
)

var (
	// ErrSuperseded is returned by Search when a later call replaced it
	// before the debounce delay elapsed.
	ErrSuperseded = errors.New("listquery: search superseded")
	// ErrStale is returned by Fetch when the key changed or the cache was
	// invalidated while the fetch was in flight.
	ErrStale = errors.New("listquery: result is stale")
)

// Defaults.
const (
	DefaultRows     = 10
	DefaultDebounce = 500 * time.Millisecond
	DefaultJobs     = 4
)

// TodoAPI is the remote task collection.
type TodoAPI interface {
	List(ctx context.Context, p models.ListParams) (*models.Page, error)
	Create(ctx context.Context, req *models.CreateRequest) (*models.Todo, error)
	Mark(ctx context.Context, id string, done bool) error
	Delete(ctx context.Context, id string) error
}

// Key identifies one cached fetch.
type Key struct {
	Page   int
	Rows   int
	Search string
	Status models.Status
}

func (k Key) params() models.ListParams {
	return models.ListParams{Page: k.Page, Rows: k.Rows, Search: k.Search, Status: k.Status}
}

func (k Key) String() string {
	return fmt.Sprintf("page=%d rows=%d status=%s search=%q", k.Page, k.Rows, k.Status, k.Search)
}

// Result is a fetched page together with the key it answers.
type Result struct {
	Key    Key
	Page   *models.Page
	Window []int
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	api       TodoAPI
	name      string
	debounce  time.Duration
	jobs      int
	selection *Selection

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	group   singleflight.Group

	mu        sync.Mutex
	key       Key
	searchGen uint64
	epoch     uint64
	cache     map[Key]*models.Page
}

type Option func(*Coordinator)

// WithName labels metrics and logs, e.g. "dashboard" or "admin".
func WithName(name string) Option {
	return func(c *Coordinator) {
		c.name = name
	}
}

func WithRows(rows int) Option {
	return func(c *Coordinator) {
		if rows > 0 {
			c.key.Rows = rows
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithBulkJobs bounds the number of concurrent deletions in BulkDelete.
func WithBulkJobs(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.jobs = n
		}
	}
}

// WithSelection attaches the persisted selection that BulkDelete prunes.
func WithSelection(s *Selection) Option {
	return func(c *Coordinator) {
		c.selection = s
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = t
	}
}

func New(api TodoAPI, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:      api,
		name:     "todos",
		debounce: DefaultDebounce,
		jobs:     DefaultJobs,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
		key:      Key{Page: 1, Rows: DefaultRows, Status: models.StatusAll},
		cache:    make(map[Key]*models.Page),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the current query key.
func (c *Coordinator) Key() Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// Selection returns the attached selection, or nil.
func (c *Coordinator) Selection() *Selection {
	return c.selection
}

// SetPage moves to page, clamped to at least 1.
func (c *Coordinator) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key.Page = max(page, 1)
}

// SetStatus changes the status filter and, when it changes, resets the page.
func (c *Coordinator) SetStatus(status models.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status != c.key.Status {
		c.key.Status = status
		c.key.Page = 1
	}
}

// SetRows changes the page size and, when it changes, resets the page.
func (c *Coordinator) SetRows(rows int) {
	if rows <= 0 {
		rows = DefaultRows
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if rows != c.key.Rows {
		c.key.Rows = rows
		c.key.Page = 1
	}
}

// SetSearch applies settled search text immediately, bypassing the debounce,
// and cancels any pending Search. A change resets the page.
func (c *Coordinator) SetSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchGen++
	c.applySearchLocked(text)
}

func (c *Coordinator) applySearchLocked(text string) {
	text = strings.TrimSpace(text)
	if text != c.key.Search {
		c.key.Search = text
		c.key.Page = 1
	}
}

// Reset returns to the first page of the unfiltered list.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchGen++
	c.key = Key{Page: 1, Rows: c.key.Rows, Status: models.StatusAll}
}

// Search waits for the debounce delay and then applies text, unless another
// Search call arrived meanwhile, in which case it returns ErrSuperseded and
// leaves the key untouched. Only the last of a burst of calls settles.
func (c *Coordinator) Search(ctx context.Context, text string) error {
	c.mu.Lock()
	c.searchGen++
	gen := c.searchGen
	c.mu.Unlock()

	timer := time.NewTimer(c.debounce)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.searchGen {
		c.metrics.IncrementSearchSuperseded()
		return ErrSuperseded
	}
	c.applySearchLocked(text)
	return nil
}

// Invalidate drops every cached result and marks in-flight fetches stale.
func (c *Coordinator) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	clear(c.cache)
}

// Fetch returns the page for the current key, from cache when possible.
// Concurrent fetches of one key share a single API call. When the page lies
// past the end of the result, the key is clamped to the last page and
// fetched again.
func (c *Coordinator) Fetch(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	key, epoch := c.key, c.epoch
	page, hit := c.cache[key]
	c.mu.Unlock()

	if hit {
		c.metrics.IncrementListFetches(c.name, "hit")
		return c.result(key, page), nil
	}
	c.metrics.IncrementListFetches(c.name, "miss")

	page, err := c.load(ctx, key, epoch)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.epoch != epoch || c.key != key {
		c.mu.Unlock()
		c.metrics.IncrementListFetches(c.name, "stale")
		c.logger.DebugContext(ctx, "discarding stale list result", "list", c.name, "key", key.String())
		return nil, ErrStale
	}
	c.cache[key] = page
	clamp := page.TotalPages > 0 && key.Page > page.TotalPages
	if clamp {
		c.key.Page = page.TotalPages
	}
	c.mu.Unlock()

	if clamp {
		return c.Fetch(ctx)
	}
	return c.result(key, page), nil
}

// Current is Fetch retried once when the first result went stale, which
// happens when a mutation lands while the fetch is in flight.
func (c *Coordinator) Current(ctx context.Context) (*Result, error) {
	res, err := c.Fetch(ctx)
	if errors.Is(err, ErrStale) {
		res, err = c.Fetch(ctx)
	}
	return res, err
}

// load collapses concurrent loads of the same key and epoch. The shared call
// runs detached from any single caller's cancellation; each caller still
// stops waiting when its own ctx ends.
func (c *Coordinator) load(ctx context.Context, key Key, epoch uint64) (*models.Page, error) {
	flight := fmt.Sprintf("%d|%s", epoch, key)
	ch := c.group.DoChan(flight, func() (any, error) {
		fctx, span := c.tracer.Start(context.WithoutCancel(ctx), tracer.SpanListFetch,
			tracer.String(tracer.AttrListStatus, string(key.Status)),
			tracer.Int(tracer.AttrListPage, key.Page),
			tracer.Int(tracer.AttrListRows, key.Rows),
		)
		page, err := c.api.List(fctx, key.params())
		span.End(err)
		return page, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Page), nil
	}
}

func (c *Coordinator) result(key Key, page *models.Page) *Result {
	return &Result{Key: key, Page: page, Window: Window(key.Page, page.TotalPages)}
}

// Create adds a task and invalidates the cache.
func (c *Coordinator) Create(ctx context.Context, req *models.CreateRequest) (*models.Todo, error) {
	todo, err := c.api.Create(ctx, req)
	if dErrors.HasCode(err, dErrors.CodeValidation) {
		return nil, err
	}
	c.Invalidate()
	return todo, err
}

// Toggle sets a task's completion and invalidates the cache.
func (c *Coordinator) Toggle(ctx context.Context, id string, done bool) error {
	defer c.Invalidate()
	return c.api.Mark(ctx, id, done)
}

// Delete removes a task, drops it from the selection once the API confirmed
// the deletion, and invalidates the cache.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	defer c.Invalidate()
	if err := c.api.Delete(ctx, id); err != nil {
		return err
	}
	if c.selection != nil {
		c.selection.Remove(id)
	}
	return nil
}

// BulkResult reports the per-id outcome of BulkDelete.
type BulkResult struct {
	Deleted []string
	Failed  map[string]error
}

// BulkDelete deletes ids concurrently. Only ids the API confirmed are removed
// from the selection; failed ids stay selected so the user can retry. The
// returned error is non-nil when any deletion failed.
func (c *Coordinator) BulkDelete(ctx context.Context, ids []string) (BulkResult, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanBulkDelete, tracer.Int(tracer.AttrBulkCount, len(ids)))
	defer c.Invalidate()

	errs := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(c.jobs)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = c.api.Delete(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	result := BulkResult{Failed: map[string]error{}}
	for i, id := range ids {
		if errs[i] != nil {
			result.Failed[id] = errs[i]
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}
	if c.selection != nil && len(result.Deleted) > 0 {
		c.selection.Remove(result.Deleted...)
	}
	c.metrics.AddBulkDeletes(len(result.Deleted), len(result.Failed))
	span.SetAttributes(tracer.Int(tracer.AttrBulkFailed, len(result.Failed)))

	if len(result.Failed) == 0 {
		span.End(nil)
		return result, nil
	}

	err := bulkError(ids, errs, len(result.Failed))
	span.End(err)
	c.logger.WarnContext(ctx, "bulk delete partially failed",
		"list", c.name,
		"deleted", len(result.Deleted),
		"failed", len(result.Failed),
	)
	return result, err
}

// bulkError summarises failures. An unauthorized failure wins, so callers
// see the session expiry rather than a generic count.
func bulkError(ids []string, errs []error, failed int) error {
	joined := errors.Join(errs...)
	for _, err := range errs {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return dErrors.Wrap(joined, dErrors.CodeUnauthorized, err.Error())
		}
	}
	msg := fmt.Sprintf("%d of %d tasks could not be deleted", failed, len(ids))
	return &dErrors.Error{Code: dErrors.CodeRequest, Message: msg, Err: joined}
}
