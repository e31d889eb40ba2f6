package listquery

//go:generate mockgen -source=coordinator.go -destination=mocks/mocks.go -package=mocks TodoAPI

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"todoweb/internal/platform/logger"
	"todoweb/internal/session/storage"
	"todoweb/internal/todo/listquery/mocks"
	"todoweb/internal/todo/models"
	dErrors "todoweb/pkg/domain-errors"
)

type CoordinatorSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	api       *mocks.MockTodoAPI
	store     *storage.Memory
	selection *Selection
	coord     *Coordinator
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.api = mocks.NewMockTodoAPI(s.ctrl)
	s.store = storage.NewMemory()
	s.selection = NewSelection(s.store, logger.Discard())
	s.coord = New(s.api,
		WithName("test"),
		WithDebounce(100*time.Millisecond),
		WithSelection(s.selection),
		WithLogger(logger.Discard()),
	)
}

func (s *CoordinatorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func params(page int, status models.Status, search string) models.ListParams {
	return models.ListParams{Page: page, Rows: DefaultRows, Status: status, Search: search}
}

func onePage(total int, ids ...string) *models.Page {
	page := &models.Page{TotalPages: total, TotalItems: total * DefaultRows}
	for _, id := range ids {
		page.Items = append(page.Items, models.Todo{ID: id, Item: "task " + id})
	}
	return page
}

func (s *CoordinatorSuite) TestKeyTransitions() {
	s.Run("status change resets the page", func() {
		s.coord.SetPage(3)
		s.coord.SetStatus(models.StatusDone)
		s.Equal(Key{Page: 1, Rows: DefaultRows, Status: models.StatusDone}, s.coord.Key())
	})

	s.Run("same status keeps the page", func() {
		s.coord.SetPage(3)
		s.coord.SetStatus(models.StatusDone)
		s.Equal(3, s.coord.Key().Page)
	})

	s.Run("search change resets the page and trims", func() {
		s.coord.SetPage(4)
		s.coord.SetSearch("  milk ")
		s.Equal(Key{Page: 1, Rows: DefaultRows, Status: models.StatusDone, Search: "milk"}, s.coord.Key())
	})

	s.Run("rows change resets the page", func() {
		s.coord.SetPage(2)
		s.coord.SetRows(25)
		s.Equal(1, s.coord.Key().Page)
		s.Equal(25, s.coord.Key().Rows)
	})

	s.Run("page is clamped to one", func() {
		s.coord.SetPage(-2)
		s.Equal(1, s.coord.Key().Page)
	})

	s.Run("reset keeps rows only", func() {
		s.coord.SetPage(5)
		s.coord.Reset()
		s.Equal(Key{Page: 1, Rows: 25, Status: models.StatusAll}, s.coord.Key())
	})
}

func (s *CoordinatorSuite) TestSearchDebounce() {
	s.Run("only the last of a burst settles", func() {
		texts := []string{"b", "bu", "buy"}
		errs := make([]error, len(texts))
		var wg sync.WaitGroup
		for i, text := range texts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = s.coord.Search(context.Background(), text)
			}()
			time.Sleep(15 * time.Millisecond)
		}
		wg.Wait()

		s.ErrorIs(errs[0], ErrSuperseded)
		s.ErrorIs(errs[1], ErrSuperseded)
		s.NoError(errs[2])
		s.Equal("buy", s.coord.Key().Search)
	})

	s.Run("settled search resets the page", func() {
		s.coord.SetPage(3)
		s.Require().NoError(s.coord.Search(context.Background(), "eggs"))
		s.Equal(1, s.coord.Key().Page)
	})

	s.Run("cancelled search leaves the key alone", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := s.coord.Search(ctx, "bread")
		s.ErrorIs(err, context.Canceled)
		s.Equal("eggs", s.coord.Key().Search)
	})

	s.Run("immediate search cancels a pending one", func() {
		done := make(chan error, 1)
		go func() { done <- s.coord.Search(context.Background(), "slow") }()
		time.Sleep(10 * time.Millisecond)
		s.coord.SetSearch("fast")
		s.ErrorIs(<-done, ErrSuperseded)
		s.Equal("fast", s.coord.Key().Search)
	})
}

func (s *CoordinatorSuite) TestFetch() {
	ctx := context.Background()

	s.Run("caches per key until invalidated", func() {
		s.api.EXPECT().List(gomock.Any(), params(1, models.StatusAll, "")).Return(onePage(12, "1"), nil).Times(2)

		first, err := s.coord.Fetch(ctx)
		s.Require().NoError(err)
		second, err := s.coord.Fetch(ctx)
		s.Require().NoError(err)
		s.Same(first.Page, second.Page)
		s.Equal([]int{1, 2, 3, 4, 5}, first.Window)

		s.coord.Invalidate()
		_, err = s.coord.Fetch(ctx)
		s.Require().NoError(err)
	})

	s.Run("window follows the page", func() {
		s.api.EXPECT().List(gomock.Any(), params(12, models.StatusAll, "")).Return(onePage(12, "x"), nil)

		s.coord.SetPage(12)
		res, err := s.coord.Fetch(ctx)
		s.Require().NoError(err)
		s.Equal([]int{8, 9, 10, 11, 12}, res.Window)
		s.Equal(12, res.Key.Page)
	})

	s.Run("page past the end is clamped and refetched", func() {
		s.coord.Invalidate()
		s.api.EXPECT().List(gomock.Any(), params(12, models.StatusAll, "")).Return(onePage(2), nil)
		s.api.EXPECT().List(gomock.Any(), params(2, models.StatusAll, "")).Return(onePage(2, "y"), nil)

		res, err := s.coord.Fetch(ctx)
		s.Require().NoError(err)
		s.Equal(2, res.Key.Page)
		s.Equal(2, s.coord.Key().Page)
		s.Require().Len(res.Page.Items, 1)
		s.Equal("y", res.Page.Items[0].ID)
	})

	s.Run("errors are returned and not cached", func() {
		s.coord.Reset()
		s.coord.SetStatus(models.StatusUndone)
		apiErr := dErrors.New(dErrors.CodeNetwork, "offline")
		s.api.EXPECT().List(gomock.Any(), params(1, models.StatusUndone, "")).Return(nil, apiErr)
		s.api.EXPECT().List(gomock.Any(), params(1, models.StatusUndone, "")).Return(onePage(1), nil)

		_, err := s.coord.Fetch(ctx)
		s.ErrorIs(err, apiErr)
		_, err = s.coord.Fetch(ctx)
		s.NoError(err)
	})
}

func (s *CoordinatorSuite) TestStaleResults() {
	ctx := context.Background()

	s.Run("invalidation during a fetch discards the result", func() {
		s.api.EXPECT().List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, models.ListParams) (*models.Page, error) {
				s.coord.Invalidate()
				return onePage(1, "old"), nil
			})

		_, err := s.coord.Fetch(ctx)
		s.ErrorIs(err, ErrStale)
	})

	s.Run("key change during a fetch discards the result", func() {
		s.api.EXPECT().List(gomock.Any(), params(1, models.StatusAll, "")).
			DoAndReturn(func(context.Context, models.ListParams) (*models.Page, error) {
				s.coord.SetStatus(models.StatusDone)
				return onePage(1, "all"), nil
			})
		s.api.EXPECT().List(gomock.Any(), params(1, models.StatusDone, "")).Return(onePage(1, "done"), nil)

		_, err := s.coord.Fetch(ctx)
		s.ErrorIs(err, ErrStale)

		res, err := s.coord.Fetch(ctx)
		s.Require().NoError(err)
		s.Equal("done", res.Page.Items[0].ID)
	})
}

func (s *CoordinatorSuite) TestConcurrentFetchesShareOneCall() {
	release := make(chan struct{})
	s.api.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.ListParams) (*models.Page, error) {
			<-release
			return onePage(1, "1"), nil
		}).Times(1)

	var wg sync.WaitGroup
	results := make([]*Result, 3)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.coord.Fetch(context.Background())
			if assert.NoError(s.T(), err) {
				results[i] = res
			}
		}()
	}
	time.Sleep(30 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, res := range results {
		s.Require().NotNil(res)
		s.Equal("1", res.Page.Items[0].ID)
	}
}

func (s *CoordinatorSuite) TestMutations() {
	ctx := context.Background()

	s.Run("toggle invalidates the cache", func() {
		s.api.EXPECT().List(gomock.Any(), gomock.Any()).Return(onePage(1, "1"), nil).Times(2)
		s.api.EXPECT().Mark(gomock.Any(), "1", true).Return(nil)

		_, err := s.coord.Fetch(ctx)
		s.Require().NoError(err)
		s.Require().NoError(s.coord.Toggle(ctx, "1", true))
		_, err = s.coord.Fetch(ctx)
		s.Require().NoError(err)
	})

	s.Run("rejected create keeps the cache", func() {
		s.api.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Validation("invalid", map[string]string{"item": "Todo item is required"}))

		_, err := s.coord.Create(ctx, &models.CreateRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.coord.Fetch(ctx)
		s.Require().NoError(err)
	})

	s.Run("create invalidates the cache", func() {
		s.api.EXPECT().Create(gomock.Any(), &models.CreateRequest{Item: "milk"}).
			Return(&models.Todo{ID: "2", Item: "milk"}, nil)
		s.api.EXPECT().List(gomock.Any(), gomock.Any()).Return(onePage(1, "1", "2"), nil)

		todo, err := s.coord.Create(ctx, &models.CreateRequest{Item: "milk"})
		s.Require().NoError(err)
		s.Equal("2", todo.ID)
		res, err := s.coord.Fetch(ctx)
		s.Require().NoError(err)
		s.Len(res.Page.Items, 2)
	})

	s.Run("delete drops the id from the selection", func() {
		s.selection.Add("1", "2")
		s.api.EXPECT().Delete(gomock.Any(), "1").Return(nil)

		s.Require().NoError(s.coord.Delete(ctx, "1"))
		s.Equal([]string{"2"}, s.selection.IDs())
	})

	s.Run("failed delete keeps the selection", func() {
		s.api.EXPECT().Delete(gomock.Any(), "2").Return(dErrors.Request(dErrors.CodeNotFound, 404, "Todo not found", nil))

		err := s.coord.Delete(ctx, "2")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal([]string{"2"}, s.selection.IDs())
	})
}

func (s *CoordinatorSuite) TestBulkDelete() {
	ctx := context.Background()

	s.Run("all deleted clears the selection", func() {
		s.selection.Add("a", "b")
		s.api.EXPECT().Delete(gomock.Any(), "a").Return(nil)
		s.api.EXPECT().Delete(gomock.Any(), "b").Return(nil)

		res, err := s.coord.BulkDelete(ctx, []string{"a", "b"})
		s.Require().NoError(err)
		s.Equal([]string{"a", "b"}, res.Deleted)
		s.Empty(res.Failed)
		s.Zero(s.selection.Len())
	})

	s.Run("partial failure keeps failed ids selected", func() {
		s.selection.Add("a", "b", "c")
		s.api.EXPECT().Delete(gomock.Any(), "a").Return(nil)
		s.api.EXPECT().Delete(gomock.Any(), "b").Return(dErrors.Request(dErrors.CodeRequest, 500, "boom", nil))
		s.api.EXPECT().Delete(gomock.Any(), "c").Return(nil)

		res, err := s.coord.BulkDelete(ctx, []string{"a", "b", "c"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRequest))
		s.Equal("1 of 3 tasks could not be deleted", err.Error())
		s.Equal([]string{"a", "c"}, res.Deleted)
		s.Contains(res.Failed, "b")
		s.Equal([]string{"b"}, s.selection.IDs())
	})

	s.Run("unauthorized failure is surfaced", func() {
		s.selection.Clear()
		expired := dErrors.Request(dErrors.CodeUnauthorized, 401, "Session expired. Please login again.", nil)
		s.api.EXPECT().Delete(gomock.Any(), "a").Return(expired)

		_, err := s.coord.BulkDelete(ctx, []string{"a"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.True(errors.Is(err, expired))
	})
}

func TestWindow(t *testing.T) {
	cases := []struct {
		name  string
		page  int
		total int
		want  []int
	}{
		{name: "no pages", page: 1, total: 0, want: nil},
		{name: "fewer pages than the window", page: 2, total: 3, want: []int{1, 2, 3}},
		{name: "first page", page: 1, total: 12, want: []int{1, 2, 3, 4, 5}},
		{name: "last page", page: 12, total: 12, want: []int{8, 9, 10, 11, 12}},
		{name: "middle page", page: 6, total: 12, want: []int{4, 5, 6, 7, 8}},
		{name: "page beyond the end", page: 40, total: 12, want: []int{8, 9, 10, 11, 12}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Window(tc.page, tc.total))
		})
	}
}

func TestSelection(t *testing.T) {
	t.Run("survives a reload", func(t *testing.T) {
		st := storage.NewMemory()
		sel := NewSelection(st, logger.Discard())
		assert.True(t, sel.Toggle("b"))
		sel.Add("a")

		reloaded := NewSelection(st, logger.Discard())
		assert.Equal(t, []string{"a", "b"}, reloaded.IDs())
		assert.Equal(t, map[string]bool{"a": true, "b": true}, reloaded.Set())
	})

	t.Run("toggle twice deselects and empties storage", func(t *testing.T) {
		st := storage.NewMemory()
		sel := NewSelection(st, logger.Discard())
		sel.Toggle("a")
		assert.False(t, sel.Toggle("a"))
		assert.False(t, sel.Contains("a"))

		_, err := st.Get(SelectionKey)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("sees changes made through another handle", func(t *testing.T) {
		st := storage.NewMemory()
		server := NewSelection(st, logger.Discard())
		cli := NewSelection(st, logger.Discard())

		cli.Add("a", "b")
		assert.Equal(t, []string{"a", "b"}, server.IDs())
		server.Toggle("c")
		cli.Remove("a")
		assert.Equal(t, []string{"b", "c"}, server.IDs())
	})

	t.Run("malformed data is discarded", func(t *testing.T) {
		st := storage.NewMemory()
		require.NoError(t, st.Put(SelectionKey, []byte("{not json")))

		sel := NewSelection(st, logger.Discard())
		assert.Zero(t, sel.Len())
		_, err := st.Get(SelectionKey)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
