package listquery

import (
	"context"

	"go.uber.org/mock/gomock"

	"todoweb/internal/session"
	"todoweb/internal/session/storage"
	"todoweb/internal/todo/models"
)

func signedIn(id string, reason session.Reason) session.Event {
	return session.Event{
		Snapshot: session.Snapshot{
			Token:           "token-" + id,
			User:            &session.User{ID: id, Role: session.RoleUser},
			IsAuthenticated: true,
		},
		Reason: reason,
	}
}

func (s *CoordinatorSuite) TestScopeKeepsStateForTheSameUser() {
	scope := NewSessionScope()
	scope.Track(s.coord)
	s.selection.Add("t1")

	s.Require().NoError(scope.SessionChanged(signedIn("ann", session.ReasonRehydrate)))
	s.Equal([]string{"t1"}, s.selection.IDs(), "a rehydrated selection is kept")

	s.coord.SetStatus(models.StatusDone)
	s.api.EXPECT().List(gomock.Any(), params(1, models.StatusDone, "")).Return(onePage(1, "t1"), nil).Times(1)
	_, err := s.coord.Fetch(context.Background())
	s.Require().NoError(err)

	s.Require().NoError(scope.SessionChanged(signedIn("ann", session.ReasonLogin)))
	_, err = s.coord.Fetch(context.Background())
	s.Require().NoError(err, "served from cache")
	s.Equal(models.StatusDone, s.coord.Key().Status)
	s.Equal([]string{"t1"}, s.selection.IDs())
}

func (s *CoordinatorSuite) TestScopeResetsOnUserChange() {
	scope := NewSessionScope()
	scope.Track(s.coord)
	s.Require().NoError(scope.SessionChanged(signedIn("ann", session.ReasonLogin)))

	s.coord.SetSearch("private")
	s.api.EXPECT().List(gomock.Any(), params(1, models.StatusAll, "private")).Return(onePage(1, "a1"), nil)
	_, err := s.coord.Fetch(context.Background())
	s.Require().NoError(err)
	s.selection.Add("a1")

	s.Require().NoError(scope.SessionChanged(signedIn("carl", session.ReasonLogin)))
	s.Equal(Key{Page: 1, Rows: DefaultRows, Status: models.StatusAll}, s.coord.Key())
	s.Zero(s.selection.Len())
	_, err = s.store.Get(SelectionKey)
	s.ErrorIs(err, storage.ErrNotFound)

	s.api.EXPECT().List(gomock.Any(), params(1, models.StatusAll, "")).Return(onePage(1, "c1"), nil)
	res, err := s.coord.Fetch(context.Background())
	s.Require().NoError(err)
	s.Equal("c1", res.Page.Items[0].ID)
}

func (s *CoordinatorSuite) TestScopeClearsOnSignOut() {
	scope := NewSessionScope()
	scope.Track(s.coord)
	s.Require().NoError(scope.SessionChanged(signedIn("ann", session.ReasonLogin)))
	s.selection.Add("a1")

	s.Require().NoError(scope.SessionChanged(session.Event{Reason: session.ReasonExpired}))
	s.Zero(s.selection.Len())

	// Signing out twice is one change.
	s.selection.Add("a2")
	s.Require().NoError(scope.SessionChanged(session.Event{Reason: session.ReasonLogout}))
	s.Equal([]string{"a2"}, s.selection.IDs())
}

func (s *CoordinatorSuite) TestScopeDiscardsInFlightFetch() {
	scope := NewSessionScope()
	scope.Track(s.coord)
	s.Require().NoError(scope.SessionChanged(signedIn("ann", session.ReasonLogin)))

	s.api.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, models.ListParams) (*models.Page, error) {
			s.NoError(scope.SessionChanged(signedIn("carl", session.ReasonLogin)))
			return onePage(1, "a1"), nil
		})
	_, err := s.coord.Fetch(context.Background())
	s.ErrorIs(err, ErrStale)
}
