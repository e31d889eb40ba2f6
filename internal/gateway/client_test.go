package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"todoweb/internal/platform/logger"
	dErrors "todoweb/pkg/domain-errors"
	"todoweb/pkg/platform/circuit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

type mockClearer struct{ mock.Mock }

func (m *mockClearer) ExpireToken(token string) bool {
	return m.Called(token).Bool(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, level Level, message string) {
	m.Called(ctx, level, message)
}

type mockNavigator struct{ mock.Mock }

func (m *mockNavigator) Navigate(ctx context.Context, path string) {
	m.Called(ctx, path)
}

type ClientSuite struct {
	suite.Suite
	server    *httptest.Server
	handler   http.HandlerFunc
	lastReq   *http.Request
	clearer   *mockClearer
	notifier  *mockNotifier
	navigator *mockNavigator
}

func (s *ClientSuite) SetupTest() {
	s.clearer = new(mockClearer)
	s.notifier = new(mockNotifier)
	s.navigator = new(mockNavigator)
	s.handler = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastReq = r
		s.handler(w, r)
	}))
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
	s.clearer.AssertExpectations(s.T())
	s.notifier.AssertExpectations(s.T())
	s.navigator.AssertExpectations(s.T())
}

func (s *ClientSuite) client(token string, opts ...Option) *Client {
	opts = append([]Option{
		WithSessionClearer(s.clearer),
		WithNotifier(s.notifier),
		WithNavigator(s.navigator),
		WithLogger(logger.Discard()),
	}, opts...)
	c, err := New(s.server.URL, staticToken(token), opts...)
	s.Require().NoError(err)
	return c
}

func (s *ClientSuite) respond(status int, body string) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (s *ClientSuite) TestAttachesBearerToken() {
	s.respond(http.StatusCreated, `{"content":{"id":"7","item":"milk"}}`)

	var out Envelope[map[string]string]
	err := s.client("T").Post(context.Background(), "/todos", map[string]string{"item": "milk"}, &out)
	s.Require().NoError(err)

	s.Equal("Bearer T", s.lastReq.Header.Get("Authorization"))
	s.Equal("application/json", s.lastReq.Header.Get("Content-Type"))
	s.Equal("/todos", s.lastReq.URL.Path)
	s.Equal("milk", out.Content["item"])
}

func (s *ClientSuite) TestAnonymousCallHasNoAuthorizationHeader() {
	s.respond(http.StatusOK, `{"content":{}}`)

	err := s.client("").Post(context.Background(), "/login", map[string]string{"email": "a@b.com"}, nil)
	s.Require().NoError(err)
	s.Empty(s.lastReq.Header.Get("Authorization"))
}

func (s *ClientSuite) TestQueryParameters() {
	s.respond(http.StatusOK, `{"content":{"entries":[]},"totalPages":0,"totalItems":0}`)

	var out PagedEnvelope[json.RawMessage]
	err := s.client("T").Get(context.Background(), "/todos", url.Values{"page": {"2"}, "rows": {"10"}}, &out)
	s.Require().NoError(err)
	s.Equal("2", s.lastReq.URL.Query().Get("page"))
	s.Equal("10", s.lastReq.URL.Query().Get("rows"))
}

func (s *ClientSuite) TestUnauthorizedExpiresSession() {
	s.respond(http.StatusUnauthorized, `{"message":"jwt expired"}`)
	s.clearer.On("ExpireToken", "T").Return(true).Once()
	s.notifier.On("Notify", mock.Anything, LevelError, MessageSessionExpired).Once()
	s.navigator.On("Navigate", mock.Anything, LoginPath).Once()

	err := s.client("T").Delete(context.Background(), "/todos/1", nil)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal(http.StatusUnauthorized, dErrors.StatusCode(err))
	s.Equal(MessageSessionExpired, err.Error())
}

func (s *ClientSuite) TestUnauthorizedReplacedTokenKeepsNewSession() {
	s.respond(http.StatusUnauthorized, `{"message":"jwt expired"}`)
	s.clearer.On("ExpireToken", "OLD").Return(false).Once()

	err := s.client("OLD").Get(context.Background(), "/todos", nil, nil)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.notifier.AssertNotCalled(s.T(), "Notify", mock.Anything, mock.Anything, mock.Anything)
	s.navigator.AssertNotCalled(s.T(), "Navigate", mock.Anything, mock.Anything)
}

func (s *ClientSuite) TestUnauthorizedLoginDoesNotExpire() {
	s.respond(http.StatusUnauthorized, `{"message":"Invalid email or password"}`)

	err := s.client("").Post(context.Background(), "/login", map[string]string{}, nil)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal("Invalid email or password", err.Error())
}

func (s *ClientSuite) TestRequestErrors() {
	s.Run("message and error list", func() {
		s.respond(http.StatusBadRequest, `{"message":"Validation failed","errors":["item is required"]}`)
		err := s.client("T").Post(context.Background(), "/todos", map[string]string{}, nil)

		var de *dErrors.Error
		s.Require().ErrorAs(err, &de)
		s.Equal(dErrors.CodeBadRequest, de.Code)
		s.Equal("Validation failed", de.Message)
		s.Equal(http.StatusBadRequest, de.StatusCode)
		s.Equal([]string{"item is required"}, de.Details)
	})

	s.Run("field errors object", func() {
		s.respond(http.StatusConflict, `{"message":"Email taken","errors":{"email":"already registered"}}`)
		err := s.client("").Post(context.Background(), "/register", map[string]string{}, nil)

		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(map[string]string{"email": "already registered"}, dErrors.FieldErrors(err))
	})

	s.Run("fallback message", func() {
		s.respond(http.StatusInternalServerError, `<html>oops</html>`)
		err := s.client("T").Get(context.Background(), "/todos", nil, nil)

		s.True(dErrors.HasCode(err, dErrors.CodeRequest))
		s.Equal(MessageGeneric, err.Error())
		s.Equal(http.StatusInternalServerError, dErrors.StatusCode(err))
	})
}

func (s *ClientSuite) TestTimeoutIsNetworkError() {
	release := make(chan struct{})
	defer close(release)
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}

	err := s.client("T", WithTimeout(50*time.Millisecond)).Get(context.Background(), "/todos", nil, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNetwork))
	s.Equal(MessageNetwork, err.Error())
}

func (s *ClientSuite) TestCancellationIsNotANetworkError() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.client("T").Get(ctx, "/todos", nil, nil)
	s.ErrorIs(err, context.Canceled)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func TestUnreachableAPI(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := New(addr, nil, WithLogger(logger.Discard()))
	require.NoError(t, err)
	err = c.Get(context.Background(), "/todos", nil, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNetwork))
}

func TestBreakerFailsFastWhileOpen(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downAddr := down.URL
	down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer up.Close()

	now := time.Now()
	breaker := circuit.New("api",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	unreachable, err := New(downAddr, nil, WithBreaker(breaker), WithLogger(logger.Discard()))
	require.NoError(t, err)
	reachable, err := New(up.URL, nil, WithBreaker(breaker), WithLogger(logger.Discard()))
	require.NoError(t, err)

	ctx := context.Background()
	for range 2 {
		err = unreachable.Get(ctx, "/todos", nil, nil)
		require.True(t, dErrors.HasCode(err, dErrors.CodeNetwork))
		assert.NotErrorIs(t, err, circuit.ErrOpen)
	}

	err = reachable.Get(ctx, "/todos", nil, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNetwork))
	assert.ErrorIs(t, err, circuit.ErrOpen)
	assert.Equal(t, MessageNetwork, err.Error())

	now = now.Add(time.Minute)
	require.NoError(t, reachable.Get(ctx, "/todos", nil, nil))
	assert.Equal(t, circuit.StateClosed, breaker.State())
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New("ftp://example.com", nil)
	assert.Error(t, err)
	_, err = New("::nope", nil)
	assert.Error(t, err)
}

func TestConcurrentCallsShareTheToken(t *testing.T) {
	var seen atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer T" {
			seen.Add(1)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c, err := New(server.URL, staticToken("T"), WithLogger(logger.Discard()))
	require.NoError(t, err)

	done := make(chan error, 8)
	for range 8 {
		go func() { done <- c.Delete(context.Background(), "/todos/1", nil) }()
	}
	for range 8 {
		require.NoError(t, <-done)
	}
	assert.Equal(t, int32(8), seen.Load())
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/todos", routeLabel("/todos"))
	assert.Equal(t, "/todos/{id}/mark", routeLabel("/todos/42/mark"))
	assert.Equal(t, "/todos/{id}", routeLabel("todos/550e8400-e29b-41d4-a716-446655440000"))
	assert.Equal(t, "/users", routeLabel("/users?page=1"))
}
