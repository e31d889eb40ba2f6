package mockapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"todoweb/internal/platform/logger"
	"todoweb/internal/session"
	"todoweb/internal/todo/models"
	"todoweb/pkg/secrets"
	"todoweb/pkg/testutil"
)

type ServerSuite struct {
	suite.Suite
	server     *Server
	adminToken string
	userToken  string
	user       session.User
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.server = New("test-key", time.Hour, logger.Discard(), WithPasswordCost(secrets.MinCost))
	_, err := s.server.SeedUser("Root Admin", "root@example.com", "admin-password", session.RoleAdmin)
	s.Require().NoError(err)
	s.user, err = s.server.SeedUser("Ada Lovelace", "ada@example.com", "password1", session.RoleUser)
	s.Require().NoError(err)

	s.adminToken = s.login("root@example.com", "admin-password")
	s.userToken = s.login("ada@example.com", "password1")
}

type response struct {
	Content    json.RawMessage `json:"content"`
	Message    string          `json:"message"`
	Errors     json.RawMessage `json:"errors"`
	TotalPages int             `json:"totalPages"`
	TotalItems int             `json:"totalItems"`
}

func (s *ServerSuite) do(method, target, token string, body any) (int, response) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.server.ServeHTTP(w, req)

	var resp response
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (s *ServerSuite) login(email, password string) string {
	code, resp := s.do(http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	s.Require().Equal(http.StatusOK, code)
	var content struct {
		Token string       `json:"token"`
		User  session.User `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(resp.Content, &content))
	s.Require().NotEmpty(content.User.ID)
	return content.Token
}

func (s *ServerSuite) create(token, item string) models.Todo {
	code, resp := s.do(http.MethodPost, "/todos", token, map[string]string{"item": item})
	s.Require().Equal(http.StatusCreated, code)
	var todo models.Todo
	s.Require().NoError(json.Unmarshal(resp.Content, &todo))
	return todo
}

func (s *ServerSuite) list(token string, query url.Values) ([]models.Todo, response) {
	code, resp := s.do(http.MethodGet, "/todos?"+query.Encode(), token, nil)
	s.Require().Equal(http.StatusOK, code)
	var content struct {
		Entries []models.Todo `json:"entries"`
	}
	s.Require().NoError(json.Unmarshal(resp.Content, &content))
	return content.Entries, resp
}

func (s *ServerSuite) TestLogin() {
	s.Run("token carries id and role", func() {
		claims, err := s.server.Tokens().ValidateToken(s.userToken)
		s.Require().NoError(err)
		s.Equal(s.user.ID, claims.UserID)
		s.Equal(session.RoleUser, claims.Role)
	})

	s.Run("email is case insensitive", func() {
		s.NotEmpty(s.login("ADA@example.com", "password1"))
	})

	s.Run("wrong password", func() {
		code, resp := s.do(http.MethodPost, "/login", "", map[string]string{"email": "ada@example.com", "password": "nope"})
		s.Equal(http.StatusUnauthorized, code)
		s.Equal("Invalid email or password", resp.Message)
	})

	s.Run("unknown email answers like a wrong password", func() {
		code, resp := s.do(http.MethodPost, "/login", "", map[string]string{"email": "nobody@example.com", "password": "nope"})
		s.Equal(http.StatusUnauthorized, code)
		s.Equal("Invalid email or password", resp.Message)
	})

	s.Run("hashes use the configured cost", func() {
		acct, err := s.server.Store().findByEmail("ada@example.com")
		s.Require().NoError(err)
		cost, err := bcrypt.Cost([]byte(acct.PasswordHash))
		s.Require().NoError(err)
		s.Equal(secrets.MinCost, cost)
	})
}

func (s *ServerSuite) TestRegister() {
	s.Run("field errors are keyed by field", func() {
		code, resp := s.do(http.MethodPost, "/register", "", map[string]string{"fullName": "A", "email": "bad", "password": "short"})
		s.Equal(http.StatusBadRequest, code)
		var fields map[string]string
		s.Require().NoError(json.Unmarshal(resp.Errors, &fields))
		s.Contains(fields, "full_name")
		s.Contains(fields, "email")
		s.Contains(fields, "password")
	})

	s.Run("creates a user account", func() {
		code, _ := s.do(http.MethodPost, "/register", "", map[string]string{
			"fullName": "Grace Hopper", "email": "grace@example.com", "password": "password1",
		})
		s.Equal(http.StatusCreated, code)
		s.NotEmpty(s.login("grace@example.com", "password1"))
	})

	s.Run("password longer than bcrypt accepts", func() {
		code, _ := s.do(http.MethodPost, "/register", "", map[string]string{
			"fullName": "Long Pass", "email": "long@example.com", "password": strings.Repeat("p", secrets.MaxPasswordBytes+1),
		})
		s.Equal(http.StatusBadRequest, code)
	})

	s.Run("duplicate email conflicts", func() {
		code, resp := s.do(http.MethodPost, "/register", "", map[string]string{
			"fullName": "Ada Again", "email": "ada@example.com", "password": "password1",
		})
		s.Equal(http.StatusConflict, code)
		s.Equal("Email already registered", resp.Message)
	})
}

func (s *ServerSuite) TestBearerEnforced() {
	s.Run("missing token", func() {
		code, resp := s.do(http.MethodGet, "/todos", "", nil)
		s.Equal(http.StatusUnauthorized, code)
		s.Equal("Unauthorized", resp.Message)
	})

	s.Run("expired token", func() {
		s.server.Tokens().SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
		defer s.server.Tokens().SetClock(time.Now)
		code, _ := s.do(http.MethodGet, "/todos", s.userToken, nil)
		s.Equal(http.StatusUnauthorized, code)
	})

	s.Run("rotated key revokes tokens", func() {
		s.Require().NoError(s.server.RotateSigningKey())
		code, _ := s.do(http.MethodGet, "/todos", s.userToken, nil)
		s.Equal(http.StatusUnauthorized, code)
	})
}

func (s *ServerSuite) TestTodos() {
	for i := range 12 {
		s.create(s.userToken, fmt.Sprintf("task %02d", i))
	}
	other := s.create(s.adminToken, "admin chore")

	s.Run("pages newest first", func() {
		items, resp := s.list(s.userToken, url.Values{"page": {"2"}, "rows": {"5"}})
		s.Equal(3, resp.TotalPages)
		s.Equal(12, resp.TotalItems)
		s.Require().Len(items, 5)
		s.Equal("task 06", items[0].Item)
		s.Equal(s.user.ID, items[0].UserID)
	})

	s.Run("admin sees every user", func() {
		_, resp := s.list(s.adminToken, url.Values{"rows": {"100"}})
		s.Equal(13, resp.TotalItems)
	})

	s.Run("search and status filters", func() {
		items, _ := s.list(s.userToken, url.Values{"searchFilters": {`{"item":"TASK 1"}`}})
		s.Len(items, 2)

		first := items[0]
		code, _ := s.do(http.MethodPut, "/todos/"+first.ID+"/mark", s.userToken, map[string]string{"action": models.ActionDone})
		s.Equal(http.StatusOK, code)

		done, resp := s.list(s.userToken, url.Values{"filters": {`{"isDone":true}`}})
		s.Equal(1, resp.TotalItems)
		s.Equal(first.ID, done[0].ID)
		s.True(done[0].IsDone)
	})

	s.Run("mark accepts isDone", func() {
		items, _ := s.list(s.userToken, url.Values{"filters": {`{"isDone":true}`}})
		s.Require().Len(items, 1)
		code, _ := s.do(http.MethodPut, "/todos/"+items[0].ID+"/mark", s.userToken, map[string]bool{"isDone": false})
		s.Equal(http.StatusOK, code)

		_, resp := s.list(s.userToken, url.Values{"filters": {`{"isDone":true}`}})
		s.Equal(0, resp.TotalItems)
	})

	s.Run("mark rejects an unknown action", func() {
		code, _ := s.do(http.MethodPut, "/todos/"+other.ID+"/mark", s.adminToken, map[string]string{"action": "MAYBE"})
		s.Equal(http.StatusBadRequest, code)
	})

	s.Run("other users' tasks read as missing", func() {
		code, resp := s.do(http.MethodDelete, "/todos/"+other.ID, s.userToken, nil)
		s.Equal(http.StatusNotFound, code)
		s.Equal("Todo not found", resp.Message)
	})

	s.Run("create validates the item", func() {
		code, resp := s.do(http.MethodPost, "/todos", s.userToken, map[string]string{"item": "  "})
		s.Equal(http.StatusBadRequest, code)
		s.Equal("Todo item is required", resp.Message)
	})

	s.Run("delete", func() {
		code, _ := s.do(http.MethodDelete, "/todos/"+other.ID, s.adminToken, nil)
		s.Equal(http.StatusOK, code)
		code, _ = s.do(http.MethodDelete, "/todos/"+other.ID, s.adminToken, nil)
		s.Equal(http.StatusNotFound, code)
	})
}

func (s *ServerSuite) TestUsers() {
	s.Run("admin only", func() {
		code, resp := s.do(http.MethodGet, "/users", s.userToken, nil)
		s.Equal(http.StatusForbidden, code)
		s.Equal("Forbidden", resp.Message)
	})

	s.Run("paged listing", func() {
		code, resp := s.do(http.MethodGet, "/users?page=2&limit=1", s.adminToken, nil)
		s.Require().Equal(http.StatusOK, code)
		s.Equal(2, resp.TotalPages)
		var content struct {
			Entries []session.User `json:"entries"`
		}
		s.Require().NoError(json.Unmarshal(resp.Content, &content))
		s.Require().Len(content.Entries, 1)
		s.Equal("ada@example.com", content.Entries[0].Email)
		s.Equal("Ada", content.Entries[0].Name)
	})
}

func TestStoreConcurrentWrites(t *testing.T) {
	store := NewStore()

	created := testutil.RunConcurrent(16, func(i int) error {
		store.CreateTodo("u1", fmt.Sprintf("task %d", i))
		return nil
	})
	assert.Equal(t, int32(16), created.Successes)
	todos, total := store.ListTodos(TodoFilter{UserID: "u1", Page: 1, Rows: 100})
	require.Equal(t, 16, total)

	deleted := testutil.RunConcurrent(8, func(int) error {
		return store.DeleteTodo(todos[0].ID)
	})
	assert.Equal(t, int32(1), deleted.Successes)
	assert.Equal(t, int32(7), deleted.NotFounds)
	assert.Equal(t, int32(8), deleted.Total())
}
