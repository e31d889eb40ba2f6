package mockapi

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"todoweb/internal/session"
	"todoweb/internal/todo/models"
	dErrors "todoweb/pkg/domain-errors"
)

type account struct {
	session.User
	PasswordHash string
}

// TodoFilter selects one page of tasks. An empty UserID means every user.
type TodoFilter struct {
	UserID string
	Search string
	IsDone *bool
	Page   int
	Rows   int
}

// Store keeps users and tasks in memory, newest task first.
type Store struct {
	now func() time.Time

	mu        sync.RWMutex
	users     map[string]*account
	emails    map[string]string
	userOrder []string
	todos     map[string]*models.Todo
	todoOrder []string
}

func NewStore() *Store {
	return &Store{
		now:    time.Now,
		users:  make(map[string]*account),
		emails: make(map[string]string),
		todos:  make(map[string]*models.Todo),
	}
}

func (s *Store) CreateUser(fullName, email, passwordHash, role string) (session.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[email]; taken {
		return session.User{}, dErrors.New(dErrors.CodeConflict, "Email already registered")
	}
	acct := &account{
		User: session.User{
			ID:       uuid.NewString(),
			Email:    email,
			FullName: fullName,
			Name:     firstName(fullName),
			Role:     role,
		},
		PasswordHash: passwordHash,
	}
	s.users[acct.ID] = acct
	s.emails[email] = acct.ID
	s.userOrder = append(s.userOrder, acct.ID)
	return acct.User, nil
}

func (s *Store) findByEmail(email string) (*account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return s.users[id], nil
}

// ListUsers returns one page of users in registration order and the total.
func (s *Store) ListUsers(page, limit int) ([]session.User, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start, end := bounds(len(s.userOrder), page, limit)
	out := make([]session.User, 0, end-start)
	for _, id := range s.userOrder[start:end] {
		out = append(out, s.users[id].User)
	}
	return out, len(s.userOrder)
}

func (s *Store) CreateTodo(userID, item string) models.Todo {
	now := s.now().UTC()
	todo := &models.Todo{
		ID:        uuid.NewString(),
		Item:      item,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos[todo.ID] = todo
	s.todoOrder = append(s.todoOrder, todo.ID)
	return *todo
}

// ListTodos returns the matching page and the number of matching tasks.
// Search is a case-insensitive substring match on the item.
func (s *Store) ListTodos(f TodoFilter) ([]models.Todo, int) {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.Todo
	for _, id := range slices.Backward(s.todoOrder) {
		t := s.todos[id]
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.IsDone != nil && t.IsDone != *f.IsDone {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Item), search) {
			continue
		}
		matched = append(matched, *t)
	}
	start, end := bounds(len(matched), f.Page, f.Rows)
	return matched[start:end], len(matched)
}

// Todo returns a task visible to userID; admin sees every task. Tasks of
// other users read as missing.
func (s *Store) Todo(id, userID string, admin bool) (models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.todos[id]
	if !ok || (!admin && t.UserID != userID) {
		return models.Todo{}, dErrors.New(dErrors.CodeNotFound, "Todo not found")
	}
	return *t, nil
}

func (s *Store) MarkTodo(id string, done bool) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return models.Todo{}, dErrors.New(dErrors.CodeNotFound, "Todo not found")
	}
	t.IsDone = done
	t.UpdatedAt = s.now().UTC()
	return *t, nil
}

func (s *Store) DeleteTodo(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[id]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "Todo not found")
	}
	delete(s.todos, id)
	s.todoOrder = slices.DeleteFunc(s.todoOrder, func(v string) bool { return v == id })
	return nil
}

// bounds returns the slice window of a 1-based page over total items.
func bounds(total, page, size int) (int, int) {
	if size <= 0 || page <= 0 {
		return 0, 0
	}
	start := min((page-1)*size, total)
	return start, min(start+size, total)
}

func totalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

func firstName(fullName string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(fullName), " ")
	return name
}
