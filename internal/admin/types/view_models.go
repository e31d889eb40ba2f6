// Package types holds the admin view models. They are admin-local so the
// templates do not couple to the API envelopes.
package types

import (
	"todoweb/internal/session"
	"todoweb/internal/todo/models"
	"todoweb/internal/web"
)

// Stats summarises the whole task collection.
type Stats struct {
	Total int
	Done  int
	Open  int
	Users int
}

// TodoTable feeds the "todo_table" block, both inside the full page and as
// the search fragment.
type TodoTable struct {
	Items []models.Todo
	Pager web.Pager
}

// TodosView is the admin task page.
type TodosView struct {
	TodoTable
	Search string
	Status models.Status
	Stats  *Stats
}

// UsersView is the admin user listing.
type UsersView struct {
	Users []session.User
	Pager web.Pager
}
