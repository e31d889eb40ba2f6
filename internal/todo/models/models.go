package models

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"todoweb/internal/session"
	"todoweb/pkg/validation"
)

// Status filters a list by completion.
type Status string

const (
	StatusAll    Status = "all"
	StatusDone   Status = "done"
	StatusUndone Status = "undone"
)

// ParseStatus maps unknown values to StatusAll.
func ParseStatus(v string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(v))) {
	case StatusDone:
		return StatusDone
	case StatusUndone:
		return StatusUndone
	default:
		return StatusAll
	}
}

// Todo is a task as the API returns it. The client never assigns ID.
type Todo struct {
	ID        string    `json:"id"`
	Item      string    `json:"item"`
	UserID    string    `json:"userId"`
	IsDone    bool      `json:"isDone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListParams selects one page of the task collection.
type ListParams struct {
	Page   int
	Rows   int
	Search string
	Status Status
}

// Query encodes the parameters the way GET /todos expects them: search and
// status travel as JSON objects in searchFilters and filters.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(max(p.Page, 1)))
	if p.Rows > 0 {
		q.Set("rows", strconv.Itoa(p.Rows))
	}
	if search := strings.TrimSpace(p.Search); search != "" {
		data, _ := json.Marshal(map[string]string{"item": search})
		q.Set("searchFilters", string(data))
	}
	switch p.Status {
	case StatusDone:
		q.Set("filters", `{"isDone":true}`)
	case StatusUndone:
		q.Set("filters", `{"isDone":false}`)
	}
	return q
}

// Counts is the completion summary of the caller's whole task list.
type Counts struct {
	Done  int
	Total int
}

// Page is one page of tasks plus collection totals.
type Page struct {
	Items      []Todo
	TotalPages int
	TotalItems int
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users      []session.User
	TotalPages int
	TotalItems int
}

// CreateRequest is the new-task form and the body of POST /todos.
type CreateRequest struct {
	Item string `form:"item" json:"item" validate:"required,max=100"`
}

var createMessages = validation.Messages{
	"item.required": "Todo item is required",
	"item.max":      "Todo item must be less than 100 characters",
}

func (r *CreateRequest) Sanitize() {
	r.Item = strings.TrimSpace(r.Item)
}

func (r *CreateRequest) Validate() error {
	return validation.Validate(r, createMessages)
}

// Mark actions for PUT /todos/{id}/mark.
const (
	ActionDone   = "DONE"
	ActionUndone = "UNDONE"
)

// MarkRequest is the body of PUT /todos/{id}/mark.
type MarkRequest struct {
	Action string `json:"action"`
}

// NewMarkRequest returns the request that sets completion to done.
func NewMarkRequest(done bool) MarkRequest {
	if done {
		return MarkRequest{Action: ActionDone}
	}
	return MarkRequest{Action: ActionUndone}
}
