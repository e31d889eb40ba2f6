package mockapi

import (
	"strings"

	"todoweb/internal/todo/models"
	dErrors "todoweb/pkg/domain-errors"
	"todoweb/pkg/validation"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (b *loginBody) Normalize() {
	b.Email = strings.ToLower(strings.TrimSpace(b.Email))
}

func (b *loginBody) Validate() error {
	return validation.Validate(b)
}

type registerBody struct {
	FullName string `json:"fullName" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

func (b *registerBody) Sanitize() {
	b.FullName = strings.TrimSpace(b.FullName)
	b.Email = strings.TrimSpace(b.Email)
}

func (b *registerBody) Normalize() {
	b.Email = strings.ToLower(b.Email)
}

func (b *registerBody) Validate() error {
	return validation.Validate(b)
}

type markBody struct {
	Action *string `json:"action"`
	IsDone *bool   `json:"isDone"`
}

func (b *markBody) done() (bool, error) {
	switch {
	case b.Action != nil && *b.Action == models.ActionDone:
		return true, nil
	case b.Action != nil && *b.Action == models.ActionUndone:
		return false, nil
	case b.Action == nil && b.IsDone != nil:
		return *b.IsDone, nil
	}
	return false, dErrors.Validation("action must be DONE or UNDONE",
		map[string]string{"action": "action must be DONE or UNDONE"})
}
