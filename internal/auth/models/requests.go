package models

import (
	"strings"

	"todoweb/pkg/validation"
)

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email      string `form:"email" validate:"required,email"`
	Password   string `form:"password" validate:"required,min=6,max=100"`
	RememberMe bool   `form:"remember_me"`
	// Redirect is where to continue after sign-in; ignored unless it is a safe
	// protected path.
	Redirect string `form:"redirect"`
}

var loginMessages = validation.Messages{
	"email.required":    "Email is required",
	"email.email":       "Invalid email address",
	"password.required": "Password must be at least 6 characters",
	"password.min":      "Password must be at least 6 characters",
	"password.max":      "Password is too long",
}

func (r *LoginRequest) Sanitize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Redirect = strings.TrimSpace(r.Redirect)
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(r.Email)
}

func (r *LoginRequest) Validate() error {
	return validation.Validate(r, loginMessages)
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	FullName        string `form:"full_name" validate:"required,min=2,max=50"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=8,max=100"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

var registerMessages = validation.Messages{
	"full_name.required":        "Full name must be at least 2 characters",
	"full_name.min":             "Full name must be at least 2 characters",
	"full_name.max":             "Full name must be less than 50 characters",
	"email.required":            "Email is required",
	"email.email":               "Invalid email address",
	"password.required":         "Password must be at least 8 characters",
	"password.min":              "Password must be at least 8 characters",
	"password.max":              "Password is too long",
	"confirm_password.required": "Please confirm your password",
	"confirm_password.eqfield":  "Passwords don't match",
}

func (r *RegisterRequest) Sanitize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(r.Email)
}

func (r *RegisterRequest) Validate() error {
	return validation.Validate(r, registerMessages)
}
