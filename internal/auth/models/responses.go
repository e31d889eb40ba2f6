package models

import "todoweb/internal/session"

// Credentials is the body of POST /login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the body of POST /register.
type Registration struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the content of a successful login response.
type LoginResult struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// RegisterResult is the content of a successful registration response.
type RegisterResult struct {
	User session.User `json:"user"`
}
