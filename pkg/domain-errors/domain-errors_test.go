package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeRequest, Message: "todo not found"}
		s.Equal("todo not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeNetwork}
		s.Equal("network", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeUnauthorized, Message: "session expired"}
		err2 := &Error{Code: CodeUnauthorized, Message: "invalid credentials"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		s.False((&Error{Code: CodeNetwork}).Is(&Error{Code: CodeRequest}))
	})

	s.Run("works with errors.Is through fmt wrapping", func() {
		inner := New(CodeUnauthorized, "session expired")
		wrapped := fmt.Errorf("create todo: %w", inner)
		s.True(errors.Is(wrapped, &Error{Code: CodeUnauthorized}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves original code and status when wrapping domain error", func() {
		original := Request(CodeNotFound, 404, "todo not found", nil)
		wrapped := Wrap(original, CodeInternal, "toggle failed")

		var domainErr *Error
		s.Require().True(errors.As(wrapped, &domainErr))
		s.Equal(CodeNotFound, domainErr.Code)
		s.Equal(404, domainErr.StatusCode)
		s.Equal("toggle failed", domainErr.Message)
	})

	s.Run("uses provided code when wrapping non-domain error", func() {
		original := errors.New("unexpected EOF")
		wrapped := Wrap(original, CodeNetwork, "connection dropped")

		s.True(HasCode(wrapped, CodeNetwork))
		s.True(errors.Is(wrapped, original))
	})
}

func (s *DomainErrorsSuite) TestAccessors() {
	s.Run("field errors come from validation errors", func() {
		err := Validation("invalid form", map[string]string{"email": "email is required"})
		s.Equal(map[string]string{"email": "email is required"}, FieldErrors(err))
		s.Equal(CodeValidation, CodeOf(err))
		s.Zero(StatusCode(err))
	})

	s.Run("request errors carry status and details", func() {
		err := Request(CodeRequest, 422, "Validation error", []string{"item is too long"})
		s.Equal(422, StatusCode(err))
		s.Nil(FieldErrors(err))

		var domainErr *Error
		s.Require().True(errors.As(err, &domainErr))
		s.Equal([]string{"item is too long"}, domainErr.Details)
	})

	s.Run("non-domain errors map to internal", func() {
		s.Equal(CodeInternal, CodeOf(errors.New("boom")))
		s.False(HasCode(nil, CodeInternal))
	})
}
