package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a store uniqueness constraint was violated.
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidAmount indicates a transaction amount outside (0, max].
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidReference indicates a write referenced a nonexistent user
	// or question. Use errors.As with *InvalidReferenceError for the ids.
	ErrInvalidReference = errors.New("invalid reference")
)

// InvalidReferenceError identifies which foreign ids failed validation
// before a response or transaction write.
type InvalidReferenceError struct {
	UserID          int64
	QuestionID      int64
	MissingUser     bool
	MissingQuestion bool
}

func (e *InvalidReferenceError) Error() string {
	var parts []string
	if e.MissingUser {
		parts = append(parts, fmt.Sprintf("user_id=%d", e.UserID))
	}
	if e.MissingQuestion {
		parts = append(parts, fmt.Sprintf("question_id=%d", e.QuestionID))
	}
	return "invalid reference: " + strings.Join(parts, ", ")
}

func (e *InvalidReferenceError) Unwrap() error {
	return ErrInvalidReference
}
