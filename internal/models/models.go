// Package models declares the request/response shapes of the HTTP API and
// the sentinel errors shared between the service and storage layers.
package models

import "errors"

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is the body of a successful POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// NoteCreateRequest is the body of POST /notes.
type NoteCreateRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

// NoteUpdateRequest is the body of PUT /notes/{id}.
// Nil fields are left untouched.
type NoteUpdateRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	IsPublic *bool   `json:"is_public"`
}

// NoteResponse is the note object returned by the authenticated note routes.
// Timestamps are RFC 3339 strings.
type NoteResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsPublic  bool   `json:"is_public"`
	ShareID   string `json:"share_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// SharedNoteResponse is the body of GET /shared/{share_id}.
type SharedNoteResponse struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the structured error body returned on every failure.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// ErrConflict is returned when a unique field (username, email) is already taken.
var ErrConflict = errors.New("username or email already registered")

// ErrUnauthorized is returned on bad credentials or a missing/invalid token.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = errors.New("invalid token")

// ErrNoteNotFound is returned when a note is absent or not visible to the caller.
var ErrNoteNotFound = errors.New("note not found")

// ErrShareTokenCollision is returned by storages when a generated share token
// is already assigned to another note.
var ErrShareTokenCollision = errors.New("share token already exists")
