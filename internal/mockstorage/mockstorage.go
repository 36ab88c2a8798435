// Package mockstorage provides a testify-based mock implementation
// of the internal storage interfaces used by the service and router packages.
// It is used for unit testing by simulating storage behavior.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/notesvc/internal/note"
	"github.com/patric-chuzhbe/notesvc/internal/user"
)

// StorageMock is a testify mock that implements all interfaces
// used by the service and router for storage operations.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks inserting a new user.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	args := m.Called(ctx, usr)
	return args.String(0), args.Error(1)
}

// FindUserByUsername mocks looking up a user by username.
func (m *StorageMock) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	args := m.Called(ctx, username)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// IsUserExists mocks the duplicate pre-check.
func (m *StorageMock) IsUserExists(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

// CreateNote mocks inserting a new note.
func (m *StorageMock) CreateNote(ctx context.Context, n *note.Note) (*note.Note, error) {
	args := m.Called(ctx, n)
	created, _ := args.Get(0).(*note.Note)
	return created, args.Error(1)
}

// GetNotesByOwner mocks listing the owner's notes.
func (m *StorageMock) GetNotesByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	args := m.Called(ctx, ownerID)
	notes, _ := args.Get(0).([]note.Note)
	return notes, args.Error(1)
}

// GetNoteByIDAndOwner mocks the owner-scoped note lookup.
func (m *StorageMock) GetNoteByIDAndOwner(ctx context.Context, id int64, ownerID string) (*note.Note, bool, error) {
	args := m.Called(ctx, id, ownerID)
	n, _ := args.Get(0).(*note.Note)
	return n, args.Bool(1), args.Error(2)
}

// UpdateNote mocks persisting note mutations.
func (m *StorageMock) UpdateNote(ctx context.Context, n *note.Note) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// DeleteNote mocks the owner-scoped note removal.
func (m *StorageMock) DeleteNote(ctx context.Context, id int64, ownerID string) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

// FindSharedNote mocks the public share lookup.
func (m *StorageMock) FindSharedNote(ctx context.Context, shareID string) (*note.Note, bool, error) {
	args := m.Called(ctx, shareID)
	n, _ := args.Get(0).(*note.Note)
	return n, args.Bool(1), args.Error(2)
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing storage resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
