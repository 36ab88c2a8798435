// Package service contains the business rules of the notes application:
// registration, login, note CRUD scoped by owner, and the public share lookup.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/patric-chuzhbe/notesvc/internal/models"
	"github.com/patric-chuzhbe/notesvc/internal/note"
	"github.com/patric-chuzhbe/notesvc/internal/user"
)

// TriesToGenerateUniqueShareToken bounds the share token regeneration loop
// when the storage reports a collision.
const TriesToGenerateUniqueShareToken = 10

type usersKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (string, error)
	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)
	IsUserExists(ctx context.Context, username, email string) (bool, error)
}

type notesKeeper interface {
	CreateNote(ctx context.Context, n *note.Note) (*note.Note, error)
	GetNotesByOwner(ctx context.Context, ownerID string) ([]note.Note, error)
	GetNoteByIDAndOwner(ctx context.Context, id int64, ownerID string) (*note.Note, bool, error)
	UpdateNote(ctx context.Context, n *note.Note) error
	DeleteNote(ctx context.Context, id int64, ownerID string) (bool, error)
	FindSharedNote(ctx context.Context, shareID string) (*note.Note, bool, error)
}

type storage interface {
	usersKeeper
	notesKeeper
}

type credentials interface {
	HashPassword(plaintext string) (string, error)
	VerifyPassword(plaintext, hash string) bool
	BuildJWTString(username string) (string, error)
}

type shareTokenGenerator interface {
	Generate() (string, error)
}

// Service wires the storage, the credential handling and the share token
// generator together.
type Service struct {
	db             storage
	auth           credentials
	tokenGenerator shareTokenGenerator
}

func New(
	db storage,
	auth credentials,
	tokenGenerator shareTokenGenerator,
) *Service {
	return &Service{
		db:             db,
		auth:           auth,
		tokenGenerator: tokenGenerator,
	}
}

// Register creates a new account.
// A taken username or email yields models.ErrConflict; the pre-check gives
// the friendly error, the store's unique constraints close the race.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	exists, err := s.db.IsUserExists(ctx, username, email)
	if err != nil {
		return err
	}
	if exists {
		return models.ErrConflict
	}

	passwordHash, err := s.auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = s.db.CreateUser(ctx, &user.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	})

	return err
}

// Login verifies the credentials and issues a bearer token.
// Unknown username and wrong password both yield models.ErrUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	usr, found, err := s.db.FindUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if !found || !s.auth.VerifyPassword(password, usr.PasswordHash) {
		return "", models.ErrUnauthorized
	}

	return s.auth.BuildJWTString(usr.Username)
}

// ListNotes returns all notes of the given owner.
func (s *Service) ListNotes(ctx context.Context, ownerID string) ([]note.Note, error) {
	return s.db.GetNotesByOwner(ctx, ownerID)
}

// CreateNote stores a new private note with a freshly generated share token.
// The token is regenerated on a storage collision, up to
// TriesToGenerateUniqueShareToken attempts.
func (s *Service) CreateNote(ctx context.Context, ownerID, title, content string) (*note.Note, error) {
	for i := 0; i < TriesToGenerateUniqueShareToken; i++ {
		shareID, err := s.tokenGenerator.Generate()
		if err != nil {
			return nil, err
		}

		created, err := s.db.CreateNote(ctx, &note.Note{
			OwnerID:  ownerID,
			Title:    title,
			Content:  content,
			IsPublic: false,
			ShareID:  shareID,
		})
		if err != nil {
			if errors.Is(err, models.ErrShareTokenCollision) {
				continue
			}
			return nil, err
		}

		return created, nil
	}

	return nil, models.ErrShareTokenCollision
}

// UpdateNote applies the non-nil fields of the patch to the caller's note.
// It yields models.ErrNoteNotFound when the note is absent or owned by
// someone else.
func (s *Service) UpdateNote(
	ctx context.Context,
	ownerID string,
	noteID int64,
	patch *models.NoteUpdateRequest,
) (*note.Note, error) {
	n, found, err := s.db.GetNoteByIDAndOwner(ctx, noteID, ownerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNoteNotFound
	}

	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	if patch.IsPublic != nil {
		n.IsPublic = *patch.IsPublic
	}
	n.UpdatedAt = time.Now().UTC()

	err = s.db.UpdateNote(ctx, n)
	if err != nil {
		return nil, err
	}

	updated, found, err := s.db.GetNoteByIDAndOwner(ctx, noteID, ownerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNoteNotFound
	}

	return updated, nil
}

// DeleteNote removes the caller's note.
// It yields models.ErrNoteNotFound when the note is absent or owned by
// someone else.
func (s *Service) DeleteNote(ctx context.Context, ownerID string, noteID int64) error {
	deleted, err := s.db.DeleteNote(ctx, noteID, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.ErrNoteNotFound
	}

	return nil
}

// GetSharedNote resolves a share token to a note, only while the note is
// public. A private or unknown token yields models.ErrNoteNotFound.
func (s *Service) GetSharedNote(ctx context.Context, shareID string) (*note.Note, error) {
	n, found, err := s.db.FindSharedNote(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNoteNotFound
	}

	return n, nil
}
