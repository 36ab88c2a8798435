package jsondb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/notesvc/internal/models"
	"github.com/patric-chuzhbe/notesvc/internal/note"
	"github.com/patric-chuzhbe/notesvc/internal/user"
)

func newTestDB(t *testing.T) (*JSONDB, string) {
	t.Helper()

	fileName := filepath.Join(t.TempDir(), "db_test.json")
	db, err := New(fileName)
	require.NoError(t, err)

	return db, fileName
}

func TestCreateUserAndLookup(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	userID, err := db.CreateUser(ctx, &user.User{
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	usr, found, err := db.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, userID, usr.ID)
	assert.Equal(t, "a@x.com", usr.Email)
	assert.False(t, usr.CreatedAt.IsZero())

	_, found, err = db.FindUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateUserConflict(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateUser(ctx, &user.User{Username: "alice", Email: "a@x.com"})
	require.NoError(t, err)

	_, err = db.CreateUser(ctx, &user.User{Username: "alice", Email: "other@x.com"})
	assert.True(t, errors.Is(err, models.ErrConflict))

	_, err = db.CreateUser(ctx, &user.User{Username: "bob", Email: "a@x.com"})
	assert.True(t, errors.Is(err, models.ErrConflict))

	exists, err := db.IsUserExists(ctx, "alice", "unused@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateNoteShareTokenCollision(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateNote(ctx, &note.Note{OwnerID: "user-1", Title: "a", ShareID: "tok1234567"})
	require.NoError(t, err)

	_, err = db.CreateNote(ctx, &note.Note{OwnerID: "user-2", Title: "b", ShareID: "tok1234567"})
	assert.True(t, errors.Is(err, models.ErrShareTokenCollision))
}

func TestPersistenceRoundtrip(t *testing.T) {
	db, fileName := newTestDB(t)
	ctx := context.Background()

	userID, err := db.CreateUser(ctx, &user.User{Username: "alice", Email: "a@x.com"})
	require.NoError(t, err)

	created, err := db.CreateNote(ctx, &note.Note{
		OwnerID: userID,
		Title:   "Grocery",
		Content: "milk",
		ShareID: "tok1234567",
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := New(fileName)
	require.NoError(t, err)

	usr, found, err := reopened.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, userID, usr.ID)

	n, found, err := reopened.GetNoteByIDAndOwner(ctx, created.ID, userID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Grocery", n.Title)
	assert.Equal(t, "tok1234567", n.ShareID)

	// New notes continue the ID sequence after a reload.
	second, err := reopened.CreateNote(ctx, &note.Note{
		OwnerID: userID,
		Title:   "Second",
		ShareID: "tok7654321",
	})
	require.NoError(t, err)
	assert.Greater(t, second.ID, created.ID)
}

func TestFindSharedNoteHonorsVisibility(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateNote(ctx, &note.Note{
		OwnerID: "user-1",
		Title:   "Grocery",
		ShareID: "tok1234567",
	})
	require.NoError(t, err)

	_, found, err := db.FindSharedNote(ctx, "tok1234567")
	require.NoError(t, err)
	assert.False(t, found)

	created.IsPublic = true
	require.NoError(t, db.UpdateNote(ctx, created))

	n, found, err := db.FindSharedNote(ctx, "tok1234567")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Grocery", n.Title)
}

func TestInitDBFileOnMissingFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "fresh.json")

	db, err := New(fileName)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = os.Stat(fileName)
	assert.NoError(t, err)
}
