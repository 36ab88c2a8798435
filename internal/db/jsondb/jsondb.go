// Package jsondb is a file-backed implementation of the storage interfaces.
// The whole dataset lives in an in-memory cache and is flushed to a JSON
// file on Close.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/notesvc/internal/models"
	"github.com/patric-chuzhbe/notesvc/internal/note"
	"github.com/patric-chuzhbe/notesvc/internal/user"
)

type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

type CacheStruct struct {
	Users      map[string]*user.User
	Notes      map[int64]*note.Note
	NextNoteID int64
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"Notes": {},
	"NextNoteID": 1
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cacheMap)
	if err != nil {
		return err
	}

	return nil
}

func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(db.fileName, &db.Cache)
		if err != nil {
			return nil, err
		}
	}

	if db.Cache.Users == nil {
		db.Cache.Users = map[string]*user.User{}
	}
	if db.Cache.Notes == nil {
		db.Cache.Notes = map[int64]*note.Note{}
	}
	if db.Cache.NextNoteID == 0 {
		db.Cache.NextNoteID = 1
	}

	return &db, nil
}

// CreateUser stores a new user and returns its generated UUID.
// Duplicate username or email yields models.ErrConflict.
func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.Cache.Users {
		if existing.Username == usr.Username || existing.Email == usr.Email {
			return "", models.ErrConflict
		}
	}

	stored := *usr
	stored.ID = uuid.New().String()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	db.Cache.Users[stored.ID] = &stored

	return stored.ID, nil
}

// FindUserByUsername returns the user with the given username, if any.
func (db *JSONDB) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, usr := range db.Cache.Users {
		if usr.Username == username {
			found := *usr
			return &found, true, nil
		}
	}

	return nil, false, nil
}

// IsUserExists reports whether a user with the given username or email exists.
func (db *JSONDB) IsUserExists(ctx context.Context, username, email string) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, usr := range db.Cache.Users {
		if usr.Username == username || usr.Email == email {
			return true, nil
		}
	}

	return false, nil
}

// CreateNote stores a new note and returns it with its assigned ID and
// timestamps. A duplicate share token yields models.ErrShareTokenCollision.
func (db *JSONDB) CreateNote(ctx context.Context, n *note.Note) (*note.Note, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.Cache.Notes {
		if existing.ShareID == n.ShareID {
			return nil, models.ErrShareTokenCollision
		}
	}

	stored := *n
	stored.ID = db.Cache.NextNoteID
	db.Cache.NextNoteID++
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	db.Cache.Notes[stored.ID] = &stored

	result := stored

	return &result, nil
}

// GetNotesByOwner returns the owner's notes ordered by ID.
func (db *JSONDB) GetNotesByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []note.Note{}
	for _, n := range db.Cache.Notes {
		if n.OwnerID == ownerID {
			result = append(result, *n)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

// GetNoteByIDAndOwner returns the note only when it belongs to the owner.
func (db *JSONDB) GetNoteByIDAndOwner(ctx context.Context, id int64, ownerID string) (*note.Note, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	n, exists := db.Cache.Notes[id]
	if !exists || n.OwnerID != ownerID {
		return nil, false, nil
	}

	found := *n

	return &found, true, nil
}

// UpdateNote replaces the stored note with the given one.
func (db *JSONDB) UpdateNote(ctx context.Context, n *note.Note) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, exists := db.Cache.Notes[n.ID]
	if !exists || stored.OwnerID != n.OwnerID {
		return models.ErrNoteNotFound
	}

	updated := *n
	db.Cache.Notes[n.ID] = &updated

	return nil
}

// DeleteNote removes the note when it belongs to the owner.
func (db *JSONDB) DeleteNote(ctx context.Context, id int64, ownerID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n, exists := db.Cache.Notes[id]
	if !exists || n.OwnerID != ownerID {
		return false, nil
	}

	delete(db.Cache.Notes, id)

	return true, nil
}

// FindSharedNote returns the note with the given share token,
// but only while it is public.
func (db *JSONDB) FindSharedNote(ctx context.Context, shareID string) (*note.Note, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, n := range db.Cache.Notes {
		if n.ShareID == shareID && n.IsPublic {
			found := *n
			return &found, true, nil
		}
	}

	return nil, false, nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	err := writeToJSONFile(db.fileName, &db.Cache)
	if err != nil {
		return err
	}

	return nil
}
