// Package memorystorage is an in-memory implementation of the storage
// interfaces, backed by the jsondb cache without a file.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/notesvc/internal/db/jsondb"
	"github.com/patric-chuzhbe/notesvc/internal/note"
	"github.com/patric-chuzhbe/notesvc/internal/user"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users:      map[string]*user.User{},
				Notes:      map[int64]*note.Note{},
				NextNoteID: 1,
			},
		},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
