// Package postgresdb provides a PostgreSQL-based implementation of the storage
// interfaces for persisting users and notes. Schema migrations are applied
// with goose on startup; uniqueness of username, email and share tokens is
// enforced by database constraints.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/notesvc/internal/models"
	"github.com/patric-chuzhbe/notesvc/internal/note"
	"github.com/patric-chuzhbe/notesvc/internal/user"
)

const pgUniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed implementation of the notes storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
) (*PostgresDB, error) {
	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("error while `goose.Up()` calling: %w", err)
	}

	return result, nil
}

// CreateUser inserts a new user and returns the generated UUID.
// A duplicate username or email yields models.ErrConflict.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO users (username, email, password_hash)
				VALUES ($1, $2, $3)
				RETURNING id
		`,
		usr.Username,
		usr.Email,
		usr.PasswordHash,
	)
	var userID string
	err := row.Scan(&userID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return "", models.ErrConflict
		}
		return "", err
	}

	return userID, nil
}

// FindUserByUsername fetches a user by username.
func (db *PostgresDB) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			SELECT id, username, email, password_hash, created_at
				FROM users
				WHERE username = $1
		`,
		username,
	)
	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Username, &usr.Email, &usr.PasswordHash, &usr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return usr, true, nil
}

// IsUserExists reports whether a user with the given username or email exists.
func (db *PostgresDB) IsUserExists(ctx context.Context, username, email string) (bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM users WHERE username = $1 OR email = $2`,
		username,
		email,
	)
	var usersCount int
	err := row.Scan(&usersCount)
	if err != nil {
		return false, err
	}

	return usersCount > 0, nil
}

// CreateNote inserts a new note and returns it with the assigned ID and
// timestamps. A duplicate share token yields models.ErrShareTokenCollision.
func (db *PostgresDB) CreateNote(ctx context.Context, n *note.Note) (*note.Note, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO notes (owner_id, title, content, is_public, share_id)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id, created_at, updated_at
		`,
		n.OwnerID,
		n.Title,
		n.Content,
		n.IsPublic,
		n.ShareID,
	)
	result := *n
	err := row.Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "notes_share_id_key") {
			return nil, models.ErrShareTokenCollision
		}
		return nil, err
	}

	return &result, nil
}

// GetNotesByOwner returns all notes of the given owner ordered by ID.
func (db *PostgresDB) GetNotesByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT id, owner_id, title, content, is_public, share_id, created_at, updated_at
				FROM notes
				WHERE owner_id = $1
				ORDER BY id
		`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []note.Note{}
	for rows.Next() {
		var n note.Note
		err = rows.Scan(
			&n.ID,
			&n.OwnerID,
			&n.Title,
			&n.Content,
			&n.IsPublic,
			&n.ShareID,
			&n.CreatedAt,
			&n.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		result = append(result, n)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetNoteByIDAndOwner returns the note only when it belongs to the owner.
func (db *PostgresDB) GetNoteByIDAndOwner(ctx context.Context, id int64, ownerID string) (*note.Note, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			SELECT id, owner_id, title, content, is_public, share_id, created_at, updated_at
				FROM notes
				WHERE id = $1 AND owner_id = $2
		`,
		id,
		ownerID,
	)
	var n note.Note
	err := row.Scan(
		&n.ID,
		&n.OwnerID,
		&n.Title,
		&n.Content,
		&n.IsPublic,
		&n.ShareID,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &n, true, nil
}

// UpdateNote persists the mutable note fields and refreshes updated_at.
func (db *PostgresDB) UpdateNote(ctx context.Context, n *note.Note) error {
	result, err := db.database.ExecContext(
		ctx,
		`
			UPDATE notes
				SET title = $1,
					content = $2,
					is_public = $3,
					updated_at = now()
				WHERE id = $4 AND owner_id = $5
		`,
		n.Title,
		n.Content,
		n.IsPublic,
		n.ID,
		n.OwnerID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNoteNotFound
	}

	return nil
}

// DeleteNote removes the note when it belongs to the owner.
func (db *PostgresDB) DeleteNote(ctx context.Context, id int64, ownerID string) (bool, error) {
	result, err := db.database.ExecContext(
		ctx,
		`DELETE FROM notes WHERE id = $1 AND owner_id = $2`,
		id,
		ownerID,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// FindSharedNote returns the note with the given share token,
// but only while it is public.
func (db *PostgresDB) FindSharedNote(ctx context.Context, shareID string) (*note.Note, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			SELECT id, owner_id, title, content, is_public, share_id, created_at, updated_at
				FROM notes
				WHERE share_id = $1 AND is_public = true
		`,
		shareID,
	)
	var n note.Note
	err := row.Scan(
		&n.ID,
		&n.OwnerID,
		&n.Title,
		&n.Content,
		&n.IsPublic,
		&n.ShareID,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &n, true, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolationCode {
		return false
	}

	return constraint == "" || strings.Contains(pgErr.ConstraintName, constraint)
}
