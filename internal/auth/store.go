// Package auth provides the SQLite credential store and in-memory sessions.
package auth

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/hyperjump/susume/internal/models"
)

// Store persists user credentials in SQLite. Passwords are stored as bcrypt
// hashes only.
type Store struct {
	db         *sql.DB
	bcryptCost int
}

// NewStore opens or creates the credential database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewStore(dbPath string, bcryptCost int) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{db: db, bcryptCost: bcryptCost}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Register creates a user with the given credentials. Returns
// models.ErrUserExists when the username is already taken.
func (s *Store) Register(ctx context.Context, username, password string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE username = ?`, username,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if exists > 0 {
		return models.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, string(hash), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Authenticate verifies the given credentials. Returns models.ErrUserNotFound
// for an unknown username and models.ErrWrongPassword for a bad password.
func (s *Store) Authenticate(ctx context.Context, username, password string) error {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE username = ?`, username,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return models.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return models.ErrWrongPassword
	}
	return nil
}

// UserCount returns the number of registered users.
func (s *Store) UserCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
