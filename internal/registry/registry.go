// Package registry tracks document metadata per user in SQLite: which
// documents exist, their names and upload statistics. The retrieval store
// holds the searchable content; the registry is the account-facing record.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound reports a lookup of a document ID the registry does not hold.
var ErrNotFound = errors.New("document not registered")

// Document is one registered upload.
type Document struct {
	ID             string    `json:"id"`
	User           string    `json:"user"`
	Name           string    `json:"name"`
	SizeKB         int       `json:"size_kb"`
	TotalWords     int       `json:"total_words"`
	TotalSentences int       `json:"total_sentences"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// Registry is a SQLite-backed document registry.
type Registry struct {
	db *sql.DB
}

// Open opens (or creates) the registry database at dbPath.
func Open(dbPath string) (*Registry, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening registry db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging registry db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating registry db: %w", err)
	}
	return &Registry{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY,
	user_email      TEXT NOT NULL,
	name            TEXT NOT NULL,
	size_kb         INTEGER NOT NULL DEFAULT 0,
	total_words     INTEGER NOT NULL DEFAULT 0,
	total_sentences INTEGER NOT NULL DEFAULT 0,
	uploaded_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_email);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (r *Registry) Close() error { return r.db.Close() }

// Add registers a document.
func (r *Registry) Add(ctx context.Context, doc Document) error {
	const q = `INSERT INTO documents (id, user_email, name, size_kb, total_words, total_sentences, uploaded_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		doc.ID, doc.User, doc.Name, doc.SizeKB, doc.TotalWords, doc.TotalSentences,
		doc.UploadedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("register document %q: %w", doc.ID, err)
	}
	return nil
}

// Get returns one document by ID.
func (r *Registry) Get(ctx context.Context, id string) (*Document, error) {
	const q = `SELECT id, user_email, name, size_kb, total_words, total_sentences, uploaded_at
FROM documents WHERE id = ?`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	return doc, err
}

// List returns all of a user's documents, newest first.
func (r *Registry) List(ctx context.Context, user string) ([]Document, error) {
	const q = `SELECT id, user_email, name, size_kb, total_words, total_sentences, uploaded_at
FROM documents WHERE user_email = ? ORDER BY uploaded_at DESC, id`
	rows, err := r.db.QueryContext(ctx, q, user)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Remove deletes a document record.
func (r *Registry) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove document %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var uploadedAt string
	if err := row.Scan(&doc.ID, &doc.User, &doc.Name, &doc.SizeKB,
		&doc.TotalWords, &doc.TotalSentences, &uploadedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("parse uploaded_at %q: %w", uploadedAt, err)
	}
	doc.UploadedAt = t
	return &doc, nil
}
