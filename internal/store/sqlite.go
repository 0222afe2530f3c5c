package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

const defaultDocumentName = "dashboard"

// sqliteDocumentStore keeps the registry document as one row of a sqlite table.
type sqliteDocumentStore struct {
	db   *sql.DB
	name string
}

func NewSQLiteDocumentStore(path string) (*sqliteDocumentStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.NewDatabaseError("open", "failed to open sqlite database", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	documentTable := `
	CREATE TABLE IF NOT EXISTS dashboard_documents (
		name TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at DATETIME
	);
	`
	if _, err := db.Exec(documentTable); err != nil {
		db.Close()
		return nil, errs.NewDatabaseError("open", "failed to create dashboard table", err)
	}
	return &sqliteDocumentStore{db: db, name: defaultDocumentName}, nil
}

func (s *sqliteDocumentStore) Load(ctx context.Context) ([]byte, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM dashboard_documents WHERE name = ?`, s.name).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NewNotFoundError("dashboard document not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to read dashboard document", err)
	}
	return []byte(doc), nil
}

func (s *sqliteDocumentStore) Save(ctx context.Context, doc []byte) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dashboard_documents (name, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		s.name, string(doc), now)
	if err != nil {
		return errs.NewDatabaseError("write", "failed to save dashboard document", err)
	}
	return nil
}

func (s *sqliteDocumentStore) Close() error {
	return s.db.Close()
}
