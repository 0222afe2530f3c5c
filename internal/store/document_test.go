package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

type documentStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
	Close() error
}

func exerciseDocumentStore(t *testing.T, s documentStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	var nfe *errs.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError on empty store, got %T: %v", err, err)
	}

	first := []byte(`[{"id":"1","type":"summary","title":"A","symbol":"A","refreshInterval":30}]`)
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("save error: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if string(got) != string(first) {
		t.Errorf("load mismatch: got %s", got)
	}

	second := []byte(`[]`)
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("expected overwritten document, got %s", got)
	}
}

func TestFileDocumentStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dashboard.json")
	s := NewFileDocumentStore(path)
	defer s.Close()
	exerciseDocumentStore(t, s)

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the document file, found %d entries", len(entries))
	}
}

func TestSQLiteDocumentStore(t *testing.T) {
	s, err := NewSQLiteDocumentStore(filepath.Join(t.TempDir(), "dashboard.db"))
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	defer s.Close()
	exerciseDocumentStore(t, s)
}

func TestSQLiteDocumentStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.db")
	s, err := NewSQLiteDocumentStore(path)
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	if err := s.Save(context.Background(), []byte(`[{"id":"x"}]`)); err != nil {
		t.Fatalf("save error: %v", err)
	}
	s.Close()

	s2, err := NewSQLiteDocumentStore(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s2.Close()
	got, err := s2.Load(context.Background())
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if string(got) != `[{"id":"x"}]` {
		t.Errorf("unexpected document after reopen: %s", got)
	}
}
