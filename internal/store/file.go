package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// fileDocumentStore keeps the registry document as a single JSON file.
// Writes go to a temp file in the same directory and are renamed into place.
type fileDocumentStore struct {
	path string
}

func NewFileDocumentStore(path string) *fileDocumentStore {
	return &fileDocumentStore{path: path}
}

func (s *fileDocumentStore) Load(ctx context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NewNotFoundError("dashboard document not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to read dashboard document", err)
	}
	logger.FromContext(ctx).Debug("dashboard document loaded", "path", s.path, "bytes", len(b))
	return b, nil
}

func (s *fileDocumentStore) Save(ctx context.Context, doc []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.NewDatabaseError("write", "failed to create dashboard directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errs.NewDatabaseError("write", "failed to create temp document", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errs.NewDatabaseError("write", "failed to write dashboard document", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errs.NewDatabaseError("write", "failed to sync dashboard document", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errs.NewDatabaseError("write", "failed to close dashboard document", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errs.NewDatabaseError("write", "failed to replace dashboard document", err)
	}

	logger.FromContext(ctx).Debug("dashboard document saved", "path", s.path, "bytes", len(doc))
	return nil
}

func (s *fileDocumentStore) Close() error { return nil }
