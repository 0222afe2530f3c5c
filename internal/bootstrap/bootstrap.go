package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/GregMSThompson/finance-dashboard/internal/config"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/store"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// DocumentStore persists the registry document.
type DocumentStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
	Close() error
}

type tokenSource interface {
	GetToken(ctx context.Context) (string, error)
}

type Bootstrap struct {
	Log          *slog.Logger
	Store        DocumentStore
	DefaultToken string
	closers      []func() error
}

func Run(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	var err error
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	ctx = logger.ToContext(ctx, bs.Log)

	bs.Store, err = OpenStore(cfg)
	if err != nil {
		return bs, err
	}
	bs.closers = append(bs.closers, bs.Store.Close)

	var secrets tokenSource
	if cfg.DefaultToken == "" && cfg.DefaultTokenSecret != "" {
		client, err := InitSecretManager(ctx)
		if err != nil {
			return bs, err
		}
		bs.closers = append(bs.closers, client.Close)
		secrets, err = store.NewCredentialSecretStore(client, cfg.DefaultTokenSecret)
		if err != nil {
			return bs, err
		}
	}
	bs.DefaultToken, err = ResolveDefaultToken(ctx, cfg.DefaultToken, secrets)
	if err != nil {
		return bs, err
	}

	return bs, nil
}

// OpenStore opens the configured persistence backend.
func OpenStore(cfg *config.Config) (DocumentStore, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		return store.NewSQLiteDocumentStore(cfg.StoragePath)
	default:
		return store.NewFileDocumentStore(cfg.StoragePath), nil
	}
}

// ResolveDefaultToken prefers the explicit environment credential and falls
// back to the secret store. A missing secret is not fatal.
func ResolveDefaultToken(ctx context.Context, envToken string, secrets tokenSource) (string, error) {
	if envToken != "" || secrets == nil {
		return envToken, nil
	}
	token, err := secrets.GetToken(ctx)
	var nfe *errs.NotFoundError
	if errors.As(err, &nfe) {
		logger.FromContext(ctx).Warn("default credential secret not found, proxy will run without one")
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (b *Bootstrap) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && b.Log != nil {
			b.Log.Error("close failed", "error", err)
		}
	}
	b.closers = nil
}
