package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/GregMSThompson/finance-dashboard/internal/bootstrap"
	"github.com/GregMSThompson/finance-dashboard/internal/config"
	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/internal/services"
	"github.com/GregMSThompson/finance-dashboard/internal/store"
)

type registry interface {
	List(ctx context.Context) []models.Widget
	Get(ctx context.Context, id string) (models.Widget, bool)
	AddWidget(ctx context.Context, req dto.CreateWidgetRequest) (models.Widget, error)
	Remove(ctx context.Context, id string) (bool, error)
	UpdateWidget(ctx context.Context, id string, patch dto.WidgetPatch) (models.Widget, error)
	MoveWidget(ctx context.Context, id string, to int) error
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, doc []byte) error
}

type credentialStore interface {
	GetToken(ctx context.Context) (string, error)
	StoreToken(ctx context.Context, token string) error
}

// app carries what every subcommand needs. As a CLI it lives for a single
// command, so opening the store per command is fine.
type app struct {
	out io.Writer
	cfg *config.Config

	// secretsFn replaces the Secret Manager backed credential store when set.
	secretsFn func(ctx context.Context) (credentialStore, func(), error)
}

// openSecrets opens the credential secret named by FINANCEAPIKEYSECRET.
func (a *app) openSecrets(ctx context.Context) (credentialStore, func(), error) {
	if a.secretsFn != nil {
		return a.secretsFn(ctx)
	}
	client, err := bootstrap.InitSecretManager(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("creating Secret Manager client: %w", err)
	}
	secrets, err := store.NewCredentialSecretStore(client, a.cfg.DefaultTokenSecret)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return secrets, func() { client.Close() }, nil
}

// defaultToken resolves the fallback upstream credential the way the server
// does: the environment first, then the configured secret.
func (a *app) defaultToken(ctx context.Context) (string, error) {
	if a.cfg.DefaultToken != "" || a.cfg.DefaultTokenSecret == "" {
		return a.cfg.DefaultToken, nil
	}
	secrets, closeFn, err := a.openSecrets(ctx)
	if err != nil {
		return "", err
	}
	defer closeFn()
	return bootstrap.ResolveDefaultToken(ctx, "", secrets)
}

func (a *app) openRegistry(ctx context.Context) (registry, func(), error) {
	st, err := bootstrap.OpenStore(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	seeds := services.DefaultSeeds()
	if len(a.cfg.Seeds) > 0 {
		seeds = a.cfg.Seeds
	}
	reg, err := services.NewRegistryService(ctx, st, seeds)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return reg, func() { st.Close() }, nil
}

// withRegistry opens the registry, runs fn and maps its error to an exit status.
func (a *app) withRegistry(ctx context.Context, fn func(registry) error) subcommands.ExitStatus {
	reg, closeFn, err := a.openRegistry(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening dashboard: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := fn(reg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
