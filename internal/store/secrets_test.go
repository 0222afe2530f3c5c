package store

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/helpers"
)

type fakeSecretClient struct {
	exists   bool
	versions [][]byte
	created  *secretmanagerpb.CreateSecretRequest
	lastName string
}

func (f *fakeSecretClient) GetSecret(_ context.Context, req *secretmanagerpb.GetSecretRequest, _ ...gax.CallOption) (*secretmanagerpb.Secret, error) {
	if !f.exists {
		return nil, status.Error(codes.NotFound, "no secret")
	}
	return &secretmanagerpb.Secret{Name: req.GetName()}, nil
}

func (f *fakeSecretClient) CreateSecret(_ context.Context, req *secretmanagerpb.CreateSecretRequest, _ ...gax.CallOption) (*secretmanagerpb.Secret, error) {
	f.created = req
	f.exists = true
	return &secretmanagerpb.Secret{}, nil
}

func (f *fakeSecretClient) AddSecretVersion(_ context.Context, req *secretmanagerpb.AddSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.SecretVersion, error) {
	f.versions = append(f.versions, req.GetPayload().GetData())
	return &secretmanagerpb.SecretVersion{}, nil
}

func (f *fakeSecretClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.lastName = req.GetName()
	if len(f.versions) == 0 {
		return nil, status.Error(codes.NotFound, "no versions")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: f.versions[len(f.versions)-1]},
	}, nil
}

const testSecret = "projects/p1/secrets/finance-api-key"

func TestCredentialSecretStore_RoundTrip(t *testing.T) {
	ctx := helpers.TestCtx()
	client := &fakeSecretClient{}
	s, err := NewCredentialSecretStore(client, testSecret)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.StoreToken(ctx, "tok-1"); err != nil {
		t.Fatalf("StoreToken: %v", err)
	}
	if client.created == nil || client.created.GetParent() != "projects/p1" || client.created.GetSecretId() != "finance-api-key" {
		t.Fatalf("secret not created as expected: %+v", client.created)
	}

	got, err := s.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if got != "tok-1" {
		t.Errorf("token = %q", got)
	}
	if client.lastName != testSecret+"/versions/latest" {
		t.Errorf("accessed %q", client.lastName)
	}
}

func TestCredentialSecretStore_Missing(t *testing.T) {
	s, _ := NewCredentialSecretStore(&fakeSecretClient{}, testSecret)

	_, err := s.GetToken(helpers.TestCtx())

	var nfe *errs.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestNewCredentialSecretStore_BadName(t *testing.T) {
	for _, name := range []string{"", "finance-api-key", "projects/p1/keys/x", "projects//secrets/x"} {
		if _, err := NewCredentialSecretStore(&fakeSecretClient{}, name); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}
