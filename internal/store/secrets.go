package store

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

// Secret path
// projects/{project}/secrets/{secret}

type secretClient interface {
	GetSecret(ctx context.Context, req *secretmanagerpb.GetSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
	CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
	AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.SecretVersion, error)
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// credentialSecretStore keeps the process-wide default data source
// credential in Secret Manager.
type credentialSecretStore struct {
	client secretClient
	name   string
}

func NewCredentialSecretStore(client secretClient, name string) (*credentialSecretStore, error) {
	if _, _, ok := splitSecretName(name); !ok {
		return nil, errs.NewValidationError(fmt.Sprintf("secret name %q must look like projects/{project}/secrets/{secret}", name))
	}
	return &credentialSecretStore{client: client, name: name}, nil
}

func splitSecretName(name string) (parent, id string, ok bool) {
	parts := strings.Split(name, "/")
	if len(parts) != 4 || parts[0] != "projects" || parts[2] != "secrets" || parts[1] == "" || parts[3] == "" {
		return "", "", false
	}
	return "projects/" + parts[1], parts[3], true
}

func (s *credentialSecretStore) ensureSecret(ctx context.Context) error {
	_, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: s.name})
	if status.Code(err) == codes.NotFound {
		parent, id, _ := splitSecretName(s.name)
		_, err = s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
			Parent:   parent,
			SecretId: id,
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{Automatic: &secretmanagerpb.Replication_Automatic{}},
				},
			},
		})
	}
	return err
}

func (s *credentialSecretStore) StoreToken(ctx context.Context, token string) error {
	if err := s.ensureSecret(ctx); err != nil {
		return errs.NewExternalServiceError("secretmanager", "failed to prepare credential secret", true, err)
	}
	_, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.name,
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(token),
		},
	})
	if err != nil {
		return errs.NewExternalServiceError("secretmanager", "failed to store credential", true, err)
	}
	return nil
}

func (s *credentialSecretStore) GetToken(ctx context.Context) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.name + "/versions/latest",
	})
	if status.Code(err) == codes.NotFound {
		return "", errs.NewNotFoundError("credential secret not found")
	}
	if err != nil {
		return "", errs.NewExternalServiceError("secretmanager", "failed to read credential", true, err)
	}
	return string(res.GetPayload().GetData()), nil
}
