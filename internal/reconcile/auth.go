package reconcile

import (
	"context"

	"github.com/alexisbeaulieu97/cmdsync/internal/api"
	"github.com/alexisbeaulieu97/cmdsync/internal/config"
	"github.com/alexisbeaulieu97/cmdsync/internal/logger"
	"github.com/alexisbeaulieu97/cmdsync/internal/model"
)

// AuthVerifier resolves a credential to its principal via the identity
// endpoint. The credential's surface shape is checked before any network
// call so malformed input fails fast with a ValidationError.
type AuthVerifier struct {
	client     *api.Client
	credential string
	log        *logger.Logger
}

// NewAuthVerifier builds an AuthVerifier over the given client.
func NewAuthVerifier(client *api.Client, credential string, log *logger.Logger) *AuthVerifier {
	return &AuthVerifier{
		client:     client,
		credential: credential,
		log:        log.WithComponent("auth"),
	}
}

// Verify validates the credential shape, then calls the identity endpoint.
// 401/403 come back as AuthError; there is no retry on either.
func (a *AuthVerifier) Verify(ctx context.Context) (model.Principal, error) {
	if err := config.ValidateCredential(a.credential); err != nil {
		return model.Principal{}, err
	}

	principal, err := a.client.Identity(ctx)
	if err != nil {
		return model.Principal{}, err
	}

	a.log.WithFields(map[string]any{"principal": principal.ID}).Debug("identity verified")
	return principal, nil
}
