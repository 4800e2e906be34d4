package reconcile

import (
	"context"

	"github.com/alexisbeaulieu97/cmdsync/internal/api"
	"github.com/alexisbeaulieu97/cmdsync/internal/logger"
	"github.com/alexisbeaulieu97/cmdsync/internal/model"
	cmdsyncerrors "github.com/alexisbeaulieu97/cmdsync/pkg/errors"
)

// MembershipChecker confirms the principal can reach the target scope
// before any mutation is attempted.
type MembershipChecker struct {
	client       *api.Client
	authorizeURL string
	log          *logger.Logger
}

// NewMembershipChecker builds a MembershipChecker. authorizeURL is the
// remediation link handed to the operator when membership is missing.
func NewMembershipChecker(client *api.Client, authorizeURL string, log *logger.Logger) *MembershipChecker {
	return &MembershipChecker{
		client:       client,
		authorizeURL: authorizeURL,
		log:          log.WithComponent("membership"),
	}
}

// Verify looks the scope up in the principal's reachable set. A missing
// scope is a clean negative result carrying the authorization URL, not an
// error; only a failed lookup returns MembershipError.
func (m *MembershipChecker) Verify(ctx context.Context, scopeID string) (model.Membership, error) {
	scopes, err := m.client.Scopes(ctx)
	if err != nil {
		return model.Membership{}, cmdsyncerrors.NewMembershipError(scopeID, err)
	}

	for _, scope := range scopes {
		if scope.ID == scopeID {
			m.log.WithFields(map[string]any{"scope": scopeID, "name": scope.Name}).Debug("membership confirmed")
			return model.Membership{Member: true, ScopeName: scope.Name}, nil
		}
	}

	return model.Membership{Member: false, AuthorizeURL: m.authorizeURL}, nil
}
