package reconcile

import (
	"context"

	"github.com/alexisbeaulieu97/cmdsync/internal/api"
	"github.com/alexisbeaulieu97/cmdsync/internal/logger"
	"github.com/alexisbeaulieu97/cmdsync/internal/model"
)

// ConvergenceVerifier re-enumerates the scope after apply and reports every
// desired name still absent. A non-empty result is not fatal; the caller
// surfaces it through the exit code and evidence.
type ConvergenceVerifier struct {
	client *api.Client
	log    *logger.Logger
}

// NewConvergenceVerifier builds a ConvergenceVerifier.
func NewConvergenceVerifier(client *api.Client, log *logger.Logger) *ConvergenceVerifier {
	return &ConvergenceVerifier{client: client, log: log.WithComponent("verifier")}
}

// Verify refreshes the remote set and returns desired names present in
// neither the refreshed listing nor the successful applied results. The
// applied results cover the platform's eventual consistency window: a
// create the platform acknowledged counts as present even if the listing
// has not caught up yet.
func (v *ConvergenceVerifier) Verify(ctx context.Context, scopeID string, desired []model.CommandSpec, applied []model.AppliedResult) (model.Convergence, error) {
	remote, err := v.client.ListCommands(ctx, scopeID)
	if err != nil {
		return model.Convergence{}, err
	}

	present := make(map[string]struct{}, len(remote)+len(applied))
	for _, record := range remote {
		present[record.Name] = struct{}{}
	}
	for _, result := range applied {
		if result.Status == model.StatusOK {
			present[result.Name] = struct{}{}
		}
	}

	missing := []string{}
	for _, spec := range desired {
		if _, ok := present[spec.Name]; !ok {
			missing = append(missing, spec.Name)
		}
	}

	if len(missing) > 0 {
		v.log.WithFields(map[string]any{"missing": missing}).Warn("convergence incomplete")
	}
	return model.Convergence{Missing: missing}, nil
}
