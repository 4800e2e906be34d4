package reconcile

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/cmdsync/internal/api"
	"github.com/alexisbeaulieu97/cmdsync/internal/logger"
	"github.com/alexisbeaulieu97/cmdsync/internal/model"
)

// interOpPause is the fixed delay inserted between apply operations, a
// politeness throttle independent of 429 handling.
const interOpPause = 200 * time.Millisecond

// Upserter applies a plan strictly sequentially through the rate-limited
// transport. Per-entry failures are recorded and the loop continues; the
// upserter never issues a delete or bulk replace.
type Upserter struct {
	client *api.Client
	log    *logger.Logger
	pause  time.Duration

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewUpserter builds an Upserter over the given client.
func NewUpserter(client *api.Client, log *logger.Logger) *Upserter {
	return &Upserter{
		client: client,
		log:    log.WithComponent("upserter"),
		pause:  interOpPause,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
}

// Apply executes every plan entry in order and returns one result per
// entry. An entry's error never aborts the remaining entries; only context
// cancellation stops the loop early, and even then results for processed
// entries are returned.
func (u *Upserter) Apply(ctx context.Context, scopeID string, plan model.Plan) []model.AppliedResult {
	results := make([]model.AppliedResult, 0, len(plan.Entries))

	for i, entry := range plan.Entries {
		if i > 0 {
			if err := u.sleep(ctx, u.pause); err != nil {
				return results
			}
		}

		start := time.Now()
		result := model.AppliedResult{Name: entry.Spec.Name, Action: entry.Action}

		var remote model.RemoteCommand
		var err error
		switch entry.Action {
		case model.ActionCreate:
			remote, err = u.client.CreateCommand(ctx, scopeID, entry.Spec)
		case model.ActionUpdate:
			remote, err = u.client.UpdateCommand(ctx, scopeID, entry.ExistingID, entry.Spec)
		}

		result.Duration = time.Since(start)
		if err != nil {
			result.Status = model.StatusError
			result.Error = err.Error()
			u.log.WithFields(map[string]any{"name": entry.Spec.Name, "action": entry.Action}).Error(err, "apply failed, continuing")
		} else {
			result.Status = model.StatusOK
			result.RemoteID = remote.ID
			u.log.WithFields(map[string]any{"name": entry.Spec.Name, "action": entry.Action, "id": remote.ID}).Info("applied")
		}

		results = append(results, result)
		if ctx.Err() != nil {
			return results
		}
	}

	return results
}
