package reconcile

import (
	"context"
	"errors"

	"github.com/alexisbeaulieu97/cmdsync/internal/api"
	"github.com/alexisbeaulieu97/cmdsync/internal/config"
	"github.com/alexisbeaulieu97/cmdsync/internal/logger"
	"github.com/alexisbeaulieu97/cmdsync/internal/model"
	cmdsyncerrors "github.com/alexisbeaulieu97/cmdsync/pkg/errors"
)

// Mode selects how far the pipeline runs.
type Mode string

const (
	// ModeCheck stops after planning; read-only.
	ModeCheck Mode = "check"
	// ModeApply runs the full pipeline through upsert and convergence.
	ModeApply Mode = "apply"
)

// Exit codes for the CLI contract.
const (
	ExitConverged  = 0
	ExitFatal      = 1
	ExitMembership = 2
	ExitIncomplete = 3
)

// Result is the complete outcome of one reconciliation run, consumed by the
// evidence recorder and the CLI exit-code mapping.
type Result struct {
	Mode        Mode
	Stage       model.Stage
	FailedStage model.Stage
	Err         error
	Principal   model.Principal
	Membership  model.Membership
	Plan        model.Plan
	Applied     []model.AppliedResult
	Convergence model.Convergence
}

// ExitCode maps the result onto the CLI contract: 0 converged, 1 fatal
// pre-apply failure (no mutation attempted), 2 membership missing, 3
// convergence incomplete, unverified, or changes pending in check mode.
func (r *Result) ExitCode() int {
	if r.Err != nil {
		if r.FailedStage == model.StageVerify {
			// Mutations already happened; the run is unverified, not aborted.
			return ExitIncomplete
		}
		return ExitFatal
	}
	if !r.Membership.Member {
		return ExitMembership
	}
	if r.Mode == ModeCheck {
		if r.Plan.Empty() {
			return ExitConverged
		}
		return ExitIncomplete
	}
	if len(r.Convergence.Missing) > 0 {
		return ExitIncomplete
	}
	for _, applied := range r.Applied {
		if applied.Status == model.StatusError {
			return ExitIncomplete
		}
	}
	return ExitConverged
}

// Runner owns one run's pipeline: transport, client, and every stage. A
// fresh Runner per run means no hidden state is shared across scopes or
// test runs.
type Runner struct {
	settings   *config.Settings
	log        *logger.Logger
	client     *api.Client
	auth       *AuthVerifier
	membership *MembershipChecker
	planner    *Planner
	upserter   *Upserter
	verifier   *ConvergenceVerifier
}

// NewRunner wires a Runner from resolved settings.
func NewRunner(settings *config.Settings, log *logger.Logger) *Runner {
	transport := api.NewTransport(settings.Credential, settings.CallTimeout, log)
	client := api.NewClient(settings.APIURL, transport)
	return NewRunnerWithClient(settings, client, log)
}

// NewRunnerWithClient wires a Runner over an existing client. Tests use
// this to point the pipeline at a stub server.
func NewRunnerWithClient(settings *config.Settings, client *api.Client, log *logger.Logger) *Runner {
	return &Runner{
		settings:   settings,
		log:        log.WithComponent("runner"),
		client:     client,
		auth:       NewAuthVerifier(client, settings.Credential, log),
		membership: NewMembershipChecker(client, settings.AuthorizeURL, log),
		planner:    NewPlanner(log),
		upserter:   NewUpserter(client, log),
		verifier:   NewConvergenceVerifier(client, log),
	}
}

// Run executes the pipeline: auth → membership → enumerate → plan, then in
// apply mode upsert → verify. Any failure before apply is terminal; apply
// itself never aborts the run, so an apply-mode run that reaches planning
// always produces convergence results and evidence.
func (r *Runner) Run(ctx context.Context, mode Mode, desired []model.CommandSpec) *Result {
	ctx, cancel := context.WithTimeout(ctx, r.settings.RunTimeout)
	defer cancel()

	result := &Result{Mode: mode, Stage: model.StageInit}

	principal, err := r.auth.Verify(ctx)
	if err != nil {
		return r.fail(result, model.StageAuth, err)
	}
	result.Principal = principal
	result.Stage = model.StageAuth

	membership, err := r.membership.Verify(ctx, r.settings.ScopeID)
	if err != nil {
		return r.fail(result, model.StageMembership, err)
	}
	result.Membership = membership
	result.Stage = model.StageMembership
	if !membership.Member {
		// Clean negative: the operator gets the authorization URL, not an
		// error. No further stage runs.
		r.log.WithFields(map[string]any{
			"scope":     r.settings.ScopeID,
			"authorize": membership.AuthorizeURL,
		}).Warn("principal is not a member of the target scope")
		result.Stage = model.StageDone
		return result
	}

	remote, err := r.client.ListCommands(ctx, r.settings.ScopeID)
	if err != nil {
		return r.fail(result, model.StageEnumerate, err)
	}
	result.Stage = model.StageEnumerate

	result.Plan = r.planner.Diff(desired, remote)
	result.Stage = model.StagePlan
	creates, updates := result.Plan.Counts()
	r.log.WithFields(map[string]any{
		"creates":   creates,
		"updates":   updates,
		"converged": len(desired) - len(result.Plan.Entries),
	}).Info("plan computed")

	if mode == ModeCheck {
		result.Convergence = checkModeConvergence(result.Plan)
		result.Stage = model.StageDone
		return result
	}

	result.Stage = model.StageApply
	result.Applied = r.upserter.Apply(ctx, r.settings.ScopeID, result.Plan)

	convergence, err := r.verifier.Verify(ctx, r.settings.ScopeID, desired, result.Applied)
	if err != nil {
		// The mutations already happened; record what we know rather than
		// discarding the applied results.
		return r.fail(result, model.StageVerify, err)
	}
	result.Convergence = convergence
	result.Stage = model.StageDone
	return result
}

func (r *Runner) fail(result *Result, stage model.Stage, err error) *Result {
	result.Stage = model.StageFailed
	result.FailedStage = stage
	result.Err = err
	r.log.WithFields(map[string]any{"stage": stage}).Error(err, "run failed")
	return result
}

// checkModeConvergence reports the names a check-only run found absent
// remotely; drifted-but-present names are surfaced by the plan itself.
func checkModeConvergence(plan model.Plan) model.Convergence {
	missing := []string{}
	for _, entry := range plan.Entries {
		if entry.Action == model.ActionCreate {
			missing = append(missing, entry.Spec.Name)
		}
	}
	return model.Convergence{Missing: missing}
}

// IsFatalPreApply reports whether the error class aborts a run before any
// mutation. Used by tests for exit-code assertions.
func IsFatalPreApply(err error) bool {
	var validationErr *cmdsyncerrors.ValidationError
	var authErr *cmdsyncerrors.AuthError
	var membershipErr *cmdsyncerrors.MembershipError
	return errors.As(err, &validationErr) || errors.As(err, &authErr) || errors.As(err, &membershipErr)
}
