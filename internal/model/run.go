package model

import (
	"time"
)

// Action enumerates the change kinds the planner can emit. There is
// deliberately no delete action: commands present remotely but absent from
// the manifest are never touched.
type Action string

const (
	// ActionCreate plans creation of a command missing from the platform.
	ActionCreate Action = "create"
	// ActionUpdate plans a targeted update of a drifted command.
	ActionUpdate Action = "update"
)

// DiffEntry is one planned change. ExistingID is set only for updates.
type DiffEntry struct {
	Action     Action      `json:"action"`
	Spec       CommandSpec `json:"spec"`
	ExistingID string      `json:"existing_id,omitempty"`
	// Detail is an optional human-readable rendering of what drifted.
	Detail string `json:"detail,omitempty"`
}

// Plan is the ordered change set for one run. Order follows the manifest so
// retries replay deterministically.
type Plan struct {
	Entries []DiffEntry `json:"entries"`
}

// Empty reports whether the platform already matches the manifest.
func (p Plan) Empty() bool {
	return len(p.Entries) == 0
}

// Counts returns the number of planned creates and updates.
func (p Plan) Counts() (creates, updates int) {
	for _, e := range p.Entries {
		switch e.Action {
		case ActionCreate:
			creates++
		case ActionUpdate:
			updates++
		}
	}
	return creates, updates
}

// ApplyStatus is the per-entry outcome of an apply attempt.
type ApplyStatus string

const (
	// StatusOK marks a successfully applied entry.
	StatusOK ApplyStatus = "ok"
	// StatusError marks an entry whose apply call failed; the run continues.
	StatusError ApplyStatus = "error"
)

// AppliedResult records the outcome of applying one DiffEntry.
type AppliedResult struct {
	Name     string        `json:"name"`
	Action   Action        `json:"action"`
	Status   ApplyStatus   `json:"status"`
	RemoteID string        `json:"remote_id,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Stage names the reconciler's pipeline phases. Failures before StageApply
// abort the run; failures inside it are isolated per entry.
type Stage string

const (
	StageInit       Stage = "init"
	StageAuth       Stage = "auth"
	StageMembership Stage = "membership"
	StageEnumerate  Stage = "enumerate"
	StagePlan       Stage = "plan"
	StageApply      Stage = "apply"
	StageVerify     Stage = "verify"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Principal identifies the authenticated caller.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Membership is the outcome of the scope access check. When Member is
// false, AuthorizeURL carries the concrete remediation action.
type Membership struct {
	Member       bool   `json:"member"`
	ScopeName    string `json:"scope_name,omitempty"`
	AuthorizeURL string `json:"authorize_url,omitempty"`
}

// Convergence reports desired names still absent after apply.
type Convergence struct {
	Missing []string `json:"missing"`
}

// Summary aggregates a run's applied results.
type Summary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// RunEvidence is the write-once record of one reconciliation run. All
// credential material inside it is redacted before it is built.
type RunEvidence struct {
	RunID       string          `json:"run_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Mode        string          `json:"mode"`
	Principal   string          `json:"principal"`
	Credential  string          `json:"credential"`
	Scope       string          `json:"scope"`
	ScopeName   string          `json:"scope_name,omitempty"`
	FailedStage Stage           `json:"failed_stage,omitempty"`
	FailureInfo string          `json:"failure,omitempty"`
	Plan        []DiffEntry     `json:"plan"`
	Applied     []AppliedResult `json:"applied"`
	Convergence Convergence     `json:"convergence"`
	Summary     Summary         `json:"summary"`
}
