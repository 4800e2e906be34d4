package evidence

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/cmdsync/internal/config"
	"github.com/alexisbeaulieu97/cmdsync/internal/model"
	"github.com/alexisbeaulieu97/cmdsync/internal/reconcile"
)

// secretFieldPattern matches field names whose values must never appear in
// evidence unmasked.
var secretFieldPattern = regexp.MustCompile(`(?i)(token|secret|key|password|credential)`)

// secretPairPattern finds key:value or key=value pairs in free-form text so
// values of secret-named fields can be masked even when the exact credential
// is not known.
var secretPairPattern = regexp.MustCompile(`([A-Za-z0-9_.-]+)(["']?\s*[:=]\s*["']?)([^"'\s,}]+)`)

// maskKeep is how many trailing characters survive redaction.
const maskKeep = 4

// Recorder assembles the write-once RunEvidence for a finished run. All
// credential material is redacted during assembly, so no unmasked secret
// ever reaches the record.
type Recorder struct {
	settings *config.Settings
}

// NewRecorder builds a Recorder for the given run settings.
func NewRecorder(settings *config.Settings) *Recorder {
	return &Recorder{settings: settings}
}

// Record builds the evidence for one run result. The returned value is
// never mutated afterwards.
func (r *Recorder) Record(result *reconcile.Result) model.RunEvidence {
	ev := model.RunEvidence{
		RunID:      uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Mode:       string(result.Mode),
		Credential: Mask(r.settings.Credential),
		Scope:      r.settings.ScopeID,
		ScopeName:  result.Membership.ScopeName,
		Plan:       result.Plan.Entries,
		Applied:    result.Applied,
	}

	if result.Principal.ID != "" {
		ev.Principal = result.Principal.DisplayName + " (" + result.Principal.ID + ")"
	}
	if ev.Plan == nil {
		ev.Plan = []model.DiffEntry{}
	}
	if ev.Applied == nil {
		ev.Applied = []model.AppliedResult{}
	}
	ev.Convergence = result.Convergence
	if ev.Convergence.Missing == nil {
		ev.Convergence.Missing = []string{}
	}

	if result.Err != nil {
		ev.FailedStage = result.FailedStage
		ev.FailureInfo = r.scrub(result.Err.Error())
	}

	for _, applied := range result.Applied {
		switch {
		case applied.Status == model.StatusError:
			ev.Summary.Failed++
		case applied.Action == model.ActionCreate:
			ev.Summary.Created++
		case applied.Action == model.ActionUpdate:
			ev.Summary.Updated++
		}
	}
	ev.Summary.Total = len(result.Applied)

	return ev
}

// scrub removes credential material from free-form text, such as error
// messages quoting a request: any occurrence of the raw credential, and the
// value of any secret-named field the text carries.
func (r *Recorder) scrub(text string) string {
	if r.settings.Credential != "" {
		text = strings.ReplaceAll(text, r.settings.Credential, Mask(r.settings.Credential))
	}
	return secretPairPattern.ReplaceAllStringFunc(text, func(pair string) string {
		parts := secretPairPattern.FindStringSubmatch(pair)
		if !SecretField(parts[1]) {
			return pair
		}
		return parts[1] + parts[2] + Mask(parts[3])
	})
}

// SecretField reports whether a field name must be masked in evidence.
func SecretField(name string) bool {
	return secretFieldPattern.MatchString(name)
}

// Mask redacts a value to a fixed-length fingerprint: four mask symbols
// plus the last four characters. Values too short to keep a tail are fully
// masked.
func Mask(value string) string {
	if len(value) <= maskKeep {
		return strings.Repeat("*", maskKeep)
	}
	return strings.Repeat("*", maskKeep) + value[len(value)-maskKeep:]
}
