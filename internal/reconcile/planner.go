package reconcile

import (
	"strings"

	"github.com/alexisbeaulieu97/cmdsync/internal/logger"
	"github.com/alexisbeaulieu97/cmdsync/internal/model"
	"github.com/alexisbeaulieu97/cmdsync/pkg/diff"
)

// Planner computes the minimal create/update plan from desired versus
// observed state. It never plans deletions: remote commands absent from the
// manifest are left untouched.
type Planner struct {
	log *logger.Logger
}

// NewPlanner builds a Planner.
func NewPlanner(log *logger.Logger) *Planner {
	return &Planner{log: log.WithComponent("planner")}
}

// Diff matches desired specs to remote records by name. Entries follow
// manifest order so a retried run replays the same sequence. Converged
// commands produce no entry.
func (p *Planner) Diff(desired []model.CommandSpec, actual []model.RemoteCommand) model.Plan {
	byName := make(map[string]model.RemoteCommand, len(actual))
	for _, record := range actual {
		if existing, dup := byName[record.Name]; dup {
			// The platform should never hand back two records sharing a
			// name. First in enumeration order wins.
			p.log.WithFields(map[string]any{
				"name":       record.Name,
				"kept_id":    existing.ID,
				"ignored_id": record.ID,
			}).Warn("duplicate remote command name, keeping first occurrence")
			continue
		}
		byName[record.Name] = record
	}

	var entries []model.DiffEntry
	for _, spec := range desired {
		record, exists := byName[spec.Name]
		if !exists {
			entries = append(entries, model.DiffEntry{Action: model.ActionCreate, Spec: spec})
			continue
		}
		if spec.Equal(record.Spec()) {
			continue
		}
		entries = append(entries, model.DiffEntry{
			Action:     model.ActionUpdate,
			Spec:       spec,
			ExistingID: record.ID,
			Detail:     describeDrift(spec, record.Spec()),
		})
	}

	return model.Plan{Entries: entries}
}

// describeDrift renders which declared fields drifted, one line per field.
func describeDrift(desired, actual model.CommandSpec) string {
	var lines []string
	if line := diff.Field("description", actual.Description, desired.Description); line != "" {
		lines = append(lines, line)
	}
	if line := diff.Field("kind", actual.Kind, desired.Kind); line != "" {
		lines = append(lines, line)
	}
	if line := diff.Field("options", renderOptions(actual.Options), renderOptions(desired.Options)); line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderOptions(options []model.OptionSpec) string {
	var b strings.Builder
	for i, opt := range options {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(opt.Name)
		b.WriteString("(")
		b.WriteString(opt.Type)
		if opt.Required {
			b.WriteString(", required")
		}
		b.WriteString(")")
	}
	return b.String()
}
