package evidence

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/cmdsync/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")) // yellow
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

// Render produces the human-readable report for a run. When styled is
// false the output is plain text, suitable for the persisted .txt artifact
// and for non-terminal stdout.
func Render(ev model.RunEvidence, styled bool) string {
	paint := func(style lipgloss.Style, s string) string {
		if !styled {
			return s
		}
		return style.Render(s)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", paint(headerStyle, fmt.Sprintf("Reconciliation run %s (%s)", ev.RunID, ev.Mode)))
	fmt.Fprintf(&b, "  time:       %s\n", ev.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "  principal:  %s\n", valueOr(ev.Principal, "-"))
	fmt.Fprintf(&b, "  credential: %s\n", ev.Credential)
	fmt.Fprintf(&b, "  scope:      %s\n", scopeLine(ev))

	if ev.FailedStage != "" {
		fmt.Fprintf(&b, "\n%s %s: %s\n", paint(failStyle, "FAILED at stage"), ev.FailedStage, ev.FailureInfo)
	}

	if len(ev.Plan) > 0 {
		fmt.Fprintf(&b, "\n%s\n", paint(headerStyle, "Plan"))
		for _, entry := range ev.Plan {
			marker := paint(okStyle, "+")
			if entry.Action == model.ActionUpdate {
				marker = paint(warnStyle, "~")
			}
			fmt.Fprintf(&b, "  %s %s %s\n", marker, entry.Action, entry.Spec.Name)
			if entry.Detail != "" {
				for _, line := range strings.Split(entry.Detail, "\n") {
					fmt.Fprintf(&b, "      %s\n", paint(dimStyle, line))
				}
			}
		}
	} else if ev.FailedStage == "" {
		fmt.Fprintf(&b, "\n%s\n", paint(okStyle, "No changes needed"))
	}

	if len(ev.Applied) > 0 {
		fmt.Fprintf(&b, "\n%s\n", paint(headerStyle, "Applied"))
		for _, applied := range ev.Applied {
			if applied.Status == model.StatusOK {
				fmt.Fprintf(&b, "  %s %s %s (id %s)\n", paint(okStyle, "ok"), applied.Action, applied.Name, applied.RemoteID)
			} else {
				fmt.Fprintf(&b, "  %s %s %s: %s\n", paint(failStyle, "error"), applied.Action, applied.Name, applied.Error)
			}
		}
	}

	if len(ev.Convergence.Missing) > 0 {
		fmt.Fprintf(&b, "\n%s %s\n", paint(warnStyle, "Missing after run:"), strings.Join(ev.Convergence.Missing, ", "))
	}

	fmt.Fprintf(&b, "\nSummary: %d created, %d updated, %d failed (%d applied)\n",
		ev.Summary.Created, ev.Summary.Updated, ev.Summary.Failed, ev.Summary.Total)

	return b.String()
}

func scopeLine(ev model.RunEvidence) string {
	if ev.ScopeName != "" {
		return fmt.Sprintf("%s (%s)", ev.ScopeName, ev.Scope)
	}
	return ev.Scope
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
