package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandSpecEqual(t *testing.T) {
	t.Parallel()

	base := CommandSpec{
		Name:        "status",
		Description: "Show status",
		Kind:        "chat",
		Options: []OptionSpec{
			{Name: "env", Description: "Environment", Type: "string", Required: true,
				Choices: []ChoiceSpec{{Name: "Prod", Value: "prod"}}},
		},
	}

	cases := []struct {
		name   string
		mutate func(s CommandSpec) CommandSpec
		equal  bool
	}{
		{name: "identical", mutate: func(s CommandSpec) CommandSpec { return s }, equal: true},
		{name: "different description", mutate: func(s CommandSpec) CommandSpec { s.Description = "Other"; return s }},
		{name: "different kind", mutate: func(s CommandSpec) CommandSpec { s.Kind = "user"; return s }},
		{name: "missing option", mutate: func(s CommandSpec) CommandSpec { s.Options = nil; return s }},
		{name: "different option requiredness", mutate: func(s CommandSpec) CommandSpec {
			opts := append([]OptionSpec(nil), s.Options...)
			opts[0].Required = false
			s.Options = opts
			return s
		}},
		{name: "different choice value", mutate: func(s CommandSpec) CommandSpec {
			opts := append([]OptionSpec(nil), s.Options...)
			opts[0].Choices = []ChoiceSpec{{Name: "Prod", Value: "production"}}
			s.Options = opts
			return s
		}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			other := tc.mutate(base)
			require.Equal(t, tc.equal, base.Equal(other))
		})
	}
}

func TestRemoteCommandSpecProjection(t *testing.T) {
	t.Parallel()

	remote := RemoteCommand{
		ID:          "cmd-9",
		Name:        "status",
		Description: "Show status",
		Kind:        "chat",
	}

	spec := remote.Spec()
	require.Equal(t, "status", spec.Name)
	require.True(t, spec.Equal(CommandSpec{Name: "status", Description: "Show status", Kind: "chat"}))
}

func TestPlanCounts(t *testing.T) {
	t.Parallel()

	plan := Plan{Entries: []DiffEntry{
		{Action: ActionCreate, Spec: CommandSpec{Name: "a"}},
		{Action: ActionUpdate, Spec: CommandSpec{Name: "b"}, ExistingID: "id-b"},
		{Action: ActionCreate, Spec: CommandSpec{Name: "c"}},
	}}

	creates, updates := plan.Counts()
	require.Equal(t, 2, creates)
	require.Equal(t, 1, updates)
	require.False(t, plan.Empty())
	require.True(t, Plan{}.Empty())
}
