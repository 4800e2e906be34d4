package model

// CommandSpec is the declarative target definition for one command, as
// declared in the manifest. Name is the sole matching key against the
// remote catalog.
type CommandSpec struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Kind        string       `json:"kind"`
	Options     []OptionSpec `json:"options,omitempty"`
}

// OptionSpec describes one parameter a command accepts.
type OptionSpec struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
	Required    bool         `json:"required,omitempty"`
	Choices     []ChoiceSpec `json:"choices,omitempty"`
}

// ChoiceSpec is a fixed value an option may take.
type ChoiceSpec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RemoteCommand is the observed state of one command on the platform.
// ID is platform-assigned and only known after creation.
type RemoteCommand struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Kind        string       `json:"kind"`
	Options     []OptionSpec `json:"options,omitempty"`
}

// Spec returns the declarative projection of the remote record, used when
// comparing observed state against the manifest.
func (r RemoteCommand) Spec() CommandSpec {
	return CommandSpec{
		Name:        r.Name,
		Description: r.Description,
		Kind:        r.Kind,
		Options:     r.Options,
	}
}

// Equal reports whether two specs declare the same command. Options are
// compared deeply, in order; option order is part of the declaration.
func (s CommandSpec) Equal(other CommandSpec) bool {
	if s.Name != other.Name || s.Description != other.Description || s.Kind != other.Kind {
		return false
	}
	if len(s.Options) != len(other.Options) {
		return false
	}
	for i, opt := range s.Options {
		if !opt.equal(other.Options[i]) {
			return false
		}
	}
	return true
}

func (o OptionSpec) equal(other OptionSpec) bool {
	if o.Name != other.Name || o.Description != other.Description ||
		o.Type != other.Type || o.Required != other.Required {
		return false
	}
	if len(o.Choices) != len(other.Choices) {
		return false
	}
	for i, c := range o.Choices {
		if c != other.Choices[i] {
			return false
		}
	}
	return true
}
