package config

import (
	"github.com/alexisbeaulieu97/cmdsync/internal/model"
)

// Manifest represents the full declarative command catalog document.
type Manifest struct {
	Version  string    `yaml:"version" validate:"required,semver"`
	Scope    string    `yaml:"scope,omitempty"`
	Commands []Command `yaml:"commands" validate:"required,min=1,dive"`
}

// Command declares one command the platform should expose.
type Command struct {
	Name        string   `yaml:"name" validate:"required,command_name"`
	Description string   `yaml:"description" validate:"required,min=1,max=100"`
	Kind        string   `yaml:"kind,omitempty" validate:"omitempty,oneof=chat user message"`
	Options     []Option `yaml:"options,omitempty" validate:"omitempty,max=25,dive"`
}

// Option declares one parameter of a command.
type Option struct {
	Name        string   `yaml:"name" validate:"required,command_name"`
	Description string   `yaml:"description" validate:"required,min=1,max=100"`
	Type        string   `yaml:"type" validate:"required,oneof=string integer number boolean"`
	Required    bool     `yaml:"required,omitempty"`
	Choices     []Choice `yaml:"choices,omitempty" validate:"omitempty,max=25,dive"`
}

// Choice declares a fixed value an option accepts.
type Choice struct {
	Name  string `yaml:"name" validate:"required,min=1,max=100"`
	Value string `yaml:"value" validate:"required,min=1,max=100"`
}

// Specs converts the manifest into the engine's spec slice, preserving
// declaration order. Unset kinds default to chat commands.
func (m *Manifest) Specs() []model.CommandSpec {
	specs := make([]model.CommandSpec, 0, len(m.Commands))
	for _, cmd := range m.Commands {
		kind := cmd.Kind
		if kind == "" {
			kind = "chat"
		}
		spec := model.CommandSpec{
			Name:        cmd.Name,
			Description: cmd.Description,
			Kind:        kind,
		}
		for _, opt := range cmd.Options {
			optSpec := model.OptionSpec{
				Name:        opt.Name,
				Description: opt.Description,
				Type:        opt.Type,
				Required:    opt.Required,
			}
			for _, choice := range opt.Choices {
				optSpec.Choices = append(optSpec.Choices, model.ChoiceSpec{
					Name:  choice.Name,
					Value: choice.Value,
				})
			}
			spec.Options = append(spec.Options, optSpec)
		}
		specs = append(specs, spec)
	}
	return specs
}
