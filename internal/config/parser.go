package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	cmdsyncerrors "github.com/alexisbeaulieu97/cmdsync/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseManifest loads a manifest file from disk, validates it, and returns
// the resulting model.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cmdsyncerrors.NewValidationError("manifest", fmt.Sprintf("read %s", path), err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		msg := err.Error()
		if line := extractLine(err); line > 0 {
			msg = fmt.Sprintf("%s:%d: %s", path, line, msg)
		}
		return nil, cmdsyncerrors.NewValidationError("manifest", msg, err)
	}

	if err := ValidateManifest(&m); err != nil {
		return nil, err
	}

	return &m, nil
}

// ValidateManifest runs struct validation plus the cross-field rules the
// tags cannot express.
func ValidateManifest(m *Manifest) error {
	if err := validatorInstance().Struct(m); err != nil {
		return convertValidationError(err)
	}

	// Names are the sole matching key against the remote catalog, so the
	// manifest must not declare one twice.
	seen := make(map[string]struct{}, len(m.Commands))
	for i, cmd := range m.Commands {
		if _, dup := seen[cmd.Name]; dup {
			field := fmt.Sprintf("commands[%d].name", i)
			return cmdsyncerrors.NewValidationError(field, fmt.Sprintf("duplicate command name %q", cmd.Name), nil)
		}
		seen[cmd.Name] = struct{}{}
	}

	return nil
}

func convertValidationError(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		first := errs[0]
		return cmdsyncerrors.NewValidationError(first.Namespace(), fmt.Sprintf("failed %q rule", first.Tag()), err)
	}
	return cmdsyncerrors.NewValidationError("", err.Error(), err)
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}

	return line
}
