package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cmdsyncerrors "github.com/alexisbeaulieu97/cmdsync/pkg/errors"
)

// Default endpoints and budgets. The platform base URL is overridable for
// tests and self-hosted deployments.
const (
	DefaultAPIURL      = "https://api.chat.example.com/v1"
	DefaultCallTimeout = 30 * time.Second
	DefaultRunTimeout  = 5 * time.Minute
)

// credentialEnvVars lists the environment variables consulted for the
// credential, in precedence order. The latter two are legacy names kept for
// operators migrating from the old scripts.
var credentialEnvVars = []string{"CMDSYNC_TOKEN", "BOT_TOKEN", "DISCORD_TOKEN"}

var apiURLEnvVars = []string{"CMDSYNC_API_URL", "BOT_API_URL"}

// Settings is the fully resolved runtime configuration for one run. It is
// built once at startup and never re-resolved mid-run.
type Settings struct {
	Credential   string
	APIURL       string
	ScopeID      string
	EvidenceDir  string
	CallTimeout  time.Duration
	RunTimeout   time.Duration
	AuthorizeURL string
}

// ResolveSettings merges flag values with the environment, flag winning, and
// validates the result. An empty flag value falls through the environment
// chain in declared precedence order.
func ResolveSettings(flagCredential, flagAPIURL, scopeID, evidenceDir string, callTimeout, runTimeout time.Duration) (*Settings, error) {
	credential := firstNonEmpty(flagCredential, envChain(credentialEnvVars))
	if err := ValidateCredential(credential); err != nil {
		return nil, err
	}

	if strings.TrimSpace(scopeID) == "" {
		return nil, cmdsyncerrors.NewValidationError("scope", "scope id is required", nil)
	}

	apiURL := firstNonEmpty(flagAPIURL, envChain(apiURLEnvVars), DefaultAPIURL)
	apiURL = strings.TrimRight(apiURL, "/")

	if evidenceDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve evidence directory: %w", err)
		}
		evidenceDir = filepath.Join(home, ".cmdsync", "evidence")
	}

	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}

	return &Settings{
		Credential:   credential,
		APIURL:       apiURL,
		ScopeID:      scopeID,
		EvidenceDir:  evidenceDir,
		CallTimeout:  callTimeout,
		RunTimeout:   runTimeout,
		AuthorizeURL: apiURL + "/authorize?scope=" + scopeID,
	}, nil
}

// ValidateCredential checks the credential's surface shape before any
// network call: non-empty, no whitespace, no embedded scheme prefix. The
// transport owns the scheme; a credential carrying one would be sent
// double-prefixed.
func ValidateCredential(credential string) error {
	if credential == "" {
		return cmdsyncerrors.NewValidationError("credential", "credential is required (flag or CMDSYNC_TOKEN)", nil)
	}
	for _, prefix := range []string{"bearer ", "bot ", "token:"} {
		if strings.HasPrefix(strings.ToLower(credential), prefix) {
			return cmdsyncerrors.NewValidationError("credential", fmt.Sprintf("credential must not embed the %q scheme prefix", strings.TrimSpace(prefix)), nil)
		}
	}
	if strings.ContainsAny(credential, " \t\r\n") {
		return cmdsyncerrors.NewValidationError("credential", "credential must not contain whitespace", nil)
	}
	return nil
}

func envChain(names []string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
