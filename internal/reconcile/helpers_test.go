package reconcile

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/cmdsync/internal/api"
	"github.com/alexisbeaulieu97/cmdsync/internal/config"
	"github.com/alexisbeaulieu97/cmdsync/internal/logger"
	"github.com/alexisbeaulieu97/cmdsync/internal/model"
)

// stubPlatform is an in-memory platform API for pipeline tests. It tracks
// per-route call counts so tests can assert which stages ran.
type stubPlatform struct {
	mu sync.Mutex

	principal      model.Principal
	identityStatus int
	scopesStatus   int
	scopes         []api.Scope
	commands       []model.RemoteCommand
	nextID         int

	// failCreate maps command names to an HTTP status their create call
	// returns instead of succeeding.
	failCreate map[string]int
	// rateLimitOnce holds names whose first create receives a 429 with the
	// given Retry-After seconds.
	rateLimitOnce map[string]int
	rateLimited   map[string]bool
	// listFailFrom makes the Nth and later list calls return a 503.
	listFailFrom int

	calls map[string]int

	srv *httptest.Server
}

func newStubPlatform(t *testing.T) *stubPlatform {
	t.Helper()

	s := &stubPlatform{
		principal:     model.Principal{ID: "bot-1", DisplayName: "deploy-bot"},
		scopes:        []api.Scope{{ID: "scope-1", Name: "deploys"}},
		failCreate:    map[string]int{},
		rateLimitOnce: map[string]int{},
		rateLimited:   map[string]bool{},
		calls:         map[string]int{},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *stubPlatform) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/identity":
		s.calls["identity"]++
		if s.identityStatus != 0 {
			w.WriteHeader(s.identityStatus)
			w.Write([]byte(`{"error":"denied"}`))
			return
		}
		json.NewEncoder(w).Encode(s.principal)

	case path == "/principal/scopes":
		s.calls["scopes"]++
		if s.scopesStatus != 0 {
			w.WriteHeader(s.scopesStatus)
			w.Write([]byte(`{"error":"unavailable"}`))
			return
		}
		json.NewEncoder(w).Encode(s.scopes)

	case strings.HasSuffix(path, "/resources") && r.Method == http.MethodGet:
		s.calls["list"]++
		if s.listFailFrom > 0 && s.calls["list"] >= s.listFailFrom {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"unavailable"}`))
			return
		}
		json.NewEncoder(w).Encode(s.commands)

	case strings.HasSuffix(path, "/resources") && r.Method == http.MethodPost:
		s.calls["create"]++
		var spec model.CommandSpec
		json.NewDecoder(r.Body).Decode(&spec)

		if seconds, ok := s.rateLimitOnce[spec.Name]; ok && !s.rateLimited[spec.Name] {
			s.rateLimited[spec.Name] = true
			w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if status, ok := s.failCreate[spec.Name]; ok {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"create rejected"}`))
			return
		}

		s.nextID++
		record := model.RemoteCommand{
			ID:          fmt.Sprintf("cmd-%d", s.nextID),
			Name:        spec.Name,
			Description: spec.Description,
			Kind:        spec.Kind,
			Options:     spec.Options,
		}
		s.commands = append(s.commands, record)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(record)

	case r.Method == http.MethodPatch:
		s.calls["update"]++
		id := path[strings.LastIndex(path, "/")+1:]
		var spec model.CommandSpec
		json.NewDecoder(r.Body).Decode(&spec)

		for i, existing := range s.commands {
			if existing.ID == id {
				s.commands[i].Description = spec.Description
				s.commands[i].Kind = spec.Kind
				s.commands[i].Options = spec.Options
				json.NewEncoder(w).Encode(s.commands[i])
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *stubPlatform) callCount(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *stubPlatform) commandNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.commands))
	for _, c := range s.commands {
		names = append(names, c.Name)
	}
	return names
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	return log
}

func testSettings(t *testing.T, apiURL string) *config.Settings {
	t.Helper()
	return &config.Settings{
		Credential:   "valid-token-abcd",
		APIURL:       apiURL,
		ScopeID:      "scope-1",
		EvidenceDir:  t.TempDir(),
		CallTimeout:  5 * time.Second,
		RunTimeout:   time.Minute,
		AuthorizeURL: apiURL + "/authorize?scope=scope-1",
	}
}

func testRunner(t *testing.T, s *stubPlatform) *Runner {
	t.Helper()
	settings := testSettings(t, s.srv.URL)
	runner := NewRunner(settings, testLogger(t))
	// Drop the politeness pause so multi-entry plans apply quickly.
	runner.upserter.pause = time.Millisecond
	return runner
}

func testClient(t *testing.T, s *stubPlatform) *api.Client {
	t.Helper()
	settings := testSettings(t, s.srv.URL)
	transport := api.NewTransport(settings.Credential, settings.CallTimeout, testLogger(t))
	return api.NewClient(settings.APIURL, transport)
}
