package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/cmdsync/internal/model"
	cmdsyncerrors "github.com/alexisbeaulieu97/cmdsync/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tr := NewTransport("token-abcd", 5*time.Second, testLogger(t))
	return NewClient(srv.URL, tr), srv
}

func TestClientIdentity(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/identity", r.URL.Path)
		json.NewEncoder(w).Encode(model.Principal{ID: "bot-1", DisplayName: "deploy-bot"})
	}))

	principal, err := client.Identity(context.Background())
	require.NoError(t, err)
	require.Equal(t, "bot-1", principal.ID)
	require.Equal(t, "deploy-bot", principal.DisplayName)
}

func TestClientIdentityUnauthorized(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		status := status
		t.Run(fmt.Sprintf("status_%d", status), func(t *testing.T) {
			t.Parallel()

			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(`{"error":"bad credential"}`))
			}))

			_, err := client.Identity(context.Background())
			require.Error(t, err)

			var authErr *cmdsyncerrors.AuthError
			require.ErrorAs(t, err, &authErr)
			require.Equal(t, status, authErr.StatusCode)
		})
	}
}

func TestClientScopes(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/principal/scopes", r.URL.Path)
		json.NewEncoder(w).Encode([]Scope{{ID: "scope-1", Name: "deploys"}})
	}))

	scopes, err := client.Scopes(context.Background())
	require.NoError(t, err)
	require.Len(t, scopes, 1)
	require.Equal(t, "deploys", scopes[0].Name)
}

func TestClientListCommandsEmpty(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	commands, err := client.ListCommands(context.Background(), "scope-1")
	require.NoError(t, err)
	require.Empty(t, commands)
}

func TestClientListCommandsPaginates(t *testing.T) {
	t.Parallel()

	// First page is full, so the client must follow the cursor.
	firstPage := make([]model.RemoteCommand, listPageSize)
	for i := range firstPage {
		firstPage[i] = model.RemoteCommand{ID: fmt.Sprintf("id-%03d", i), Name: fmt.Sprintf("cmd-%03d", i)}
	}
	secondPage := []model.RemoteCommand{{ID: "id-last", Name: "cmd-last"}}

	var cursors []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		cursors = append(cursors, after)
		if after == "" {
			json.NewEncoder(w).Encode(firstPage)
			return
		}
		json.NewEncoder(w).Encode(secondPage)
	}))

	commands, err := client.ListCommands(context.Background(), "scope-1")
	require.NoError(t, err)
	require.Len(t, commands, listPageSize+1)
	require.Equal(t, []string{"", firstPage[listPageSize-1].ID}, cursors)
	require.Equal(t, "cmd-last", commands[listPageSize].Name)
}

func TestClientCreateCommand(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/scopes/scope-1/resources", r.URL.Path)

		var spec model.CommandSpec
		require.NoError(t, json.NewDecoder(r.Body).Decode(&spec))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.RemoteCommand{
			ID:          "cmd-77",
			Name:        spec.Name,
			Description: spec.Description,
			Kind:        spec.Kind,
		})
	}))

	created, err := client.CreateCommand(context.Background(), "scope-1", model.CommandSpec{
		Name: "status", Description: "Show status", Kind: "chat",
	})
	require.NoError(t, err)
	require.Equal(t, "cmd-77", created.ID)
	require.Equal(t, "status", created.Name)
}

func TestClientUpdateCommandTargetsID(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/scopes/scope-1/resources/cmd-42", r.URL.Path)
		json.NewEncoder(w).Encode(model.RemoteCommand{ID: "cmd-42", Name: "deploy"})
	}))

	updated, err := client.UpdateCommand(context.Background(), "scope-1", "cmd-42", model.CommandSpec{
		Name: "deploy", Description: "Trigger a deployment", Kind: "chat",
	})
	require.NoError(t, err)
	require.Equal(t, "cmd-42", updated.ID)
}
