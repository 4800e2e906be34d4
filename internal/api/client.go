package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alexisbeaulieu97/cmdsync/internal/model"
	cmdsyncerrors "github.com/alexisbeaulieu97/cmdsync/pkg/errors"
)

// listPageSize is the page size requested from the resource listing
// endpoint.
const listPageSize = 100

// Client exposes the platform endpoints the reconciler consumes, typed and
// routed through the rate-limited transport.
type Client struct {
	baseURL   string
	transport *Transport
}

// NewClient builds a Client against the given base URL.
func NewClient(baseURL string, transport *Transport) *Client {
	return &Client{baseURL: baseURL, transport: transport}
}

// Identity resolves the credential's principal. A 401/403 is surfaced as an
// AuthError; identity failures are never transient, so there is no retry
// beyond what the transport does for network faults.
func (c *Client) Identity(ctx context.Context) (model.Principal, error) {
	body, err := c.transport.Do(ctx, http.MethodGet, c.baseURL+"/identity", nil)
	if err != nil {
		var te *cmdsyncerrors.TransportError
		if errors.As(err, &te) && (te.StatusCode == http.StatusUnauthorized || te.StatusCode == http.StatusForbidden) {
			return model.Principal{}, cmdsyncerrors.NewAuthError(te.StatusCode, te.Body)
		}
		return model.Principal{}, err
	}

	var principal model.Principal
	if err := json.Unmarshal(body, &principal); err != nil {
		return model.Principal{}, fmt.Errorf("decode identity response: %w", err)
	}
	return principal, nil
}

// Scope is one scope the principal can reach.
type Scope struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Scopes lists the scopes the authenticated principal belongs to.
func (c *Client) Scopes(ctx context.Context) ([]Scope, error) {
	body, err := c.transport.Do(ctx, http.MethodGet, c.baseURL+"/principal/scopes", nil)
	if err != nil {
		return nil, err
	}

	var scopes []Scope
	if err := json.Unmarshal(body, &scopes); err != nil {
		return nil, fmt.Errorf("decode scopes response: %w", err)
	}
	return scopes, nil
}

// ListCommands enumerates the scope's current command set, following the
// `after` cursor until the platform returns a short page. An empty catalog
// yields an empty slice, not an error.
func (c *Client) ListCommands(ctx context.Context, scopeID string) ([]model.RemoteCommand, error) {
	var all []model.RemoteCommand
	after := ""

	for {
		endpoint := fmt.Sprintf("%s/scopes/%s/resources?limit=%d", c.baseURL, url.PathEscape(scopeID), listPageSize)
		if after != "" {
			endpoint += "&after=" + url.QueryEscape(after)
		}

		body, err := c.transport.Do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		var page []model.RemoteCommand
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode resource list: %w", err)
		}

		all = append(all, page...)
		if len(page) < listPageSize {
			return all, nil
		}
		after = page[len(page)-1].ID
	}
}

// CreateCommand registers a new command in the scope and returns the
// platform-assigned record.
func (c *Client) CreateCommand(ctx context.Context, scopeID string, spec model.CommandSpec) (model.RemoteCommand, error) {
	endpoint := fmt.Sprintf("%s/scopes/%s/resources", c.baseURL, url.PathEscape(scopeID))
	body, err := c.transport.Do(ctx, http.MethodPost, endpoint, spec)
	if err != nil {
		return model.RemoteCommand{}, err
	}

	var created model.RemoteCommand
	if err := json.Unmarshal(body, &created); err != nil {
		return model.RemoteCommand{}, fmt.Errorf("decode create response: %w", err)
	}
	return created, nil
}

// UpdateCommand patches a single existing command by ID. Always targeted,
// never a full-collection replace.
func (c *Client) UpdateCommand(ctx context.Context, scopeID, commandID string, spec model.CommandSpec) (model.RemoteCommand, error) {
	endpoint := fmt.Sprintf("%s/scopes/%s/resources/%s", c.baseURL, url.PathEscape(scopeID), url.PathEscape(commandID))
	body, err := c.transport.Do(ctx, http.MethodPatch, endpoint, spec)
	if err != nil {
		return model.RemoteCommand{}, err
	}

	var updated model.RemoteCommand
	if err := json.Unmarshal(body, &updated); err != nil {
		return model.RemoteCommand{}, fmt.Errorf("decode update response: %w", err)
	}
	return updated, nil
}
