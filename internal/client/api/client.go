// Package api is the REST client for the CiviLog service. It covers the
// endpoints the mobile client consumes: auth token issue/refresh, reference
// data (projects, elements, unit types), report creation, and multipart
// media upload.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/civilog/civilog-cli/internal/client/models"
	"github.com/civilog/civilog-cli/internal/common"
	"github.com/civilog/civilog-cli/internal/logging"
)

// TokenSource supplies the current bearer credential for authenticated
// calls, refreshing it if needed. Implemented by the auth manager.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client talks to the CiviLog REST service.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logging.Logger
}

func New(baseURL string, timeout time.Duration, log logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SetTokenSource attaches the bearer-credential provider. It is set after
// construction because the auth manager itself calls the client's token
// endpoints.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// Ping probes service reachability with a point-in-time health check.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", common.ErrOffline, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// TokenPair is an access/refresh token pair issued by the service.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	body := map[string]string{"email": email, "password": password}

	var pair TokenPair
	if err := c.postJSON(ctx, "/api/jwt", body, &pair, false); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &pair, nil
}

// Refresh exchanges a refresh token for a new token pair. The service may
// omit a rotated refresh token; callers keep the old one in that case.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var pair TokenPair
	if err := c.postJSON(ctx, "/api/jwt/refresh", body, &pair, false); err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return &pair, nil
}

// FetchProjects lists the projects visible to the current user.
func (c *Client) FetchProjects(ctx context.Context) ([]models.Project, error) {
	var out struct {
		Projects []models.Project `json:"projects"`
	}
	if err := c.getJSON(ctx, "/api/mobile/projects", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	return out.Projects, nil
}

// FetchElements returns one project's element hierarchy.
func (c *Client) FetchElements(ctx context.Context, projectID string) (*models.Elements, error) {
	query := url.Values{"projectId": {projectID}}

	var out models.Elements
	if err := c.getJSON(ctx, "/api/mobile/elements", query, &out); err != nil {
		return nil, fmt.Errorf("failed to load elements: %w", err)
	}
	return &out, nil
}

// FetchUnitTypes lists the unit types for report quantities.
func (c *Client) FetchUnitTypes(ctx context.Context) ([]models.UnitType, error) {
	var out struct {
		UnitTypes []models.UnitType `json:"unitTypes"`
	}
	if err := c.getJSON(ctx, "/api/mobile/unit-types", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to load unit types: %w", err)
	}
	return out.UnitTypes, nil
}

// CreateReportParams is the body of a create-report request.
type CreateReportParams struct {
	ProjectID string               `json:"projectId"`
	Type      models.ReportType    `json:"type"`
	Name      string               `json:"name"`
	ObjectID  string               `json:"objectId,omitempty"`
	Comment   string               `json:"comment,omitempty"`
	Payload   models.ReportPayload `json:"payload"`
}

// CreateReportResult is the server's confirmation of a created report.
type CreateReportResult struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// CreateReport persists a report on the server and returns the assigned id
// plus a human-readable confirmation.
func (c *Client) CreateReport(ctx context.Context, p CreateReportParams) (*CreateReportResult, error) {
	var out CreateReportResult
	if err := c.postJSON(ctx, "/api/reports", p, &out, true); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out, true)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any, authed bool) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, out, authed)
}

// do executes req, optionally injecting the bearer credential, and decodes
// a 2xx JSON response into out.
func (c *Client) do(req *http.Request, out any, authed bool) error {
	if authed && c.tokens != nil {
		token, err := c.tokens.AccessToken(req.Context())
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return common.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
