// Package ldapi is an HTTP client for the LaunchDarkly REST API v2,
// covering the project, environment, and feature flag surface the CLI
// needs. List endpoints follow _links.next pagination transparently.
package ldapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/marcus/ldflag/internal/models"
	"github.com/marcus/ldflag/internal/schema"
)

// DefaultBaseURL is the production LaunchDarkly API endpoint.
const DefaultBaseURL = "https://app.launchdarkly.com/api/v2"

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Client is an HTTP client for the LaunchDarkly API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New creates a new API client. An empty baseURL selects the production
// endpoint.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Response types ---

// Project represents a LaunchDarkly project.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Environment represents one environment of a project.
type Environment struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Flag represents a feature flag with its variations.
type Flag struct {
	Key        string             `json:"key"`
	Name       string             `json:"name"`
	Kind       string             `json:"kind"`
	Variations []models.Variation `json:"variations"`
}

// page is the envelope of a paginated list response.
type page struct {
	Items []json.RawMessage `json:"items"`
	Links map[string]struct {
		Href string `json:"href"`
	} `json:"_links"`
}

// ValidationError reports a client-side schema failure detected before any
// request was made; the remote flag is untouched.
type ValidationError struct {
	Result models.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("variations failed validation (%d errors)", len(e.Result.Errors))
}

// --- Project and environment methods ---

// Projects lists all projects visible to the API key.
func (c *Client) Projects() ([]Project, error) {
	var projects []Project
	err := c.paginate("/projects", func(item json.RawMessage) error {
		var p Project
		if err := json.Unmarshal(item, &p); err != nil {
			return fmt.Errorf("unmarshal project: %w", err)
		}
		projects = append(projects, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Environments lists the environments of a project.
func (c *Client) Environments(projectKey string) ([]Environment, error) {
	var resp struct {
		Environments []Environment `json:"environments"`
	}
	if err := c.do("GET", "/projects/"+projectKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Environments, nil
}

// --- Flag methods ---

// Flags lists all feature flags in a project.
func (c *Client) Flags(projectKey string) ([]Flag, error) {
	var flags []Flag
	err := c.paginate("/flags/"+projectKey, func(item json.RawMessage) error {
		var f Flag
		if err := json.Unmarshal(item, &f); err != nil {
			return fmt.Errorf("unmarshal flag: %w", err)
		}
		flags = append(flags, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flags, nil
}

// Flag fetches one feature flag with its variations.
func (c *Client) Flag(projectKey, flagKey string) (*Flag, error) {
	var f Flag
	if err := c.do("GET", fmt.Sprintf("/flags/%s/%s", projectKey, flagKey), nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFlag creates a project-level JSON flag. Variations are validated
// against the schema before anything is sent.
func (c *Client) CreateFlag(projectKey, flagKey, flagName string, variations []models.Variation) (*Flag, error) {
	if result := schema.ValidateVariations(variations); !result.Valid() {
		return nil, &ValidationError{Result: result}
	}

	payload := map[string]any{
		"name":       flagName,
		"key":        flagKey,
		"kind":       "json",
		"variations": variations,
		"temporary":  false,
		"tags":       []string{"tcp", "network-config"},
		"defaults":   map[string]int{"onVariation": 0, "offVariation": 1},
	}

	var f Flag
	if err := c.do("POST", "/flags/"+projectKey, payload, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFlagVariations replaces a flag's variation list via a JSON patch.
// Server-assigned _id values in the list are preserved. Variations are
// validated before anything is sent.
func (c *Client) UpdateFlagVariations(projectKey, flagKey string, variations []models.Variation) (*Flag, error) {
	if result := schema.ValidateVariations(variations); !result.Valid() {
		return nil, &ValidationError{Result: result}
	}

	payload := map[string]any{
		"comment": "Updated flag variations via ldflag",
		"patch": []map[string]any{
			{"op": "replace", "path": "/variations", "value": variations},
		},
	}

	var f Flag
	if err := c.do("PATCH", fmt.Sprintf("/flags/%s/%s", projectKey, flagKey), payload, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ConfigureEnvironmentTargeting replaces the targeting rules of a flag in
// one environment.
func (c *Client) ConfigureEnvironmentTargeting(projectKey, flagKey, envKey string, rules json.RawMessage) error {
	payload := map[string]any{
		"instructions": []map[string]any{
			{"kind": "replaceRule", "rules": rules},
		},
	}
	path := fmt.Sprintf("/flags/%s/%s/environments/%s", projectKey, flagKey, envKey)
	return c.do("PATCH", path, payload, nil)
}

// ListJSONFlags returns summaries of the project's flags that carry at
// least one object-valued variation. Flags whose details cannot be fetched
// are skipped rather than failing the whole listing.
func (c *Client) ListJSONFlags(projectKey string) ([]models.FlagSummary, error) {
	flags, err := c.Flags(projectKey)
	if err != nil {
		return nil, err
	}

	var summaries []models.FlagSummary
	for _, f := range flags {
		detail, err := c.Flag(projectKey, f.Key)
		if err != nil {
			slog.Debug("ldapi: skipping flag", "flag", f.Key, "err", err)
			continue
		}
		if !hasObjectVariation(detail.Variations) {
			continue
		}
		summaries = append(summaries, models.FlagSummary{
			Key:        detail.Key,
			Name:       detail.Name,
			Variations: detail.Variations,
		})
	}
	return summaries, nil
}

func hasObjectVariation(variations []models.Variation) bool {
	for _, v := range variations {
		trimmed := bytes.TrimSpace(v.Value)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			return true
		}
	}
	return false
}

// --- HTTP helpers ---

// apiError is the standard error body from the service.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// paginate fetches a list endpoint page by page, following the
// _links.next.href reference until it runs out.
func (c *Client) paginate(path string, each func(json.RawMessage) error) error {
	next := c.BaseURL + path
	for next != "" {
		var p page
		if err := c.doURL("GET", next, nil, &p); err != nil {
			return err
		}
		for _, item := range p.Items {
			if err := each(item); err != nil {
				return err
			}
		}

		next = ""
		if link, ok := p.Links["next"]; ok && link.Href != "" {
			resolved, err := c.resolveHref(link.Href)
			if err != nil {
				return err
			}
			next = resolved
		}
	}
	return nil
}

// resolveHref resolves a pagination href (usually host-relative) against
// the client's base URL.
func (c *Client) resolveHref(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse pagination link %q: %w", href, err)
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", c.BaseURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// do executes a request against a path under the base URL.
func (c *Client) do(method, path string, body, result any) error {
	return c.doURL(method, c.BaseURL+path, body, result)
}

func (c *Client) doURL(method, fullURL string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
			case http.StatusForbidden:
				return fmt.Errorf("%w: %s", ErrForbidden, apiErr.Message)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
			default:
				return &apiErr
			}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
