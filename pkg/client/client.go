// Package client provides a typed Go client for the otj-engine API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/otjlab/otj-engine/internal/models"
)

// Client is an otj-engine API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the given base URL and API key
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// ListSpecs returns every apprenticeship spec in the catalog
func (c *Client) ListSpecs(ctx context.Context) ([]*models.Spec, error) {
	var specs []*models.Spec
	if err := c.do(ctx, http.MethodGet, "/api/v1/specs", nil, &specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// GetSpec returns one spec by code
func (c *Client) GetSpec(ctx context.Context, code string) (*models.Spec, error) {
	var spec models.Spec
	if err := c.do(ctx, http.MethodGet, "/api/v1/specs/"+url.PathEscape(code), nil, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// ListKSBs returns the full KSB list of a spec
func (c *Client) ListKSBs(ctx context.Context, specCode string) ([]models.KSB, error) {
	var ksbs []models.KSB
	if err := c.do(ctx, http.MethodGet, "/api/v1/specs/"+url.PathEscape(specCode)+"/ksbs", nil, &ksbs); err != nil {
		return nil, err
	}
	return ksbs, nil
}

// GetProfile returns the authenticated user
func (c *Client) GetProfile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SelectSpec sets the user's apprenticeship spec
func (c *Client) SelectSpec(ctx context.Context, specCode string) (*models.User, error) {
	body := map[string]string{"spec_code": specCode}
	var user models.User
	if err := c.do(ctx, http.MethodPut, "/api/v1/profile/spec", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ActivityListOptions narrows ListActivities
type ActivityListOptions struct {
	KSBCode      string
	ActivityType string
	Tag          string
	Page         int
	Limit        int
}

// ListActivities returns the user's activities, newest first
func (c *Client) ListActivities(ctx context.Context, opts ActivityListOptions) ([]*models.Activity, error) {
	q := url.Values{}
	if opts.KSBCode != "" {
		q.Set("ksb", opts.KSBCode)
	}
	if opts.ActivityType != "" {
		q.Set("type", opts.ActivityType)
	}
	if opts.Tag != "" {
		q.Set("tag", opts.Tag)
	}
	if opts.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	path := "/api/v1/activities"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var activities []*models.Activity
	if err := c.do(ctx, http.MethodGet, path, nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetActivity returns one activity by id
func (c *Client) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	var activity models.Activity
	if err := c.do(ctx, http.MethodGet, "/api/v1/activities/"+url.PathEscape(id), nil, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// CreateActivity logs a new activity
func (c *Client) CreateActivity(ctx context.Context, req *models.ActivityRequest) (*models.Activity, error) {
	var activity models.Activity
	if err := c.do(ctx, http.MethodPost, "/api/v1/activities", req, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// UpdateActivity replaces an activity's fields and relations
func (c *Client) UpdateActivity(ctx context.Context, id string, req *models.ActivityRequest) (*models.Activity, error) {
	var activity models.Activity
	if err := c.do(ctx, http.MethodPut, "/api/v1/activities/"+url.PathEscape(id), req, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// DeleteActivity removes an activity
func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/activities/"+url.PathEscape(id), nil, nil)
}

// ListTags returns the user's tags
func (c *Client) ListTags(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	if err := c.do(ctx, http.MethodGet, "/api/v1/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// ListTemplates returns the user's activity templates
func (c *Client) ListTemplates(ctx context.Context) ([]*models.ActivityTemplate, error) {
	var templates []*models.ActivityTemplate
	if err := c.do(ctx, http.MethodGet, "/api/v1/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// GetTemplate returns one template by id
func (c *Client) GetTemplate(ctx context.Context, id string) (*models.ActivityTemplate, error) {
	var tmpl models.ActivityTemplate
	if err := c.do(ctx, http.MethodGet, "/api/v1/templates/"+url.PathEscape(id), nil, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// CreateTemplate creates a new activity template
func (c *Client) CreateTemplate(ctx context.Context, req *models.TemplateRequest) (*models.ActivityTemplate, error) {
	var tmpl models.ActivityTemplate
	if err := c.do(ctx, http.MethodPost, "/api/v1/templates", req, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// UpdateTemplate replaces a template's fields
func (c *Client) UpdateTemplate(ctx context.Context, id string, req *models.TemplateRequest) (*models.ActivityTemplate, error) {
	var tmpl models.ActivityTemplate
	if err := c.do(ctx, http.MethodPut, "/api/v1/templates/"+url.PathEscape(id), req, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// DeleteTemplate removes a template
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/templates/"+url.PathEscape(id), nil, nil)
}

// ApplyTemplate logs an activity from a template. Pass an empty date
// to log it for today.
func (c *Client) ApplyTemplate(ctx context.Context, id, activityDate string) (*models.Activity, error) {
	var body interface{}
	if activityDate != "" {
		body = map[string]string{"activity_date": activityDate}
	}
	var activity models.Activity
	if err := c.do(ctx, http.MethodPost, "/api/v1/templates/"+url.PathEscape(id)+"/apply", body, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Dashboard returns the aggregate dashboard view
func (c *Client) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/api/v1/dashboard", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Recommendations runs the gap analysis and returns the readiness
// report. Pass an empty date for today.
func (c *Client) Recommendations(ctx context.Context, referenceDate string) (*models.GapReport, error) {
	path := "/api/v1/recommendations"
	if referenceDate != "" {
		path += "?date=" + url.QueryEscape(referenceDate)
	}
	var report models.GapReport
	if err := c.do(ctx, http.MethodGet, path, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
