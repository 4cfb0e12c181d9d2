package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/notify"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"github.com/go-resty/resty/v2"
)

// MaxTimeout is the ceiling applied to every backend call.
const MaxTimeout = 10 * time.Second

// TokenSource supplies the bearer token for outgoing requests. An empty token
// means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

type Options struct {
	BaseURL      string
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

// Client is the only way out to the backend. Pages and services use the
// typed endpoint groups, never raw requests.
type Client struct {
	http         *resty.Client
	tokens       TokenSource
	notifier     notify.Notifier
	logger       *logger.Logger
	probeTimeout time.Duration

	Auth        AuthAPI
	Diseases    DiseasesAPI
	Countries   CountriesAPI
	Regions     RegionsAPI
	Records     RecordsAPI
	Predictions PredictionsAPI
	Variants    VariantsAPI
}

func New(opts Options, tokens TokenSource, notifier notify.Notifier, log *logger.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 || probeTimeout > timeout {
		probeTimeout = 2 * time.Second
	}

	c := &Client{
		tokens:       tokens,
		notifier:     notifier,
		logger:       log.With("component", "apiclient"),
		probeTimeout: probeTimeout,
	}
	c.http = resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		OnBeforeRequest(c.beforeRequest).
		OnAfterResponse(c.afterResponse)

	c.Auth = AuthAPI{c: c}
	c.Diseases = DiseasesAPI{c: c}
	c.Countries = CountriesAPI{c: c}
	c.Regions = RegionsAPI{c: c}
	c.Records = RecordsAPI{c: c}
	c.Predictions = PredictionsAPI{c: c}
	c.Variants = VariantsAPI{c: c}
	return c
}

func (c *Client) beforeRequest(_ *resty.Client, r *resty.Request) error {
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			r.SetAuthToken(token)
		}
	}
	c.logger.Debug("API request",
		"method", r.Method,
		"url", r.URL,
		"body", bodyForLog(r.Body),
	)
	return nil
}

// bodyForLog round-trips JSON bodies through a map so the logger can redact
// credential fields.
func bodyForLog(body interface{}) interface{} {
	if body == nil {
		return nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Sprintf("%T", body)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return string(raw)
	}
	return m
}

func (c *Client) afterResponse(_ *resty.Client, resp *resty.Response) error {
	c.logger.Debug("API response",
		"method", resp.Request.Method,
		"url", resp.Request.URL,
		"status", resp.StatusCode(),
		"duration", resp.Time(),
		"body", string(resp.Body()),
	)
	return nil
}

// do executes one request. Non-2xx responses, network errors and timeouts all
// come back as *APIError, after a destructive toast has been emitted.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	return c.execute(req, method, path, result)
}

func (c *Client) execute(req *resty.Request, method, path string, result interface{}) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		apiErr := newNetworkError(method, path, err)
		c.fail(apiErr)
		return apiErr
	}
	if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
		apiErr := newStatusError(method, path, resp.StatusCode(), resp.Body())
		c.fail(apiErr)
		return apiErr
	}
	if result == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		apiErr := &APIError{
			Status: resp.StatusCode(),
			Method: method,
			Path:   path,
			Err:    fmt.Errorf("failed to decode response: %w", err),
		}
		c.fail(apiErr)
		return apiErr
	}
	return nil
}

func (c *Client) fail(apiErr *APIError) {
	c.logger.Error("API call failed",
		"method", apiErr.Method,
		"path", apiErr.Path,
		"status", apiErr.Status,
		"timeout", apiErr.Timeout,
		"detail", apiErr.Detail,
		"error", apiErr.Err,
	)
	if c.notifier != nil {
		c.notifier.Error("Error", apiErr.Message())
	}
}

// upload posts a multipart form. Used by the CSV prediction endpoint.
func (c *Client) upload(ctx context.Context, path, field, filename string, file io.Reader, form map[string]string, result interface{}) error {
	req := c.http.R().
		SetContext(ctx).
		SetFileReader(field, filename, file).
		SetFormData(form)
	return c.execute(req, http.MethodPost, path, result)
}

// Ping issues a minimal GET / to check the backend is reachable. It never
// toasts; the availability monitor owns the outcome. Any response below 500
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).Get("/")
	if err != nil {
		return newNetworkError(http.MethodGet, "/", err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return newStatusError(http.MethodGet, "/", resp.StatusCode(), resp.Body())
	}
	return nil
}
