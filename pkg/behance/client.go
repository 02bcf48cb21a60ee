package behance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "behancesync/pkg/errors"
	"behancesync/pkg/logger"
	"behancesync/pkg/metrics"
	"behancesync/pkg/ratelimit"
)

// Options configures a Client
type Options struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string

	// Limiter spaces API calls; nil uses a 500ms Interval
	Limiter ratelimit.Limiter
	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// Client talks to the Behance v2 API. Every API call waits on the client's
// limiter before it is sent; asset downloads do not.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	limiter    ratelimit.Limiter
	metrics    *metrics.Metrics
	logger     logger.Logger
}

// Asset is a downloaded binary
type Asset struct {
	Data        []byte
	ContentType string
}

// NewClient creates a new Behance API client
func NewClient(opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewInterval(ratelimit.DefaultInterval)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		userAgent:  opts.UserAgent,
		limiter:    opts.Limiter,
		metrics:    opts.Metrics,
		logger:     log.WithField("component", "behance"),
	}
}

// Get fetches path from the API and decodes the JSON body into target.
// There are no retries; any failure is returned as an *errors.Error.
func (c *Client) Get(ctx context.Context, path string, target interface{}) error {
	return c.get(ctx, EndpointOther, path, target)
}

func (c *Client) get(ctx context.Context, endpoint, path string, target interface{}) error {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return errs.Wrap(err, errs.ErrorTypeNetwork, "cancelled waiting for rate limit")
	}
	wait := time.Since(waitStart)

	err := c.fetchJSON(ctx, path, target)
	outcome := "ok"
	if err != nil {
		outcome = string(errs.TypeOf(err))
	}
	c.metrics.ObserveRequest(endpoint, outcome, wait)
	return err
}

func (c *Client) fetchJSON(ctx context.Context, path string, target interface{}) error {
	fullURL, err := buildURL(c.baseURL, path, c.apiKey)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeUnknown, "invalid request path "+path)
	}

	resp, err := c.doRequest(ctx, fullURL, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp, path); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: "failed to read response body",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "failed to parse JSON",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return nil
}

// doRequest issues a GET. logPath is what gets logged, so the API key in
// the query string never reaches the logs.
func (c *Client) doRequest(ctx context.Context, rawURL, logPath string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeUnknown, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		// Transport errors quote the full URL, query string included
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = logPath
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"path":     logPath,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(err, errs.ErrorTypeNetwork, "request to "+logPath+" failed")
	}

	logger.LogRequest(c.logger, req.Method, logPath, resp.StatusCode, duration)
	return resp, nil
}

// checkResponseStatus maps non-2xx statuses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errType := errs.TypeForStatus(resp.StatusCode)
	var message string
	switch errType {
	case errs.ErrorTypeAuth:
		message = "API key rejected"
	case errs.ErrorTypeNotFound:
		message = "resource not found"
	case errs.ErrorTypeRateLimit:
		message = "rate limit exceeded"
	case errs.ErrorTypeServerError:
		message = "server error"
	default:
		message = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	}

	return &errs.Error{
		Type:    errType,
		Message: message + " for " + path,
		Code:    resp.StatusCode,
	}
}

// FetchProjects fetches the project list of username
func (c *Client) FetchProjects(ctx context.Context, username string) ([]ProjectSummary, error) {
	var response projectsResponse
	if err := c.get(ctx, EndpointProjects, ProjectsPath(username), &response); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched project list", map[string]interface{}{
		"username": username,
		"count":    len(response.Projects),
	})
	return response.Projects, nil
}

// FetchUser fetches the profile of username
func (c *Client) FetchUser(ctx context.Context, username string) (*User, error) {
	var response userResponse
	if err := c.get(ctx, EndpointUser, UserPath(username), &response); err != nil {
		return nil, err
	}
	if response.User == nil {
		return nil, errs.New(errs.ErrorTypeParsing, "response has no user member")
	}
	return response.User, nil
}

// FetchProject fetches the full detail of one project
func (c *Client) FetchProject(ctx context.Context, id int64) (*Project, error) {
	var response projectResponse
	if err := c.get(ctx, EndpointProject, ProjectPath(id), &response); err != nil {
		return nil, err
	}
	if response.Project == nil {
		return nil, errs.New(errs.ErrorTypeParsing, fmt.Sprintf("response for project %d has no project member", id))
	}
	return response.Project, nil
}

// Download fetches an asset from its CDN URL. Assets are not API calls and
// skip the rate limiter.
func (c *Client) Download(ctx context.Context, assetURL string) (*Asset, error) {
	resp, err := c.doRequest(ctx, assetURL, assetURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp, assetURL); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeNetwork, "failed to read asset "+assetURL)
	}

	return &Asset{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
