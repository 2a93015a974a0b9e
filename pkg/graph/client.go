package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fbinsights/pkg/config"
	errs "fbinsights/pkg/errors"
	"fbinsights/pkg/logger"
	"fbinsights/pkg/ratelimit"
	"fbinsights/pkg/retry"
)

var (
	// ErrPlaceholderCredentials is returned when a credential is empty or
	// still holds a YOUR_... placeholder
	ErrPlaceholderCredentials = errors.New("facebook credentials are not set")

	// ErrInvalidPeriod is returned for a page insights window outside config.ValidPeriods
	ErrInvalidPeriod = errors.New("invalid insights period")

	// ErrInvalidLimit is returned for a non-positive post limit
	ErrInvalidLimit = errors.New("post limit must be positive")
)

const noErrorMessage = "No error message provided."

// Credentials identify the page and authorize every request
type Credentials struct {
	PageID      string
	AccessToken string
}

// Validate rejects empty and placeholder credentials
func (c Credentials) Validate() error {
	switch {
	case c.PageID == "" || strings.Contains(c.PageID, "YOUR"):
		return fmt.Errorf("%w: page id", ErrPlaceholderCredentials)
	case c.AccessToken == "" || strings.Contains(c.AccessToken, "YOUR"):
		return fmt.Errorf("%w: access token", ErrPlaceholderCredentials)
	}
	return nil
}

// Client is a Facebook Graph API client for page analytics
type Client struct {
	creds      Credentials
	httpClient *http.Client
	baseURL    string
	version    string
	logger     logger.Logger
	limiter    ratelimit.Limiter
	retry      *retry.Config
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at another Graph host
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithAPIVersion pins the Graph API version
func WithAPIVersion(version string) Option {
	return func(c *Client) { c.version = version }
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

// WithLimiter paces requests through l
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetry retries failed requests according to cfg
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a Graph API client. Placeholder credentials are
// refused before anything touches the network.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		version:    DefaultAPIVersion,
		logger:     logger.GetLogger(),
		limiter:    ratelimit.Unlimited{},
		retry:      retry.NoRetry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.NewNopLogger()
	}
	return c, nil
}

// NewClientFromConfig builds a client from the application configuration
func NewClientFromConfig(cfg *config.Config, log logger.Logger) (*Client, error) {
	limiter, err := ratelimit.New(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	return NewClient(
		Credentials{PageID: cfg.Facebook.PageID, AccessToken: cfg.Facebook.AccessToken},
		WithBaseURL(cfg.Facebook.BaseURL),
		WithAPIVersion(cfg.Facebook.APIVersion),
		WithTimeout(cfg.Fetch.Timeout),
		WithLogger(log),
		WithLimiter(limiter),
		WithRetry(retry.FromConfig(cfg.Retry, log)),
	)
}

// PageID returns the page this client reads from
func (c *Client) PageID() string {
	return c.creds.PageID
}

// FetchPageInsights fetches the page-level insights for period
func (c *Client) FetchPageInsights(ctx context.Context, period string) (*InsightsResponse, error) {
	if !config.IsValidPeriod(period) {
		return nil, fmt.Errorf("%w: %q (expected one of %s)", ErrInvalidPeriod, period, strings.Join(config.ValidPeriods, ", "))
	}

	c.logger.InfoWithFields("fetching page insights", map[string]interface{}{
		"page_id": c.creds.PageID,
		"period":  period,
	})

	params := url.Values{}
	params.Set("metric", strings.Join(PageMetrics, ","))
	params.Set("period", period)

	body, err := c.get(ctx, c.creds.PageID, InsightsEdge, params, false)
	if err != nil {
		return nil, err
	}

	var resp InsightsResponse
	if err := c.decode(body, &resp, false); err != nil {
		return nil, err
	}
	resp.Raw = body
	return &resp, nil
}

// FetchRecentPosts fetches up to limit of the page's most recent posts
func (c *Client) FetchRecentPosts(ctx context.Context, limit int) (*PostsResponse, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	c.logger.InfoWithFields("fetching recent posts", map[string]interface{}{
		"page_id": c.creds.PageID,
		"limit":   limit,
	})

	params := url.Values{}
	params.Set("fields", PostFields)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, c.creds.PageID, PostsEdge, params, false)
	if err != nil {
		return nil, err
	}

	var resp PostsResponse
	if err := c.decode(body, &resp, false); err != nil {
		return nil, err
	}
	resp.Raw = body
	return &resp, nil
}

// FetchPostInsights fetches every metric in PostMetrics for one post, one
// request per metric. A metric the API refuses resolves to 0. Only a
// transport failure or cancellation aborts.
func (c *Client) FetchPostInsights(ctx context.Context, postID string) (PostInsights, error) {
	insights := NewPostInsights()

	for _, metric := range PostMetrics {
		params := url.Values{}
		params.Set("metric", metric)
		params.Set("period", LifetimePeriod)

		body, err := c.get(ctx, postID, InsightsEdge, params, true)
		if err != nil {
			if IsFatal(err) {
				return PostInsights{}, fmt.Errorf("fetch %s for post %s: %w", metric, postID, err)
			}
			c.logger.DebugWithFields("metric unavailable", map[string]interface{}{
				"post_id": postID,
				"metric":  metric,
				"error":   err.Error(),
			})
			continue
		}

		var resp InsightsResponse
		if err := c.decode(body, &resp, true); err != nil {
			c.logger.DebugWithFields("metric unavailable", map[string]interface{}{
				"post_id": postID,
				"metric":  metric,
				"error":   err.Error(),
			})
			continue
		}
		if value, ok := MetricValue(&resp); ok {
			insights.Set(metric, value)
		}
	}

	if missing := insights.UnavailableMetrics(); len(missing) > 0 {
		c.logger.DebugWithFields("post metrics defaulted to zero", map[string]interface{}{
			"post_id": postID,
			"metrics": missing,
		})
	}

	return insights, nil
}

// BuildPostAnalytics combines a post with its insights and summary
func (c *Client) BuildPostAnalytics(ctx context.Context, post Post) (*PostAnalytics, error) {
	c.logger.InfoWithFields("analyzing post", map[string]interface{}{
		"post_id": post.ID,
	})

	insights, err := c.FetchPostInsights(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	details, err := post.Details()
	if err != nil {
		return nil, fmt.Errorf("encode post %s: %w", post.ID, err)
	}

	return &PostAnalytics{
		PostDetails: details,
		Insights:    insights,
		Summary:     Summarize(insights),
	}, nil
}

// get issues one GET against objectID/edge and returns the body of a 200
// response. Any other status becomes an *errs.Error.
func (c *Client) get(ctx context.Context, objectID, edge string, params url.Values, suppress bool) ([]byte, error) {
	params.Set("access_token", c.creds.AccessToken)
	endpoint := BuildURL(c.baseURL, c.version, objectID, edge, params)

	return retry.DoWithResult(ctx, func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, &errs.Error{
				Type:    errs.ErrorTypeUnknown,
				Message: fmt.Sprintf("failed to create request: %v", err),
				Err:     err,
			}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.doRequest(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		return c.handleResponse(resp, suppress)
	}, c.retry)
}

// doRequest performs an HTTP request and logs its outcome
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	safeURL := redactURL(req.URL.String())

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    safeURL,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = safeURL
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      safeURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Network(err)
	}

	logger.LogRequest(c.logger, req.Method, safeURL, resp.StatusCode, duration)
	return resp, nil
}

// handleResponse returns the body of a 200 response. Any other status is
// turned into an *errs.Error carrying the server's message, which is
// logged unless suppress is set.
func (c *Client) handleResponse(resp *http.Response, suppress bool) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Network(fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	apiErr, detail := parseAPIError(resp.StatusCode, body)
	if !suppress {
		fields := map[string]interface{}{
			"status":        resp.StatusCode,
			"error_message": apiErr.Message,
		}
		if resp.Request != nil && resp.Request.URL != nil {
			fields["url"] = redactURL(resp.Request.URL.String())
		}
		if detail != nil {
			fields["graph_code"] = detail.Code
			if detail.Type != "" {
				fields["graph_type"] = detail.Type
			}
			if detail.FBTraceID != "" {
				fields["fbtrace_id"] = detail.FBTraceID
			}
		}
		c.logger.ErrorWithFields("Graph API error", fields)
	}

	return nil, apiErr
}

// decode unmarshals a 200 body, treating malformed JSON as a parsing error
func (c *Client) decode(body []byte, target interface{}, suppress bool) error {
	if err := json.Unmarshal(body, target); err != nil {
		if !suppress {
			preview := string(body)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
				"error":        err.Error(),
				"body_preview": preview,
			})
		}
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    http.StatusOK,
			Err:     err,
		}
	}
	return nil
}

// parseAPIError builds the typed error for a non-200 body. The message is
// error.message when the body is a JSON object, the raw body text when it
// is not JSON, and a fixed placeholder otherwise.
func parseAPIError(status int, body []byte) (*errs.Error, *APIError) {
	apiErr := &errs.Error{
		Type: errs.ClassifyStatus(status),
		Code: status,
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Message = string(body)
		return apiErr, nil
	}

	var detail APIError
	if raw, ok := envelope["error"]; !ok || json.Unmarshal(raw, &detail) != nil || detail.Message == "" {
		apiErr.Message = noErrorMessage
		return apiErr, nil
	}

	apiErr.Message = detail.Message
	apiErr.Type = classifyGraphCode(apiErr.Type, detail.Code)
	return apiErr, &detail
}

// ParseError turns a non-200 Graph API body into a typed error
func ParseError(status int, body []byte) *errs.Error {
	apiErr, _ := parseAPIError(status, body)
	return apiErr
}

// classifyGraphCode refines the status-based type with the Graph error
// code. Expired tokens and throttling come back as plain 400s.
func classifyGraphCode(byStatus errs.ErrorType, code int) errs.ErrorType {
	switch code {
	case 102, 190:
		return errs.ErrorTypeAuth
	case 4, 17, 32, 613:
		return errs.ErrorTypeRateLimit
	}
	return byStatus
}

// IsFatal reports whether err must abort the run rather than degrade to
// an empty result: transport failures and cancellation
func IsFatal(err error) bool {
	return errs.IsNetwork(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
