package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fbinsights/internal/graphtest"
	errs "fbinsights/pkg/errors"
	"fbinsights/pkg/logger"
	"fbinsights/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newMockHTTPClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &mockRoundTripper{handler: handler},
		Timeout:   5 * time.Second,
	}
}

func newResponse(req *http.Request, statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
		Request:    req,
	}
}

func testCredentials() Credentials {
	return Credentials{PageID: graphtest.PageID, AccessToken: graphtest.AccessToken}
}

// newTestClient returns a client pointed at a fresh mock Graph server
func newTestClient(t *testing.T, opts ...Option) (*Client, *graphtest.Server, *logger.TestLogger) {
	t.Helper()

	server := graphtest.NewServer()
	t.Cleanup(server.Close)

	tl := logger.NewTestLogger()
	all := append([]Option{WithBaseURL(server.URL()), WithLogger(tl)}, opts...)
	client, err := NewClient(testCredentials(), all...)
	require.NoError(t, err)

	return client, server, tl
}

func fullMetrics(base int) map[string]interface{} {
	metrics := make(map[string]interface{}, len(PostMetrics))
	for i, m := range PostMetrics {
		metrics[m] = base + i
	}
	return metrics
}

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"valid", testCredentials(), false},
		{"placeholder page id", Credentials{PageID: "YOUR_FACEBOOK_PAGE_ID", AccessToken: "EAAx"}, true},
		{"placeholder token", Credentials{PageID: "123", AccessToken: "YOUR_PAGE_ACCESS_TOKEN"}, true},
		{"empty page id", Credentials{AccessToken: "EAAx"}, true},
		{"empty token", Credentials{PageID: "123"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPlaceholderCredentials)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClientRefusesPlaceholderCredentials(t *testing.T) {
	server := graphtest.NewServer()
	defer server.Close()

	client, err := NewClient(
		Credentials{PageID: "YOUR_FACEBOOK_PAGE_ID", AccessToken: graphtest.AccessToken},
		WithBaseURL(server.URL()),
	)

	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrPlaceholderCredentials)
	assert.Equal(t, 0, server.RequestCount())
}

func TestFetchPageInsights(t *testing.T) {
	client, server, tl := newTestClient(t)
	server.SetPageInsights(
		map[string]interface{}{
			"name":   "page_impressions",
			"values": []map[string]interface{}{{"value": 10, "end_time": "2024-05-01T07:00:00+0000"}, {"value": 25, "end_time": "2024-05-02T07:00:00+0000"}},
		},
		map[string]interface{}{
			"name":   "page_actions_post_reactions_total",
			"values": []map[string]interface{}{{"value": map[string]int{"like": 4, "love": 1}}},
		},
	)

	resp, err := client.FetchPageInsights(context.Background(), "days_28")
	require.NoError(t, err)
	require.NotNil(t, resp)

	require.Len(t, resp.Data, 2)
	assert.Equal(t, "page_impressions", resp.Data[0].Name)
	assert.Equal(t, "days_28", resp.Data[0].Period)
	assert.Len(t, resp.Data[0].Values, 2)
	assert.Contains(t, string(resp.Raw), `"page_actions_post_reactions_total"`)

	assert.Equal(t, []string{"page_insights"}, server.Requests())
	assert.False(t, tl.HasError())
}

func TestFetchPageInsightsInvalidPeriod(t *testing.T) {
	client, server, _ := newTestClient(t)

	resp, err := client.FetchPageInsights(context.Background(), "month")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Equal(t, 0, server.RequestCount())
}

func TestFetchPageInsightsServerError(t *testing.T) {
	client, server, tl := newTestClient(t)
	server.SetErrorResponse("page_insights", http.StatusInternalServerError, `{"error":{"message":"Service unavailable"}}`)

	resp, err := client.FetchPageInsights(context.Background(), "day")
	assert.Nil(t, resp)
	require.Error(t, err)

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeServerError, apiErr.Type)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Code)
	assert.Equal(t, "Service unavailable", apiErr.Message)

	assert.True(t, tl.HasFieldContaining("ERROR", "error_message", "Service unavailable"))
	errorsLogged := tl.GetMessagesByLevel("ERROR")
	require.Len(t, errorsLogged, 1)
	assert.Equal(t, "500", errorsLogged[0].Field("status"))
}

func TestHandleResponseErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantType    errs.ErrorType
		wantMessage string
	}{
		{"graph error", http.StatusBadRequest, graphtest.GraphError("(#100) Invalid parameter", 100), errs.ErrorTypeUnknown, "(#100) Invalid parameter"},
		{"non json body", http.StatusBadGateway, "<html>Bad Gateway</html>", errs.ErrorTypeServerError, "<html>Bad Gateway</html>"},
		{"json without message", http.StatusNotFound, `{"error":{}}`, errs.ErrorTypeNotFound, noErrorMessage},
		{"json without error", http.StatusForbidden, `{"status":"fail"}`, errs.ErrorTypeAuth, noErrorMessage},
		{"expired token", http.StatusBadRequest, graphtest.GraphError("Error validating access token: Session has expired", 190), errs.ErrorTypeAuth, "Error validating access token: Session has expired"},
		{"throttled", http.StatusBadRequest, graphtest.GraphError("(#4) Application request limit reached", 4), errs.ErrorTypeRateLimit, "(#4) Application request limit reached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := logger.NewTestLogger()
			client, err := NewClient(testCredentials(), WithLogger(tl))
			require.NoError(t, err)

			req, _ := http.NewRequest(http.MethodGet, "https://graph.facebook.com/v19.0/1/insights?access_token=secret", nil)
			body, err := client.handleResponse(newResponse(req, tt.status, tt.body), false)
			assert.Nil(t, body)

			var apiErr *errs.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.status, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)

			assert.True(t, tl.HasFieldContaining("ERROR", "error_message", tt.wantMessage))
			assert.NotContains(t, tl.String(), "secret")
		})
	}
}

func TestHandleResponseSuppressed(t *testing.T) {
	tl := logger.NewTestLogger()
	client, err := NewClient(testCredentials(), WithLogger(tl))
	require.NoError(t, err)

	_, err = client.handleResponse(newResponse(nil, http.StatusNotFound, `{"error":{"message":"gone"}}`), true)
	require.Error(t, err)
	assert.Empty(t, tl.GetMessages())
}

func TestFetchRecentPosts(t *testing.T) {
	client, server, _ := newTestClient(t)
	for i, id := range []string{"654529707751538_1", "654529707751538_2", "654529707751538_3", "654529707751538_4"} {
		server.AddPost(id, "post "+string(rune('A'+i)), nil)
	}

	resp, err := client.FetchRecentPosts(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, resp.Data, 3)

	first := resp.Data[0]
	assert.Equal(t, "654529707751538_1", first.ID)
	assert.Equal(t, "post A", first.Message)
	assert.NotEmpty(t, first.CreatedTime)
	assert.Equal(t, "https://www.facebook.com/654529707751538/posts/1", first.PermalinkURL)
	assert.NotEmpty(t, first.Raw)

	require.NotNil(t, resp.Paging)
	require.NotNil(t, resp.Paging.Cursors)
	assert.NotEmpty(t, resp.Paging.Cursors.After)
}

func TestFetchRecentPostsInvalidLimit(t *testing.T) {
	client, server, _ := newTestClient(t)

	for _, limit := range []int{0, -1} {
		resp, err := client.FetchRecentPosts(context.Background(), limit)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	}
	assert.Equal(t, 0, server.RequestCount())
}

func TestFetchPostInsightsAllMetricsPresent(t *testing.T) {
	client, server, tl := newTestClient(t)
	server.AddPost("p1", "partial", map[string]interface{}{
		"post_impressions":          1500,
		"post_impressions_unique":   1200,
		"post_reactions_like_total": 42,
	})
	server.SetErrorResponse("p1/post_clicks", http.StatusNotFound, graphtest.GraphError("Unsupported get request", 100))

	insights, err := client.FetchPostInsights(context.Background(), "p1")
	require.NoError(t, err)

	require.Len(t, insights.Values, len(PostMetrics))
	for _, m := range PostMetrics {
		_, ok := insights.Values[m]
		assert.True(t, ok, "metric %s missing", m)
	}

	assert.Equal(t, json.Number("1500"), insights.Get("post_impressions"))
	assert.Equal(t, json.Number("1200"), insights.Get("post_impressions_unique"))
	assert.Equal(t, json.Number("42"), insights.Get("post_reactions_like_total"))
	assert.Equal(t, json.Number("0"), insights.Get("post_clicks"))
	assert.Equal(t, json.Number("0"), insights.Get("post_reactions_angry_total"))

	assert.True(t, insights.IsUnavailable("post_clicks"))
	assert.False(t, insights.IsUnavailable("post_impressions"))
	assert.Len(t, insights.UnavailableMetrics(), 7)

	// One request per metric, in order, and no error output
	requests := server.Requests()
	require.Len(t, requests, len(PostMetrics))
	for i, m := range PostMetrics {
		assert.Equal(t, "p1/"+m, requests[i])
	}
	assert.False(t, tl.HasError())
}

func TestFetchPostInsightsMalformedValues(t *testing.T) {
	client, server, _ := newTestClient(t)
	metrics := fullMetrics(1)
	metrics["post_clicks"] = map[string]int{"link clicks": 3}
	metrics["post_engaged_users"] = nil
	server.AddPost("p2", "odd values", metrics)

	insights, err := client.FetchPostInsights(context.Background(), "p2")
	require.NoError(t, err)

	assert.Equal(t, json.Number("0"), insights.Get("post_clicks"))
	assert.Equal(t, json.Number("0"), insights.Get("post_engaged_users"))
	assert.Equal(t, []string{"post_engaged_users", "post_clicks"}, insights.UnavailableMetrics())
	assert.Equal(t, json.Number("1"), insights.Get("post_impressions"))
}

func TestFetchPostInsightsTransportError(t *testing.T) {
	var calls int32
	hc := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 3 {
			return nil, errors.New("connection reset by peer")
		}
		return newResponse(req, http.StatusOK, `{"data":[{"name":"m","period":"lifetime","values":[{"value":7}]}]}`), nil
	})

	tl := logger.NewTestLogger()
	client, err := NewClient(testCredentials(), WithHTTPClient(hc), WithLogger(tl))
	require.NoError(t, err)

	_, err = client.FetchPostInsights(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, errs.IsNetwork(err))
	assert.True(t, IsFatal(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "processing stops at the failed request")
	assert.True(t, tl.HasMessage("HTTP request failed"))
}

func TestFetchPostInsightsUndecodableBody(t *testing.T) {
	hc := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(req, http.StatusOK, `<html>not json</html>`), nil
	})

	tl := logger.NewTestLogger()
	client, err := NewClient(testCredentials(), WithHTTPClient(hc), WithLogger(tl))
	require.NoError(t, err)

	insights, err := client.FetchPostInsights(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, insights.UnavailableMetrics(), len(PostMetrics))

	var unavailable []string
	for _, msg := range tl.GetMessagesByLevel("DEBUG") {
		if msg.Message == "metric unavailable" {
			assert.Equal(t, "p1", msg.Field("post_id"))
			unavailable = append(unavailable, msg.Field("metric"))
		}
	}
	assert.Equal(t, PostMetrics, unavailable)
}

func TestTransportErrorHidesToken(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	tl := logger.NewTestLogger()
	client, err := NewClient(testCredentials(), WithBaseURL(server.URL), WithLogger(tl))
	require.NoError(t, err)

	_, err = client.FetchPageInsights(context.Background(), "day")
	require.Error(t, err)
	assert.True(t, errs.IsNetwork(err))
	assert.True(t, tl.HasMessage("HTTP request failed"))

	assert.NotContains(t, err.Error(), graphtest.AccessToken)
	assert.NotContains(t, tl.String(), graphtest.AccessToken)
	assert.Contains(t, err.Error(), "access_token=REDACTED")
}

func TestFetchPostInsightsCancelled(t *testing.T) {
	client, server, _ := newTestClient(t)
	server.AddPost("p1", "slow", fullMetrics(1))
	server.SetDelay("p1/post_impressions", time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchPostInsights(ctx, "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsFatal(err))
}

func TestBuildPostAnalytics(t *testing.T) {
	client, server, _ := newTestClient(t)
	server.AddPost("p1", "hello", fullMetrics(100))

	posts, err := client.FetchRecentPosts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, posts.Data, 1)

	analytics, err := client.BuildPostAnalytics(context.Background(), posts.Data[0])
	require.NoError(t, err)

	assert.Equal(t, json.Number("100"), analytics.Summary.Impressions)
	assert.Equal(t, json.Number("101"), analytics.Summary.Reach)
	assert.Equal(t, json.Number("102"), analytics.Summary.EngagedUsers)
	assert.Equal(t, json.Number("103"), analytics.Summary.Clicks)
	assert.Equal(t, json.Number("104"), analytics.Summary.TotalLikes)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(analytics.PostDetails, &details))
	assert.Equal(t, "p1", details["id"])
	assert.Equal(t, "hello", details["message"])

	encoded, err := json.Marshal(analytics)
	require.NoError(t, err)
	var generic map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &generic))
	assert.Len(t, generic["summary"], 5)
	assert.Len(t, generic["insights"], len(PostMetrics))
}

func TestRetryRecoversFromServerError(t *testing.T) {
	var calls int32
	hc := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return newResponse(req, http.StatusServiceUnavailable, `{"error":{"message":"temporarily unavailable"}}`), nil
		}
		return newResponse(req, http.StatusOK, `{"data":[]}`), nil
	})

	client, err := NewClient(testCredentials(),
		WithHTTPClient(hc),
		WithLogger(logger.NewNopLogger()),
		WithRetry(&retry.Config{
			MaxAttempts: 3,
			Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
			RetryIf:     retry.DefaultRetryIf,
		}),
	)
	require.NoError(t, err)

	resp, err := client.FetchPageInsights(context.Background(), "week")
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNoRetryByDefault(t *testing.T) {
	var calls int32
	hc := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return newResponse(req, http.StatusServiceUnavailable, `{"error":{"message":"down"}}`), nil
	})

	client, err := NewClient(testCredentials(), WithHTTPClient(hc), WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)

	_, err = client.FetchRecentPosts(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRequestsCarryTokenButLogsDoNot(t *testing.T) {
	var seen []string
	hc := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		seen = append(seen, req.URL.String())
		return newResponse(req, http.StatusOK, `{"data":[]}`), nil
	})

	tl := logger.NewTestLogger()
	client, err := NewClient(testCredentials(), WithHTTPClient(hc), WithLogger(tl))
	require.NoError(t, err)

	_, err = client.FetchRecentPosts(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.True(t, strings.HasPrefix(seen[0], "https://graph.facebook.com/v19.0/"+graphtest.PageID+"/posts?"))
	assert.Contains(t, seen[0], "access_token="+graphtest.AccessToken)
	assert.Contains(t, seen[0], "fields=id%2Cmessage%2Ccreated_time%2Cpermalink_url")
	assert.Contains(t, seen[0], "limit=5")
	assert.NotContains(t, tl.String(), graphtest.AccessToken)
}

func TestInvalidTokenIsAuthError(t *testing.T) {
	server := graphtest.NewServer()
	defer server.Close()

	client, err := NewClient(
		Credentials{PageID: graphtest.PageID, AccessToken: "EAAwrong"},
		WithBaseURL(server.URL()),
		WithLogger(logger.NewNopLogger()),
	)
	require.NoError(t, err)

	_, err = client.FetchPageInsights(context.Background(), "day")
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
}

func TestRecoversOnceEndpointHeals(t *testing.T) {
	client, server, _ := newTestClient(t)
	server.SetErrorResponse("posts", http.StatusInternalServerError, graphtest.GraphError("An unexpected error has occurred", 2))

	_, err := client.FetchRecentPosts(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeServerError))

	server.ClearErrorResponse("posts")
	server.ResetCounters()

	resp, err := client.FetchRecentPosts(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
	assert.Equal(t, 1, server.RequestCount())
	assert.Equal(t, []string{"posts"}, server.Requests())
}
