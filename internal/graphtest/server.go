// Package graphtest runs an in-process stand-in for the Facebook Graph API.
package graphtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// PageID is the page served by default
	PageID = "654529707751538"
	// AccessToken is the token the server accepts by default
	AccessToken = "EAAtestpagetoken"
	// Version is the API version prefix the server routes on
	Version = "v19.0"
)

// Response is a canned reply for an endpoint
type Response struct {
	Status int
	Body   string
}

// Server simulates the Graph API endpoints used for page analytics
type Server struct {
	server       *httptest.Server
	requestCount int32

	mu             sync.RWMutex
	pageID         string
	token          string
	pageInsights   []map[string]interface{}
	posts          []map[string]interface{}
	postMetrics    map[string]map[string]interface{}
	errorResponses map[string]Response
	delays         map[string]time.Duration
	requests       []string
	exchanged      []string
}

// NewServer starts a mock Graph API server with no posts and no insights
func NewServer() *Server {
	s := &Server{
		pageID:         PageID,
		token:          AccessToken,
		postMetrics:    make(map[string]map[string]interface{}),
		errorResponses: make(map[string]Response),
		delays:         make(map[string]time.Duration),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /"+Version+"/oauth/access_token", s.handleTokenExchange)
	mux.HandleFunc("POST /"+Version+"/oauth/access_token", s.handleTokenExchange)
	mux.HandleFunc("GET /"+Version+"/{object}/{edge}", s.handleEdge)

	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the base URL to configure clients with
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts down the server
func (s *Server) Close() {
	s.server.Close()
}

// SetPageInsights sets the metrics returned by the page insights edge
func (s *Server) SetPageInsights(metrics ...map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageInsights = metrics
}

// AddPost appends a post with the given lifetime metric values. Metrics not
// listed are refused the way the Graph API refuses unsupported metrics.
func (s *Server) AddPost(id, message string, metrics map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts = append(s.posts, map[string]interface{}{
		"id":            id,
		"message":       message,
		"created_time":  "2024-05-0" + strconv.Itoa(len(s.posts)%9+1) + "T10:00:00+0000",
		"permalink_url": "https://www.facebook.com/" + strings.ReplaceAll(id, "_", "/posts/"),
	})
	s.postMetrics[id] = metrics
}

// SetErrorResponse makes an endpoint fail. Keys are "page_insights",
// "posts", "oauth/access_token" or "<post_id>/<metric>".
func (s *Server) SetErrorResponse(key string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorResponses[key] = Response{Status: status, Body: body}
}

// ClearErrorResponse removes a configured failure
func (s *Server) ClearErrorResponse(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.errorResponses, key)
}

// SetDelay delays responses for a key, see SetErrorResponse
func (s *Server) SetDelay(key string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[key] = delay
}

// RequestCount returns the number of requests served
func (s *Server) RequestCount() int {
	return int(atomic.LoadInt32(&s.requestCount))
}

// Requests returns the served request keys in order
func (s *Server) Requests() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.requests...)
}

// ExchangedTokens returns the short-lived tokens seen by the oauth endpoint
func (s *Server) ExchangedTokens() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.exchanged...)
}

// ResetCounters clears request bookkeeping
func (s *Server) ResetCounters() {
	atomic.StoreInt32(&s.requestCount, 0)
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

func (s *Server) handleEdge(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)

	object := r.PathValue("object")
	edge := r.PathValue("edge")
	query := r.URL.Query()

	key := s.keyFor(object, edge, query.Get("metric"))
	s.record(key)

	if delay := s.getDelay(key); delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if resp, ok := s.getErrorResponse(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.Status)
		fmt.Fprint(w, resp.Body)
		return
	}

	if query.Get("access_token") != s.token {
		s.sendError(w, http.StatusBadRequest, 190, "Invalid OAuth access token - Cannot parse access token")
		return
	}

	switch {
	case object == s.pageID && edge == "insights":
		s.handlePageInsights(w, query.Get("period"))
	case object == s.pageID && edge == "posts":
		s.handlePosts(w, query.Get("limit"))
	case edge == "insights":
		s.handlePostInsight(w, object, query.Get("metric"), query.Get("period"))
	default:
		s.sendError(w, http.StatusBadRequest, 100, fmt.Sprintf("Tried accessing nonexisting field (%s) on node type (Page)", edge))
	}
}

func (s *Server) handlePageInsights(w http.ResponseWriter, period string) {
	s.mu.RLock()
	data := make([]map[string]interface{}, 0, len(s.pageInsights))
	for _, m := range s.pageInsights {
		metric := make(map[string]interface{}, len(m)+1)
		for k, v := range m {
			metric[k] = v
		}
		if _, ok := metric["period"]; !ok {
			metric["period"] = period
		}
		data = append(data, metric)
	}
	s.mu.RUnlock()

	s.sendJSON(w, map[string]interface{}{"data": data})
}

func (s *Server) handlePosts(w http.ResponseWriter, limitParam string) {
	limit, err := strconv.Atoi(limitParam)
	if err != nil || limit <= 0 {
		s.sendError(w, http.StatusBadRequest, 100, "(#100) Param limit must be a positive integer")
		return
	}

	s.mu.RLock()
	posts := s.posts
	if limit < len(posts) {
		posts = posts[:limit]
	}
	data := append([]map[string]interface{}(nil), posts...)
	s.mu.RUnlock()

	body := map[string]interface{}{"data": data}
	if len(data) > 0 {
		body["paging"] = map[string]interface{}{
			"cursors": map[string]interface{}{
				"before": "QVFIUmJ",
				"after":  "QVFIUnZ",
			},
		}
	}
	s.sendJSON(w, body)
}

func (s *Server) handlePostInsight(w http.ResponseWriter, postID, metric, period string) {
	s.mu.RLock()
	metrics, known := s.postMetrics[postID]
	value, reported := metrics[metric]
	s.mu.RUnlock()

	if !known {
		s.sendError(w, http.StatusBadRequest, 100, fmt.Sprintf("(#100) Object with ID '%s' does not exist", postID))
		return
	}
	if !reported {
		s.sendError(w, http.StatusBadRequest, 100, "(#100) The value must be a valid insights metric")
		return
	}

	s.sendJSON(w, map[string]interface{}{
		"data": []map[string]interface{}{{
			"name":   metric,
			"period": period,
			"values": []map[string]interface{}{{"value": value}},
			"title":  "Lifetime " + metric,
			"id":     postID + "/insights/" + metric + "/" + period,
		}},
	})
}

// handleTokenExchange answers the fb_exchange_token grant
func (s *Server) handleTokenExchange(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)
	s.record("oauth/access_token")

	if resp, ok := s.getErrorResponse("oauth/access_token"); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.Status)
		fmt.Fprint(w, resp.Body)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.sendError(w, http.StatusBadRequest, 100, "malformed request")
		return
	}
	if r.Form.Get("grant_type") != "fb_exchange_token" {
		s.sendError(w, http.StatusBadRequest, 100, "Unsupported grant_type")
		return
	}
	short := r.Form.Get("fb_exchange_token")
	if short == "" || r.Form.Get("client_id") == "" || r.Form.Get("client_secret") == "" {
		s.sendError(w, http.StatusBadRequest, 101, "Missing client_id, client_secret or fb_exchange_token")
		return
	}

	s.mu.Lock()
	s.exchanged = append(s.exchanged, short)
	s.mu.Unlock()

	s.sendJSON(w, map[string]interface{}{
		"access_token": "EAAlonglived" + short,
		"token_type":   "bearer",
		"expires_in":   5183944,
	})
}

func (s *Server) keyFor(object, edge, metric string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case object == s.pageID && edge == "insights":
		return "page_insights"
	case object == s.pageID && edge == "posts":
		return "posts"
	case edge == "insights":
		return object + "/" + metric
	default:
		return object + "/" + edge
	}
}

func (s *Server) record(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, key)
}

func (s *Server) getErrorResponse(key string) (Response, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.errorResponses[key]
	return resp, ok
}

func (s *Server) getDelay(key string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delays[key]
}

// sendError writes an error in the Graph API envelope
func (s *Server) sendError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message":    message,
			"type":       "OAuthException",
			"code":       code,
			"fbtrace_id": "AbCdEfGh123",
		},
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// GraphError renders a Graph API error body
func GraphError(message string, code int) string {
	data, _ := json.Marshal(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "OAuthException",
			"code":    code,
		},
	})
	return string(data)
}
