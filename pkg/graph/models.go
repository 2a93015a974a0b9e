package graph

import (
	"encoding/json"
	"fmt"
)

// InsightValue is one point of an insight time series. Value stays raw
// because some metrics report objects (reaction breakdowns) instead of
// plain counts.
type InsightValue struct {
	Value   json.RawMessage `json:"value,omitempty"`
	EndTime string          `json:"end_time,omitempty"`
}

// InsightMetric is a named metric with its time series
type InsightMetric struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Period      string         `json:"period"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Values      []InsightValue `json:"values"`
}

// Cursors are the paging cursors returned with list responses
type Cursors struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Paging links a list response to its neighbours
type Paging struct {
	Cursors  *Cursors `json:"cursors,omitempty"`
	Previous string   `json:"previous,omitempty"`
	Next     string   `json:"next,omitempty"`
}

// InsightsResponse is the body of an insights edge call
type InsightsResponse struct {
	Data   []InsightMetric `json:"data"`
	Paging *Paging         `json:"paging,omitempty"`

	// Raw is the body exactly as received
	Raw json.RawMessage `json:"-"`
}

// Post is a page post as returned by the posts edge
type Post struct {
	ID           string `json:"id"`
	Message      string `json:"message,omitempty"`
	CreatedTime  string `json:"created_time,omitempty"`
	PermalinkURL string `json:"permalink_url,omitempty"`

	// Raw is the post object exactly as received
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the original object
func (p *Post) UnmarshalJSON(data []byte) error {
	type plain Post
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Post(decoded)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Details returns the post in its wire form
func (p Post) Details() (json.RawMessage, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	type plain Post
	return json.Marshal(plain(p))
}

// PostsResponse is the body of a posts edge call
type PostsResponse struct {
	Data   []Post  `json:"data"`
	Paging *Paging `json:"paging,omitempty"`

	// Raw is the body exactly as received
	Raw json.RawMessage `json:"-"`
}

// PostInsights maps every metric in PostMetrics to its lifetime value.
// Metrics the API did not report hold 0 and are listed in Unavailable,
// which is never serialized.
type PostInsights struct {
	Values      map[string]json.Number
	Unavailable map[string]bool
}

// NewPostInsights returns insights with every metric set to 0 and unavailable
func NewPostInsights() PostInsights {
	p := PostInsights{
		Values:      make(map[string]json.Number, len(PostMetrics)),
		Unavailable: make(map[string]bool, len(PostMetrics)),
	}
	for _, m := range PostMetrics {
		p.Values[m] = zero
		p.Unavailable[m] = true
	}
	return p
}

// Set records a reported value for metric
func (p PostInsights) Set(metric string, value json.Number) {
	p.Values[metric] = value
	delete(p.Unavailable, metric)
}

// Get returns the value of metric, or 0 when it is absent
func (p PostInsights) Get(metric string) json.Number {
	if v, ok := p.Values[metric]; ok && v != "" {
		return v
	}
	return zero
}

// IsUnavailable reports whether the API did not report metric
func (p PostInsights) IsUnavailable(metric string) bool {
	return p.Unavailable[metric]
}

// UnavailableMetrics returns the unreported metrics in PostMetrics order
func (p PostInsights) UnavailableMetrics() []string {
	var out []string
	for _, m := range PostMetrics {
		if p.Unavailable[m] {
			out = append(out, m)
		}
	}
	return out
}

func (p PostInsights) MarshalJSON() ([]byte, error) {
	if p.Values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Values)
}

func (p *PostInsights) UnmarshalJSON(data []byte) error {
	var values map[string]json.Number
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decode post insights: %w", err)
	}
	p.Values = values
	p.Unavailable = nil
	return nil
}

// Summary is the fixed five-field digest of a post's insights
type Summary struct {
	Impressions  json.Number `json:"impressions"`
	Reach        json.Number `json:"reach"`
	EngagedUsers json.Number `json:"engaged_users"`
	Clicks       json.Number `json:"clicks"`
	TotalLikes   json.Number `json:"total_likes"`
}

// Summarize derives the Summary from insights, defaulting to 0
func Summarize(insights PostInsights) Summary {
	return Summary{
		Impressions:  insights.Get("post_impressions"),
		Reach:        insights.Get("post_impressions_unique"),
		EngagedUsers: insights.Get("post_engaged_users"),
		Clicks:       insights.Get("post_clicks"),
		TotalLikes:   insights.Get("post_reactions_like_total"),
	}
}

// PostAnalytics is a post with its insights and summary
type PostAnalytics struct {
	PostDetails json.RawMessage `json:"post_details"`
	Insights    PostInsights    `json:"insights"`
	Summary     Summary         `json:"summary"`
}

// APIError is the error object the Graph API returns on failure
type APIError struct {
	Message      string `json:"message"`
	Type         string `json:"type,omitempty"`
	Code         int    `json:"code,omitempty"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
	FBTraceID    string `json:"fbtrace_id,omitempty"`
}
