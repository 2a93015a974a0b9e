package graph

import (
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the Graph API host
	DefaultBaseURL = "https://graph.facebook.com"

	// DefaultAPIVersion is the Graph API version requests are pinned to
	DefaultAPIVersion = "v19.0"

	// InsightsEdge is the edge serving page and post insights
	InsightsEdge = "insights"

	// PostsEdge is the edge listing a page's posts
	PostsEdge = "posts"

	// LifetimePeriod requests cumulative, non-windowed values
	LifetimePeriod = "lifetime"

	// PostFields are the post attributes requested from the posts edge
	PostFields = "id,message,created_time,permalink_url"
)

// PageMetrics are requested together in a single page insights call
var PageMetrics = []string{
	"page_impressions",
	"page_post_engagements",
	"page_fans",
	"page_actions_post_reactions_total",
}

// PostMetrics are requested one by one for every post, in this order.
// Some of them are not reported for every post type, which is why they
// are not batched.
var PostMetrics = []string{
	"post_impressions",
	"post_impressions_unique",
	"post_engaged_users",
	"post_clicks",
	"post_reactions_like_total",
	"post_reactions_love_total",
	"post_reactions_wow_total",
	"post_reactions_haha_total",
	"post_reactions_sad_total",
	"post_reactions_angry_total",
}

// BuildURL constructs <base>/<version>/<objectID>/<edge>?<params>
func BuildURL(baseURL, version, objectID, edge string, params url.Values) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	b.WriteByte('/')
	b.WriteString(version)
	b.WriteByte('/')
	b.WriteString(url.PathEscape(objectID))
	b.WriteByte('/')
	b.WriteString(edge)
	if len(params) > 0 {
		b.WriteByte('?')
		b.WriteString(params.Encode())
	}
	return b.String()
}

// redactURL strips the access token from a URL before it is logged
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
