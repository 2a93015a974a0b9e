package analytics

import (
	"encoding/json"
	"time"

	"fbinsights/pkg/graph"
)

// CleanReport is the processed summary written to facebook_analytics.json
type CleanReport struct {
	PageLevelSummary           map[string]json.RawMessage `json:"page_level_summary"`
	ComprehensivePostAnalytics []graph.PostAnalytics      `json:"comprehensive_post_analytics"`
}

// RawArchive keeps the API bodies as received, written to
// facebook_analytics_all_data.json. A failed call is stored as null.
type RawArchive struct {
	RawPageInsights json.RawMessage `json:"raw_page_insights"`
	PagePostsList   json.RawMessage `json:"page_posts_list"`
}

// Result is everything one collection run produced
type Result struct {
	Clean CleanReport
	Raw   RawArchive

	PageID    string
	Period    string
	StartedAt time.Time
	Duration  time.Duration

	// PageInsightsErr and PostsErr hold the API errors that were degraded
	// to empty results
	PageInsightsErr error
	PostsErr        error
}

// UnavailableMetricCount totals the post metrics the API did not report
func (r *Result) UnavailableMetricCount() int {
	n := 0
	for _, p := range r.Clean.ComprehensivePostAnalytics {
		n += len(p.Insights.UnavailableMetrics())
	}
	return n
}

// SummarizePage maps every page metric to the value of its latest point,
// or 0 when the metric has no value. A nil response yields an empty map.
func SummarizePage(resp *graph.InsightsResponse) map[string]json.RawMessage {
	summary := make(map[string]json.RawMessage)
	if resp == nil {
		return summary
	}
	for _, metric := range resp.Data {
		summary[metric.Name] = graph.ValueOrZero(graph.LastValue(metric))
	}
	return summary
}
