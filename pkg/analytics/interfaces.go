package analytics

import (
	"context"

	"fbinsights/pkg/graph"
)

// InsightsClient defines the Graph API operations the collector needs
type InsightsClient interface {
	FetchPageInsights(ctx context.Context, period string) (*graph.InsightsResponse, error)
	FetchRecentPosts(ctx context.Context, limit int) (*graph.PostsResponse, error)
	BuildPostAnalytics(ctx context.Context, post graph.Post) (*graph.PostAnalytics, error)
}

// Stages of a run, in order
const (
	StagePageInsights = "page_insights"
	StagePosts        = "posts"
	StagePostInsights = "post_insights"
)

// Observer follows the progress of a run. Calls come from the goroutine
// running the collector.
type Observer interface {
	StageStarted(stage string)
	StageFailed(stage string, err error)
	PostStarted(index, total int, postID string)
	PostDone(index, total int, analytics *graph.PostAnalytics)
}

type nopObserver struct{}

func (nopObserver) StageStarted(string)                     {}
func (nopObserver) StageFailed(string, error)               {}
func (nopObserver) PostStarted(int, int, string)            {}
func (nopObserver) PostDone(int, int, *graph.PostAnalytics) {}
