package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fbinsights/pkg/config"
	"fbinsights/pkg/graph"
	"fbinsights/pkg/logger"
)

// Options select what a run collects
type Options struct {
	PageID    string
	Period    string
	PostLimit int
}

// OptionsFromConfig reads the run options from the application configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PageID:    cfg.Facebook.PageID,
		Period:    cfg.Fetch.Period,
		PostLimit: cfg.Fetch.PostLimit,
	}
}

// Collector orchestrates one analytics run: page insights, the recent post
// list, then every post's insights in order
type Collector struct {
	client   InsightsClient
	opts     Options
	logger   logger.Logger
	observer Observer
}

// New creates a Collector
func New(client InsightsClient, opts Options, log logger.Logger) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{
		client:   client,
		opts:     opts,
		logger:   log,
		observer: nopObserver{},
	}
}

// SetObserver registers o to follow the progress of Run
func (c *Collector) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	c.observer = o
}

// Run performs the collection. API errors are logged and leave the
// affected part empty. Transport failures, cancellation and invalid
// arguments abort the run.
func (c *Collector) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		PageID:    c.opts.PageID,
		Period:    c.opts.Period,
		StartedAt: time.Now(),
	}

	c.logger.InfoWithFields("Starting analytics collection", map[string]interface{}{
		"page_id":    c.opts.PageID,
		"period":     c.opts.Period,
		"post_limit": c.opts.PostLimit,
	})

	c.observer.StageStarted(StagePageInsights)
	pageInsights, err := c.client.FetchPageInsights(ctx, c.opts.Period)
	if err != nil {
		c.observer.StageFailed(StagePageInsights, err)
		if abort(err) {
			return nil, fmt.Errorf("fetch page insights: %w", err)
		}
		result.PageInsightsErr = err
		c.logger.WithError(err).Warn("Page insights unavailable, continuing without them")
	}

	c.observer.StageStarted(StagePosts)
	posts, err := c.client.FetchRecentPosts(ctx, c.opts.PostLimit)
	if err != nil {
		c.observer.StageFailed(StagePosts, err)
		if abort(err) {
			return nil, fmt.Errorf("fetch recent posts: %w", err)
		}
		result.PostsErr = err
		c.logger.WithError(err).Warn("Post list unavailable, skipping post analytics")
	}

	postAnalytics := make([]graph.PostAnalytics, 0)
	if posts != nil {
		c.observer.StageStarted(StagePostInsights)
		total := len(posts.Data)
		for i, post := range posts.Data {
			c.observer.PostStarted(i, total, post.ID)
			analytics, err := c.client.BuildPostAnalytics(ctx, post)
			if err != nil {
				c.observer.StageFailed(StagePostInsights, err)
				return nil, fmt.Errorf("analyze post %s: %w", post.ID, err)
			}
			c.observer.PostDone(i, total, analytics)
			postAnalytics = append(postAnalytics, *analytics)
			logger.LogProgress(c.logger, "post_analytics", i+1, total)
		}
	}

	result.Clean = CleanReport{
		PageLevelSummary:           SummarizePage(pageInsights),
		ComprehensivePostAnalytics: postAnalytics,
	}
	if pageInsights != nil {
		result.Raw.RawPageInsights = pageInsights.Raw
	}
	if posts != nil {
		result.Raw.PagePostsList = posts.Raw
	}
	result.Duration = time.Since(result.StartedAt)

	c.logger.InfoWithFields("Analytics collection complete", map[string]interface{}{
		"page_metrics":        len(result.Clean.PageLevelSummary),
		"posts":               len(postAnalytics),
		"unavailable_metrics": result.UnavailableMetricCount(),
		"duration":            result.Duration,
	})

	return result, nil
}

// abort reports whether err ends the run instead of degrading to no data
func abort(err error) bool {
	return graph.IsFatal(err) ||
		errors.Is(err, graph.ErrInvalidPeriod) ||
		errors.Is(err, graph.ErrInvalidLimit)
}
