// Package graph provides a client for the Facebook Graph API page analytics
// endpoints.
//
// This package includes:
//   - A Client bound to one page's credentials, refusing placeholder values
//   - Typed models for insights and posts that keep the raw response bodies
//   - Extraction helpers that make the "missing value means 0" rule explicit
//   - Optional request pacing and retries, both off by default
//
// Requests are issued one at a time. Per-post metrics are fetched one
// request per metric so that a metric the API refuses for a given post
// type only zeroes that metric.
//
// Example usage:
//
//	client, err := graph.NewClient(graph.Credentials{
//	    PageID:      pageID,
//	    AccessToken: token,
//	})
//	if err != nil {
//	    return err // placeholder credentials
//	}
//
//	posts, err := client.FetchRecentPosts(ctx, 3)
//	if err != nil {
//	    if graph.IsFatal(err) {
//	        return err
//	    }
//	    // API error: already logged, carry on without posts
//	}
//	for _, post := range posts.Data {
//	    analytics, err := client.BuildPostAnalytics(ctx, post)
//	    ...
//	}
package graph
