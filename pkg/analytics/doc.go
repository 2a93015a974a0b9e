// Package analytics assembles a page's analytics from the Graph API client.
//
// The Collector runs the fixed, sequential pipeline:
//   - page insights for the configured period
//   - the list of recent posts
//   - for each post, its lifetime metrics and five-field summary
//
// and returns both artifacts: the CleanReport (page summary plus per-post
// analytics) and the RawArchive (the untouched response bodies).
//
// A failed page insights or post list call leaves that part empty and the
// run continues. A transport failure aborts the whole run.
//
// Usage:
//
//	client, err := graph.NewClientFromConfig(cfg, log)
//	if err != nil {
//	    return err
//	}
//	result, err := analytics.New(client, analytics.OptionsFromConfig(cfg), log).Run(ctx)
package analytics
