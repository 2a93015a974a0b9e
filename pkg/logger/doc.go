// Package logger provides structured, leveled logging for fbinsights.
//
// It wraps zerolog behind a small Logger interface so packages can accept
// a logger without depending on zerolog directly, and so tests can swap
// in a TestLogger that records every entry.
//
// Basic usage:
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("page_id", pageID).Info("Fetching page insights")
//	logger.WithError(err).Error("Run failed")
//
// Structured usage:
//
//	log.ErrorWithFields("Graph API error", map[string]interface{}{
//	    "status":  500,
//	    "message": "Service unavailable",
//	})
//
// Console output is colored text on stderr. Set format to "json" for
// machine-readable output, or set a file to mirror entries to disk.
package logger
