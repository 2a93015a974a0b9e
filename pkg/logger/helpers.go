package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs one Graph API call at debug level. url must already be
// free of the access token.
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	msg := "Graph API request completed"
	switch {
	case statusCode >= 500:
		msg = "Graph API server error"
	case statusCode >= 400:
		msg = "Graph API client error"
	}

	l.DebugWithFields(msg, map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	})
}

// LogProgress logs that done of total items of a stage are finished
func LogProgress(l Logger, stage string, done, total int) {
	fields := map[string]interface{}{
		"stage": stage,
		"done":  done,
		"total": total,
	}
	if total > 0 {
		fields["percent"] = done * 100 / total
	}
	l.InfoWithFields("Progress", fields)
}

// NewNopLogger returns a Logger that discards everything
func NewNopLogger() Logger {
	return zerologLogger{zl: zerolog.Nop()}
}
