// Package history keeps a local SQLite record of collection runs.
//
// Each run stores its page summary and the five-field summary of every
// analyzed post, so trends can be compared across runs without re-reading
// the JSON reports. The database uses the pure Go modernc.org/sqlite driver.
package history
