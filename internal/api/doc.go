// Package api serves the read-only HTTP endpoints: health, sample range
// queries, the latest observation with its threshold, and recent alerts.
package api
