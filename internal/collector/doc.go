// Package collector implements the periodic sampling cycle: fetch the current
// metric value from the source and append it to the time-series store.
package collector
