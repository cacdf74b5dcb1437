// Package ws streams the current monitoring status (latest sample, dynamic
// threshold, recent alerts) to WebSocket clients on a fixed interval.
package ws
