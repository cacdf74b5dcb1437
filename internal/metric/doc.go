// Package metric defines the shared data types passed between the collector,
// the store, the evaluator, and the notification surfaces.
package metric
