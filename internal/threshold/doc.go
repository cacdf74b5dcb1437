// Package threshold computes the dynamic alert threshold from the trailing
// average of recent samples. This is intentionally a simple moving-average
// bound, not a statistical anomaly model.
package threshold
