// Package store provides the append-only time-series sample store. Two
// backends implement the same contract: an embedded badger database (the
// default) and a Postgres table for deployments that already run one.
package store
