// Package sched runs periodic tasks on dedicated tickers with an explicit
// at-most-one-concurrent-cycle guarantee per task.
package sched
