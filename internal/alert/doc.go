// Package alert evaluates the dynamic threshold against the latest sample and
// delivers notifications on breach. Delivery channels: webhooks (Slack,
// Teams, generic HTTP) and an optional Kafka topic.
package alert
