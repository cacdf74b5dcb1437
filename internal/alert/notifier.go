package alert

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pulsewatch/pulsewatch/internal/config"
	"github.com/pulsewatch/pulsewatch/internal/metric"
	"github.com/pulsewatch/pulsewatch/internal/metrics"
)

// ErrDeliveryFailed wraps any notification delivery failure. Deliveries are
// not retried here; retry policy belongs to the receiving channel.
var ErrDeliveryFailed = errors.New("alert: delivery failed")

// Notifier delivers an alert to one external channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a metric.Alert) error
	Close() error
}

// multiNotifier fans an alert out to every configured channel. A failing
// channel is logged and counted but never blocks the others, and Notify
// itself never returns an error; delivery failures must not abort the
// evaluation cycle that produced the alert.
type multiNotifier struct {
	targets []Notifier
}

// Build constructs the Notifier tree from configuration. With no targets
// configured the returned Notifier is a no-op.
func Build(cfg config.NotifierConfig) Notifier {
	var targets []Notifier
	for _, wh := range cfg.Webhooks {
		targets = append(targets, NewWebhook(wh))
	}
	if cfg.Kafka.Enabled() {
		targets = append(targets, NewKafka(cfg.Kafka))
	}
	if len(targets) == 0 {
		slog.Warn("alert: no notification channels configured, alerts will only be logged")
	}
	return &multiNotifier{targets: targets}
}

func (m *multiNotifier) Name() string { return "multi" }

func (m *multiNotifier) Notify(ctx context.Context, a metric.Alert) error {
	for _, n := range m.targets {
		if err := n.Notify(ctx, a); err != nil {
			metrics.NotifierDeliveries.WithLabelValues(n.Name(), "error").Inc()
			slog.Error("alert: delivery failed",
				"channel", n.Name(),
				"alert", a.ID,
				"series", a.Series,
				"err", err,
			)
			continue
		}
		metrics.NotifierDeliveries.WithLabelValues(n.Name(), "ok").Inc()
		slog.Debug("alert: delivered", "channel", n.Name(), "alert", a.ID)
	}
	return nil
}

func (m *multiNotifier) Close() error {
	var errs []error
	for _, n := range m.targets {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
