package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/pulsewatch/pulsewatch/internal/config"
)

// promSource reads a Prometheus text exposition endpoint and extracts the
// configured metric family. Counter, gauge, and untyped series within the
// family are summed, so a family split across label sets still yields one
// value per fetch.
type promSource struct {
	cfg    config.SourceConfig
	client *http.Client
}

func (s *promSource) Fetch(ctx context.Context) (float64, error) {
	resp, err := get(ctx, s.client, s.cfg.Endpoint, string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	mfs, err := parseExposition(resp.Body)
	if err != nil {
		return 0, err
	}

	mf, ok := mfs[s.cfg.Metric]
	if !ok {
		return 0, fmt.Errorf("%w: metric family %q absent", ErrMalformedResponse, s.cfg.Metric)
	}
	return sumFamily(mf), nil
}

// parseExposition decodes a Prometheus text exposition from r into metric
// families. A partial result with a non-fatal parse warning is still returned
// successfully.
func parseExposition(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("%w: parse prometheus text: %v", ErrMalformedResponse, err)
	}
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
func sumFamily(mf *dto.MetricFamily) float64 {
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}
