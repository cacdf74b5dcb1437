package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pulsewatch/pulsewatch/internal/config"
)

// actuatorSource reads a Spring Boot Actuator style metric endpoint:
// a JSON body with a "measurements" array whose first element carries a
// numeric "value" field. Any other shape is ErrMalformedResponse.
type actuatorSource struct {
	cfg    config.SourceConfig
	client *http.Client
}

// actuatorBody mirrors the subset of the response we read. Value is a pointer
// so an absent field is distinguishable from an explicit zero.
type actuatorBody struct {
	Measurements []struct {
		Value *float64 `json:"value"`
	} `json:"measurements"`
}

func (s *actuatorSource) Fetch(ctx context.Context) (float64, error) {
	resp, err := get(ctx, s.client, s.cfg.Endpoint, "application/json")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var body actuatorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: parse json: %v", ErrMalformedResponse, err)
	}
	if len(body.Measurements) == 0 {
		return 0, fmt.Errorf("%w: measurements array absent or empty", ErrMalformedResponse)
	}
	if body.Measurements[0].Value == nil {
		return 0, fmt.Errorf("%w: measurements[0].value absent or not numeric", ErrMalformedResponse)
	}
	return *body.Measurements[0].Value, nil
}
