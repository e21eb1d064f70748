package httpapi

import "context"

// HealthOutput is the output of the health check endpoint.
type HealthOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Health reports the service as up. It carries no dependency checks: the
// store and browser context manager fail fast at startup rather than
// degrading into a reportable unhealthy state at request time.
func Health(ctx context.Context, input *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "ok"
	return out, nil
}
