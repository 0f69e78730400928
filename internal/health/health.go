// Package health reports liveness and readiness over HTTP and the standard gRPC health service.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger checks a dependency, typically the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker checks readiness. A nil pinger is always ready.
type Checker struct {
	pinger  Pinger
	timeout time.Duration
}

// NewChecker returns a Checker pinging p.
func NewChecker(p Pinger) *Checker {
	return &Checker{pinger: p, timeout: 2 * time.Second}
}

// Check returns the dependency error, if any.
func (c *Checker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.pinger.Ping(ctx)
}

// Live always answers 200.
func (c *Checker) Live(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

// Ready answers 200 when dependencies respond and 503 otherwise.
func (c *Checker) Ready(w http.ResponseWriter, r *http.Request) {
	if err := c.Check(r.Context()); err != nil {
		writeStatus(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	writeStatus(w, http.StatusOK, "ok")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// Watch keeps the overall status of srv in line with Check until ctx is done.
func (c *Checker) Watch(ctx context.Context, srv *health.Server, interval time.Duration) {
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if err := c.Check(ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		srv.SetServingStatus("", status)
	}
	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
