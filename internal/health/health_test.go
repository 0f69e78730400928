package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

func TestChecker_Ready(t *testing.T) {
	cases := []struct {
		name   string
		pinger Pinger
		want   int
	}{
		{"nil pinger", nil, http.StatusOK},
		{"ping ok", &mockPinger{}, http.StatusOK},
		{"ping fails", &mockPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewChecker(tc.pinger).Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestChecker_Live(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker(&mockPinger{err: errors.New("down")}).Live(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChecker_Watch(t *testing.T) {
	srv := health.NewServer()
	p := &mockPinger{err: errors.New("down")}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewChecker(p).Watch(ctx, srv, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool {
		resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
