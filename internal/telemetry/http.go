package telemetry

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TracingMiddleware wraps an http.Handler so each incoming request gets a
// span and inbound trace context is honored. Health probes are excluded to
// keep traces useful.
func TracingMiddleware(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		traced := otelhttp.NewHandler(next, operation)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			traced.ServeHTTP(w, r)
		})
	}
}

// NewTracedHTTPClient returns an HTTP client whose transport creates client
// spans and propagates trace context to downstream services.
func NewTracedHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   timeout,
	}
}
