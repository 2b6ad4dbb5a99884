// Package metrics provides Prometheus metrics for the console.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API request metrics
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transferdesk_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"method", "route", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transferdesk_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Transfer metrics
	bytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transferdesk_bytes_uploaded_total",
			Help: "Total bytes uploaded",
		},
	)

	bytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transferdesk_bytes_downloaded_total",
			Help: "Total bytes downloaded",
		},
	)

	fileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transferdesk_file_operations_total",
			Help: "Total file operations by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	// Session metrics
	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transferdesk_login_attempts_total",
			Help: "Total login attempts",
		},
		[]string{"result"},
	)

	// Event metrics
	eventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transferdesk_event_subscribers",
			Help: "Number of active event subscribers",
		},
	)

	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transferdesk_events_total",
			Help: "Total store events published",
		},
		[]string{"type"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest records a backend request. status 0 means no response.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	apiRequestsTotal.WithLabelValues(method, route, code).Inc()
	apiRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpload records bytes sent by an upload.
func RecordUpload(bytes int64) {
	bytesUploaded.Add(float64(bytes))
}

// RecordDownload records bytes received by a download.
func RecordDownload(bytes int64) {
	bytesDownloaded.Add(float64(bytes))
}

// RecordFileOperation records the outcome of a file operation.
func RecordFileOperation(kind string, success bool) {
	fileOperationsTotal.WithLabelValues(kind, outcome(success)).Inc()
}

// RecordLogin records a login attempt.
func RecordLogin(success bool) {
	loginAttemptsTotal.WithLabelValues(outcome(success)).Inc()
}

// SetEventSubscribers sets the number of active event subscribers.
func SetEventSubscribers(count int) {
	eventSubscribers.Set(float64(count))
}

// RecordEvent records a published store event.
func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Transport wraps next so every round trip is recorded.
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		status := 0
		if err == nil {
			status = resp.StatusCode
		}
		RecordAPIRequest(req.Method, Route(req.URL.Path), status, time.Since(start))
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// routeSegments are the fixed path segments of the backend API. Anything
// else is an identifier and collapses to {id}.
var routeSegments = map[string]bool{
	"api": true, "auth": true, "login": true, "me": true,
	"files": true, "upload": true, "download": true, "download-by-path": true,
	"move": true, "copy": true, "rename": true, "folder": true, "share": true,
	"search": true, "preview": true, "storage-stats": true,
	"users": true, "folders": true, "sftp": true, "sftp-password": true,
	"sftp-ssh-key": true, "generate-ssh-key": true, "regenerate-ssh-keys": true,
	"activity": true, "export": true,
	"stats": true, "dashboard": true, "storage": true,
	"status": true, "connect": true, "connections": true, "logs": true,
	"server": true, "start": true, "stop": true,
}

// Route reduces a request path to a low-cardinality label.
func Route(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if routeSegments[p] {
			out = append(out, p)
			continue
		}
		if n := len(out); n > 0 && out[n-1] == "{id}" {
			continue
		}
		out = append(out, "{id}")
	}
	return "/" + strings.Join(out, "/")
}
