package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rems_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rems_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	listingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rems_listings_created_total",
		Help: "Listings created, by initial approval state",
	}, []string{"approved"})

	leadsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rems_leads_submitted_total",
		Help: "Leads submitted",
	})

	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rems_messages_sent_total",
		Help: "Direct messages sent",
	})

	passwordResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rems_password_resets_total",
		Help: "Password reset attempts by result",
	}, []string{"result"})
)

// Middleware records request count and latency, labelled by route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func ListingCreated(approved bool) {
	listingsCreated.WithLabelValues(strconv.FormatBool(approved)).Inc()
}

func LeadSubmitted() {
	leadsSubmitted.Inc()
}

func MessageSent() {
	messagesSent.Inc()
}

// PasswordReset records a reset outcome: "requested", "completed" or "invalid_token".
func PasswordReset(result string) {
	passwordResets.WithLabelValues(result).Inc()
}
