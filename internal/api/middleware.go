package stamps

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// метрики

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stamps_http_requests_total",
			Help: "Кол-во HTTP запросов",
		},
		[]string{"path", "method", "code"},
	)

	httpRequestsError = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stamps_http_errors_total",
			Help: "Кол-во ошибочных HTTP запросов",
		},
		[]string{"path", "method", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stamps_http_request_duration_seconds",
			Help:    "Продолжительность HTTP запросов",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "code"},
	)
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Шаблон маршрута вместо пути: id клиентов не раздувают метки
func routeOf(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func MiddlewareLog() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqtime := time.Now()
			sw := &statusWriter{w, http.StatusOK}
			next.ServeHTTP(sw, r)

			labels := prometheus.Labels{
				"path":   routeOf(r),
				"method": r.Method,
				"code":   strconv.Itoa(sw.status),
			}
			httpRequestsTotal.With(labels).Inc()
			httpRequestDuration.With(labels).Observe(time.Since(reqtime).Seconds())

			if sw.status >= http.StatusBadRequest {
				httpRequestsError.With(labels).Inc()
			}
		})
	}
}
