package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/student"
)

// Metrics holds the API's prometheus collectors.
type Metrics struct {
	weekUpdates *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		weekUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topphysics",
			Name:      "week_updates_total",
			Help:      "Week record updates by operation and result.",
		}, []string{"operation", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "topphysics",
			Name:      "http_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(m.weekUpdates, m.latency)
	return m
}

func (m *Metrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			code := ctx.Response().Status
			if err != nil {
				if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
					code = herr.Code
				} else if c, ok := domainErrorCode(errors.Cause(err)); ok {
					code = c
				}
			}
			m.latency.WithLabelValues(ctx.Request().Method, ctx.Path(), strconv.Itoa(code)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) observeWeekUpdate(operation string, err error) {
	m.weekUpdates.WithLabelValues(operation, updateResult(err)).Inc()
}

func updateResult(err error) string {
	cause := errors.Cause(err)
	switch {
	case err == nil:
		return "ok"
	case core.IsValidationError(err):
		return "invalid"
	case cause == student.ErrNotFound:
		return "not_found"
	case cause == student.ErrConcurrentUpdate:
		return "conflict"
	case cause == core.ErrUnauthorized:
		return "unauthorized"
	}
	return "error"
}
