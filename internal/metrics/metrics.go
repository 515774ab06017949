package metrics

import (
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const unmatchedRoute = "unmatched"

// Metrics owns a private registry so several servers (and tests) can coexist.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	inFlight        prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	logins       *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	guardResults *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refresh_attempts_total",
			Help: "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		guardResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_guard_decisions_total",
			Help: "Access guard decisions by gate and result.",
		}, []string{"gate", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.inFlight,
		m.requestsTotal,
		m.requestDuration,
		m.logins,
		m.refreshes,
		m.guardResults,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format over fasthttp.
func (m *Metrics) Handler() fasthttp.RequestHandler {
	if m == nil {
		return func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Instrument records RPS, latency and in-flight requests. Routes are labelled
// by their pattern, which requires router.SaveMatchedRoutePath.
func (m *Metrics) Instrument(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	if m == nil {
		return next
	}
	return func(ctx *fasthttp.RequestCtx) {
		m.inFlight.Inc()
		start := time.Now()
		defer func() {
			m.inFlight.Dec()
			m.observe(ctx, start)
		}()

		next(ctx)
	}
}

func (m *Metrics) observe(ctx *fasthttp.RequestCtx, start time.Time) {
	route := unmatchedRoute
	if matched, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && matched != "" {
		route = matched
	}
	method := string(ctx.Method())
	status := strconv.Itoa(ctx.Response.StatusCode())

	m.requestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGuard(gate, result string) {
	if m == nil {
		return
	}
	m.guardResults.WithLabelValues(gate, result).Inc()
}
