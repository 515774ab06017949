package metrics

import (
	"strings"
	"testing"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestInstrumentLabelsByRoutePattern(t *testing.T) {
	m := New()
	r := router.New()
	r.SaveMatchedRoutePath = true
	r.GET("/api/orders/{id}", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusForbidden)
	})
	handler := m.Instrument(r.Handler)

	for _, path := range []string{"/api/orders/1", "/api/orders/2"} {
		var ctx fasthttp.RequestCtx
		ctx.Request.Header.SetMethod(fasthttp.MethodGet)
		ctx.Request.SetRequestURI(path)
		handler(&ctx)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/orders/{id}", "403")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/nowhere")
	handler(&ctx)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", unmatchedRoute, "404")))
}

func TestInstrumentReleasesInFlightOnPanic(t *testing.T) {
	m := New()
	handler := m.Instrument(func(*fasthttp.RequestCtx) { panic("handler bug") })

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	assert.Panics(t, func() { handler(&ctx) })

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", unmatchedRoute, "200")))
}

func TestAuthCounters(t *testing.T) {
	m := New()
	m.ObserveLogin("success")
	m.ObserveLogin("invalid_credentials")
	m.ObserveLogin("invalid_credentials")
	m.ObserveRefresh("success")
	m.ObserveGuard("authenticate", "invalid")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("invalid_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guardResults.WithLabelValues("authenticate", "invalid")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveLogin("success")

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/metrics")
	m.Handler()(&ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.True(t, strings.Contains(string(ctx.Response.Body()), `auth_login_attempts_total{outcome="success"} 1`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLogin("success")
	m.ObserveGuard("optional", "anonymous")

	called := false
	m.Instrument(func(*fasthttp.RequestCtx) { called = true })(&fasthttp.RequestCtx{})
	assert.True(t, called)
	assert.Nil(t, m.Registry())
}
