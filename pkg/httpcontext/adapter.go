package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/dealerhub/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"

	requestIDUserValue = "httpcontext.request_id"
	maxRequestIDLength = 128
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and tags it
// with the request ID. Repeated calls for the same request reuse one ID.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	return appLogger.ContextWithRequestID(stdCtx, RequestID(ctx)), cancel
}

// RequestID returns the request's ID, taking it from X-Request-ID or minting a
// UUID, and echoes it on the response.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id, ok := ctx.UserValue(requestIDUserValue).(string); ok && id != "" {
		return id
	}

	id := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if id == "" || len(id) > maxRequestIDLength {
		id = uuid.NewString()
	}
	ctx.SetUserValue(requestIDUserValue, id)
	ctx.Response.Header.Set(HeaderRequestID, id)
	return id
}
