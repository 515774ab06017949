package handler

import (
	"context"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dealerhub/api/transport"
	"github.com/fastygo/dealerhub/internal/middleware"
	"github.com/fastygo/dealerhub/pkg/httpcontext"
	appLogger "github.com/fastygo/dealerhub/pkg/logger"
	"github.com/fastygo/dealerhub/usecase/access"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

// requestContext derives a deadline-bound context carrying the request ID and,
// behind the auth middleware, the caller's identity.
func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	var (
		stdCtx context.Context
		cancel context.CancelFunc
	)
	if h.adapter != nil {
		stdCtx, cancel = h.adapter.Attach(ctx)
	} else {
		stdCtx, cancel = context.WithCancel(context.Background())
	}
	if identity, ok := middleware.IdentityFrom(ctx); ok {
		stdCtx = access.ContextWithIdentity(stdCtx, identity)
	}
	return stdCtx, cancel
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	transport.WriteJSON(ctx, status, payload)
}

func (h baseHandler) respondError(ctx context.Context, rctx *fasthttp.RequestCtx, err error) {
	if status := transport.StatusFor(err); status >= fasthttp.StatusInternalServerError {
		appLogger.WithRequestID(ctx, h.logger).Error("request failed",
			zap.ByteString("method", rctx.Method()),
			zap.ByteString("path", rctx.Path()),
			zap.Error(err),
		)
	}
	transport.WriteError(rctx, err)
}
