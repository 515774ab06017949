package middleware

import (
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dealerhub/api/transport"
	"github.com/fastygo/dealerhub/domain"
	"github.com/fastygo/dealerhub/internal/metrics"
	"github.com/fastygo/dealerhub/pkg/httpcontext"
	"github.com/fastygo/dealerhub/usecase/access"
)

// IdentityKey is the fasthttp user value holding the resolved *domain.Identity.
const IdentityKey = "auth.identity"

const bearerScheme = "bearer"

// Auth gates routes behind the access guard.
type Auth struct {
	guard   *access.Guard
	metrics *metrics.Metrics
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

// NewAuth uses adapter for the lookup deadline and request ID. A nil adapter
// falls back to the default request timeout.
func NewAuth(guard *access.Guard, m *metrics.Metrics, adapter *httpcontext.Adapter, logger *zap.Logger) *Auth {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return &Auth{guard: guard, metrics: m, adapter: adapter, logger: logger}
}

// Required rejects requests without a valid, active identity.
func (a *Auth) Required(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		stdCtx, cancel := a.adapter.Attach(ctx)
		defer cancel()
		identity, err := a.guard.Authenticate(stdCtx, BearerToken(ctx))
		if err != nil {
			a.deny(ctx, "authenticate", err)
			return
		}
		a.metrics.ObserveGuard("authenticate", "allowed")
		ctx.SetUserValue(IdentityKey, identity)
		next(ctx)
	}
}

// Optional attaches the identity when one resolves and never rejects.
func (a *Auth) Optional(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		stdCtx, cancel := a.adapter.Attach(ctx)
		defer cancel()
		identity := a.guard.Optional(stdCtx, BearerToken(ctx))
		if identity != nil {
			a.metrics.ObserveGuard("optional", "identified")
			ctx.SetUserValue(IdentityKey, identity)
		} else {
			a.metrics.ObserveGuard("optional", "anonymous")
		}
		next(ctx)
	}
}

// RequireRole must run after Required.
func (a *Auth) RequireRole(role domain.Role) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			identity, _ := IdentityFrom(ctx)
			if err := access.RequireRole(identity, role); err != nil {
				a.deny(ctx, "role", err)
				return
			}
			next(ctx)
		}
	}
}

// RequireApprovedDealer must run after Required.
func (a *Auth) RequireApprovedDealer(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		identity, _ := IdentityFrom(ctx)
		if err := access.RequireApprovedDealer(identity); err != nil {
			a.deny(ctx, "approved_dealer", err)
			return
		}
		next(ctx)
	}
}

func (a *Auth) deny(ctx *fasthttp.RequestCtx, gate string, err error) {
	status := transport.StatusFor(err)
	a.metrics.ObserveGuard(gate, strings.ToLower(fasthttp.StatusMessage(status)))
	logger := a.logger.With(zap.String("request_id", httpcontext.RequestID(ctx)))
	if status >= fasthttp.StatusInternalServerError {
		logger.Error("access guard failed", zap.String("gate", gate), zap.Error(err))
	} else {
		logger.Debug("access denied",
			zap.String("gate", gate),
			zap.Int("status", status),
			zap.ByteString("path", ctx.Path()),
		)
	}
	transport.WriteError(ctx, err)
}

// IdentityFrom returns the identity stored by Required or Optional.
func IdentityFrom(ctx *fasthttp.RequestCtx) (*domain.Identity, bool) {
	identity, ok := ctx.UserValue(IdentityKey).(*domain.Identity)
	return identity, ok && identity != nil
}

// BearerToken extracts the credential from "Authorization: Bearer <token>".
// The scheme is case-insensitive; any other scheme counts as no credential.
func BearerToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
