package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dealerhub/api/transport"
	"github.com/fastygo/dealerhub/domain"
	"github.com/fastygo/dealerhub/internal/metrics"
	"github.com/fastygo/dealerhub/internal/middleware"
	"github.com/fastygo/dealerhub/pkg/httpcontext"
	authUC "github.com/fastygo/dealerhub/usecase/auth"
)

// RefreshCookieName is the HTTP-only cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// CookieConfig controls the refresh cookie attributes. Max-age always follows
// the refresh token's own expiry.
type CookieConfig struct {
	Secure bool
}

type AuthHandler struct {
	baseHandler
	uc      *authUC.UseCase
	cookie  CookieConfig
	metrics *metrics.Metrics
}

func NewAuthHandler(uc *authUC.UseCase, cookie CookieConfig, m *metrics.Metrics, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		cookie:      cookie,
		metrics:     m,
	}
}

// @Summary Authenticate with username and password
// @Tags auth
// @Success 200 {object} transport.LoginResponse
// @Failure 401 {object} transport.ErrorBody
// @Failure 422 {object} transport.ErrorBody
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.metrics.ObserveLogin("invalid_payload")
		transport.WriteError(ctx, domain.ErrInvalidPayload)
		return
	}
	if msg := req.Validate(); msg != "" {
		h.metrics.ObserveLogin("invalid_payload")
		transport.WriteError(ctx, domain.NewError(domain.ErrCodeInvalid, msg))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Login(stdCtx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.metrics.ObserveLogin("invalid_credentials")
		} else {
			h.metrics.ObserveLogin("error")
		}
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.metrics.ObserveLogin("success")

	h.setRefreshCookie(ctx, result.Tokens)
	h.respondJSON(ctx, http.StatusOK, transport.LoginResponse{
		TokenResponse: transport.NewTokenResponse(result.Tokens),
		User:          transport.NewUserInfo(result.Identity),
	})
}

// @Summary Clear the refresh cookie
// @Tags auth
// @Success 200 {object} transport.MessageResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	h.clearRefreshCookie(ctx)
	h.respondJSON(ctx, http.StatusOK, transport.MessageResponse{Message: "Logged out successfully"})
}

// @Summary Exchange a refresh token for a new pair
// @Description The token is read from the JSON body, falling back to the refresh cookie.
// @Tags auth
// @Success 200 {object} transport.TokenResponse
// @Failure 401 {object} transport.ErrorBody
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	var req transport.RefreshRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.metrics.ObserveRefresh("invalid_payload")
			transport.WriteError(ctx, domain.ErrInvalidPayload)
			return
		}
	}
	token := req.RefreshToken
	if token == "" {
		token = string(ctx.Request.Header.Cookie(RefreshCookieName))
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	pair, err := h.uc.Refresh(stdCtx, token)
	if err != nil {
		h.metrics.ObserveRefresh("rejected")
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.metrics.ObserveRefresh("success")

	h.setRefreshCookie(ctx, *pair)
	h.respondJSON(ctx, http.StatusOK, transport.NewTokenResponse(*pair))
}

// @Summary Current identity
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} transport.CurrentUserResponse
// @Failure 401 {object} transport.ErrorBody
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(ctx *fasthttp.RequestCtx) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		transport.WriteError(ctx, domain.ErrNotAuthenticated)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewCurrentUserResponse(identity))
}

func (h *AuthHandler) setRefreshCookie(ctx *fasthttp.RequestCtx, pair domain.TokenPair) {
	c := h.baseCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetValue(pair.RefreshToken)
	// Whole seconds, rounded up.
	c.SetMaxAge(int((pair.RefreshMaxAge(time.Now()) + time.Second - 1) / time.Second))
	ctx.Response.Header.SetCookie(c)
}

func (h *AuthHandler) clearRefreshCookie(ctx *fasthttp.RequestCtx) {
	c := h.baseCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetValue("")
	c.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(c)
}

func (h *AuthHandler) baseCookie() *fasthttp.Cookie {
	c := fasthttp.AcquireCookie()
	c.SetKey(RefreshCookieName)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	c.SetSecure(h.cookie.Secure)
	return c
}
