package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/dealerhub/domain"
)

// BearerChallenge is sent with every 401.
const BearerChallenge = "Bearer"

// WriteJSON serialises payload as the response body.
func WriteJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.SetStatusCode(http.StatusInternalServerError)
		body = []byte(`{"detail":"Internal server error"}`)
	}
	ctx.SetBody(body)
}

// WriteError maps err to a status and writes {"detail": ...}. Internal errors
// never leak their message.
func WriteError(ctx *fasthttp.RequestCtx, err error) {
	status := StatusFor(err)
	detail := "Internal server error"
	var dErr *domain.Error
	if status != http.StatusInternalServerError && errors.As(err, &dErr) {
		detail = dErr.Message
	}
	if status == http.StatusUnauthorized {
		ctx.Response.Header.Set("WWW-Authenticate", BearerChallenge)
	}
	WriteJSON(ctx, status, ErrorBody{Detail: detail})
}

// StatusFor maps domain error codes to HTTP statuses.
func StatusFor(err error) int {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthenticated),
		domain.IsDomainError(err, domain.ErrCodeInvalidCredentials):
		return http.StatusUnauthorized
	case domain.IsDomainError(err, domain.ErrCodeAccountInactive),
		domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusUnprocessableEntity
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
