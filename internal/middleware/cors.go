package middleware

import (
	"strings"

	"github.com/valyala/fasthttp"
)

const (
	corsAllowedMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	corsAllowedHeaders = "Authorization,Content-Type,X-Request-ID"
)

// CORS allows credentialed requests from the configured origins. A "*" entry
// allows any other origin, without credentials.
func CORS(origins []string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	allowed := make(map[string]struct{}, len(origins))
	wildcard := false
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			wildcard = true
		default:
			allowed[origin] = struct{}{}
		}
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			origin := string(ctx.Request.Header.Peek(fasthttp.HeaderOrigin))
			if origin != "" {
				h := &ctx.Response.Header
				if _, ok := allowed[origin]; ok {
					h.Set(fasthttp.HeaderAccessControlAllowOrigin, origin)
					h.Set(fasthttp.HeaderAccessControlAllowCredentials, "true")
					h.Add(fasthttp.HeaderVary, "Origin")
				} else if wildcard {
					h.Set(fasthttp.HeaderAccessControlAllowOrigin, "*")
				}
			}

			if ctx.IsOptions() && len(ctx.Request.Header.Peek(fasthttp.HeaderAccessControlRequestMethod)) > 0 {
				h := &ctx.Response.Header
				h.Set(fasthttp.HeaderAccessControlAllowMethods, corsAllowedMethods)
				h.Set(fasthttp.HeaderAccessControlAllowHeaders, corsAllowedHeaders)
				h.Set(fasthttp.HeaderAccessControlMaxAge, "600")
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}

// SecurityHeaders sets baseline hardening headers on every response.
func SecurityHeaders(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		h := &ctx.Response.Header
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next(ctx)
	}
}
