package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	claimsKey
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// GetRequestID devuelve el request id o "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithClaims guarda las claims del bearer validado.
func WithClaims(ctx context.Context, c jwtv5.MapClaims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// GetClaims devuelve las claims del bearer o nil.
func GetClaims(ctx context.Context) jwtv5.MapClaims {
	c, _ := ctx.Value(claimsKey).(jwtv5.MapClaims)
	return c
}

// ClaimString lee una claim string; "" si falta o no es string.
func ClaimString(c jwtv5.MapClaims, key string) string {
	if c == nil {
		return ""
	}
	s, _ := c[key].(string)
	return s
}

// ClientIP extrae la IP del cliente, considerando proxies.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
