package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field       { return zap.String("request_id", v) }
func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func Bytes(v int) zap.Field              { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }

// ─── Identidad / OAuth ───

func TenantID(v string) zap.Field    { return zap.String("tenant_id", v) }
func PrincipalID(v string) zap.Field { return zap.String("principal_id", v) }
func ClientID(v string) zap.Field    { return zap.String("client_id", v) }
func Grant(v string) zap.Field       { return zap.String("grant_type", v) }

// Reason es el motivo interno de un rechazo. Nunca sale al cliente.
func Reason(v string) zap.Field { return zap.String("reason", v) }

// TokenID identifica un refresh token por id, jamás por secreto.
func TokenID(v string) zap.Field { return zap.String("token_id", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func Count(v int) zap.Field             { return zap.Int("count", v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
