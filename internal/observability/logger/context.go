package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ToContext guarda un logger scoped (request_id, tenant, etc.) en el ctx.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From devuelve el logger del ctx o el global si no hay ninguno.
func From(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return L()
}

// Scoped es el atajo usado en services: From(ctx) + layer/component/op.
func Scoped(ctx context.Context, layer, component, op string) *zap.Logger {
	return From(ctx).With(Layer(layer), Component(component), Op(op))
}
