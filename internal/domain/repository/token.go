package repository

import (
	"context"
	"time"
)

// RefreshToken es un refresh token emitido. Solo guardamos el hash del secreto.
type RefreshToken struct {
	ID          string
	PrincipalID string
	TenantID    string
	ClientID    string
	TokenHash   string
	Scopes      []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	UsedAt      *time.Time
	UseCount    int
	RotatedFrom *string
	RevokedAt   *time.Time
}

// Used indica si el token ya fue canjeado al menos una vez.
func (t *RefreshToken) Used() bool {
	return t.UseCount >= 1 || t.UsedAt != nil
}

// ExpiredAt: el instante de expiración ya cuenta como vencido.
func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// CreateRefreshTokenInput contiene los datos para crear un refresh token.
type CreateRefreshTokenInput struct {
	ID          string
	PrincipalID string
	TenantID    string
	ClientID    string
	TokenHash   string
	Scopes      []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// ConsumeInput describe un canje + rotación atómicos.
// El sucesor hereda principal, tenant, client y scopes del token consumido.
type ConsumeInput struct {
	TokenHash string
	ClientID  string
	Now       time.Time

	SuccessorID        string
	SuccessorHash      string
	SuccessorExpiresAt time.Time
}

// ConsumeResult: el token canjeado y su sucesor.
type ConsumeResult struct {
	Consumed  *RefreshToken
	Successor *RefreshToken
}

// TokenRepository define operaciones sobre refresh tokens.
type TokenRepository interface {
	// Create persiste un token nuevo.
	Create(ctx context.Context, in CreateRefreshTokenInput) (*RefreshToken, error)

	// GetByHash retorna ErrNotFound si no existe.
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Consume ejecuta, como una sola operación atómica: lookup por hash,
	// validaciones y, si todo está bien, incremento de use_count + used_at
	// e inserción del sucesor.
	//
	// Errores (en este orden de evaluación):
	//   - ErrNotFound: no existe o pertenece a otro client (sin mutar nada)
	//   - ErrTokenReused: ya usado, aunque además esté revocado. El resultado
	//     trae Consumed con el token ya usado
	//   - ErrTokenRevoked: revocado sin haberse usado nunca
	//   - ErrTokenExpired
	Consume(ctx context.Context, in ConsumeInput) (*ConsumeResult, error)

	// Revoke revoca un token por ID. Idempotente.
	Revoke(ctx context.Context, tokenID string, at time.Time) error

	// RevokeAllByPrincipal revoca los tokens activos del principal
	// y retorna cuántos revocó.
	RevokeAllByPrincipal(ctx context.Context, principalID string, at time.Time) (int, error)
}
