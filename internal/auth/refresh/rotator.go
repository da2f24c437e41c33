// Package refresh emite, canjea y rota refresh tokens opacos.
//
// Estados de un token:
//
//	Issued ──Redeem──▶ Consumed (sucesor Issued nuevo)
//	  │                  │
//	  │                  └─Redeem otra vez──▶ reuso: falla + revocación de todos los del principal
//	  ├─ ExpiresAt <= now ─▶ Expired (inerte, se conserva)
//	  └─ logout/admin ─────▶ Revoked
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
	"github.com/dropDatabas3/hellodesk/internal/observability/logger"
	"github.com/dropDatabas3/hellodesk/internal/security/token"
)

var (
	ErrNotFound = errors.New("refresh token not found")
	ErrExpired  = errors.New("refresh token expired")
	ErrReused   = errors.New("refresh token reused")
	ErrRevoked  = errors.New("refresh token revoked")
)

const (
	defaultTTL       = 30 * 24 * time.Hour
	defaultOpTimeout = 5 * time.Second
)

// Rotator encapsula el TokenRepository con las reglas de rotación y reuso.
type Rotator struct {
	Tokens repository.TokenRepository
	TTL    time.Duration
	// OpTimeout acota las escrituras que corren desacopladas de la cancelación del request.
	OpTimeout time.Duration
	Now       func() time.Time
	// OnReuse se llama después de detectar un reuso (métricas). Opcional.
	OnReuse func(principalID string, revoked int)
}

func NewRotator(tokens repository.TokenRepository, ttl time.Duration) *Rotator {
	return &Rotator{Tokens: tokens, TTL: ttl, OpTimeout: defaultOpTimeout, Now: time.Now}
}

func (r *Rotator) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Rotator) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return defaultTTL
}

// detached: la operación sigue aunque el cliente se desconecte.
// Una rotación ya escrita es final; cancelarla a mitad reabriría la ventana de reuso.
func (r *Rotator) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	d := r.OpTimeout
	if d <= 0 {
		d = defaultOpTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

// MintInput: a quién pertenece el token nuevo.
type MintInput struct {
	PrincipalID string
	TenantID    string
	ClientID    string
	Scopes      []string
}

// Mint persiste un token nuevo y devuelve el secreto en claro.
// Es la única vez que el secreto existe fuera del cliente.
func (r *Rotator) Mint(ctx context.Context, in MintInput) (string, *repository.RefreshToken, error) {
	secret, err := token.GenerateOpaque(token.SecretBytes)
	if err != nil {
		return "", nil, fmt.Errorf("generate refresh secret: %w", err)
	}
	now := r.now()
	rec, err := r.Tokens.Create(ctx, repository.CreateRefreshTokenInput{
		ID:          uuid.NewString(),
		PrincipalID: in.PrincipalID,
		TenantID:    in.TenantID,
		ClientID:    in.ClientID,
		TokenHash:   token.Hash(secret),
		Scopes:      in.Scopes,
		IssuedAt:    now,
		ExpiresAt:   now.Add(r.ttl()),
	})
	if err != nil {
		return "", nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return secret, rec, nil
}

// Redemption es el resultado de un canje exitoso.
type Redemption struct {
	// Consumed ya no sirve; Successor es el que se entrega al cliente.
	Consumed  *repository.RefreshToken
	Successor *repository.RefreshToken
	// Secret del sucesor, en claro.
	Secret string
}

func (r *Redemption) PrincipalID() string { return r.Consumed.PrincipalID }
func (r *Redemption) TenantID() string    { return r.Consumed.TenantID }

// Redeem canjea un secreto presentado por clientID y lo rota.
// Errores: ErrNotFound, ErrRevoked, ErrReused, ErrExpired, o de storage.
// En ErrReused revoca (best effort) todos los tokens activos del principal y
// devuelve una Redemption con solo Consumed, para que el caller pueda auditar.
func (r *Rotator) Redeem(ctx context.Context, secret, clientID string) (*Redemption, error) {
	log := logger.Scoped(ctx, "service", "refresh", "redeem").With(logger.ClientID(clientID))

	if secret == "" {
		return nil, ErrNotFound
	}
	next, err := token.GenerateOpaque(token.SecretBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh secret: %w", err)
	}

	now := r.now()
	opCtx, cancel := r.detached(ctx)
	defer cancel()

	res, err := r.Tokens.Consume(opCtx, repository.ConsumeInput{
		TokenHash:          token.Hash(secret),
		ClientID:           clientID,
		Now:                now,
		SuccessorID:        uuid.NewString(),
		SuccessorHash:      token.Hash(next),
		SuccessorExpiresAt: now.Add(r.ttl()),
	})
	switch {
	case err == nil:
		log.Debug("refresh rotated", logger.TokenID(res.Consumed.ID), logger.String("successor_id", res.Successor.ID))
		return &Redemption{Consumed: res.Consumed, Successor: res.Successor, Secret: next}, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, repository.ErrTokenRevoked):
		return nil, ErrRevoked
	case errors.Is(err, repository.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, repository.ErrTokenReused):
		if res == nil || res.Consumed == nil {
			return nil, ErrReused
		}
		r.revokeFamily(opCtx, log, res.Consumed)
		return &Redemption{Consumed: res.Consumed}, ErrReused
	default:
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
}

// revokeFamily: cascada ante reuso. Un fallo acá se loguea, nunca reemplaza el error primario.
func (r *Rotator) revokeFamily(ctx context.Context, log *zap.Logger, used *repository.RefreshToken) {
	n, err := r.Tokens.RevokeAllByPrincipal(ctx, used.PrincipalID, r.now())
	if err != nil {
		log.Error("reuse cascade revoke failed",
			logger.TokenID(used.ID), logger.PrincipalID(used.PrincipalID), logger.Err(err))
		return
	}
	log.Warn("refresh token reuse detected, principal tokens revoked",
		logger.TokenID(used.ID), logger.PrincipalID(used.PrincipalID), logger.Count(n))
	if r.OnReuse != nil {
		r.OnReuse(used.PrincipalID, n)
	}
}

// Revoke revoca todos los tokens activos del principal (logout global).
func (r *Rotator) Revoke(ctx context.Context, principalID string) (int, error) {
	opCtx, cancel := r.detached(ctx)
	defer cancel()
	n, err := r.Tokens.RevokeAllByPrincipal(opCtx, principalID, r.now())
	if err != nil {
		return 0, fmt.Errorf("revoke principal tokens: %w", err)
	}
	return n, nil
}

// RevokeSecret revoca un token por su secreto. Si clientID no es vacío,
// el token tiene que pertenecer a ese client; si no, se ignora como inexistente.
func (r *Rotator) RevokeSecret(ctx context.Context, secret, clientID string) error {
	return r.RevokeHash(ctx, token.Hash(secret), clientID)
}

// RevokeHash es RevokeSecret cuando ya se tiene el hash (admin/CLI).
func (r *Rotator) RevokeHash(ctx context.Context, hash, clientID string) error {
	rec, err := r.Tokens.GetByHash(ctx, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}
	if clientID != "" && rec.ClientID != clientID {
		return ErrNotFound
	}
	opCtx, cancel := r.detached(ctx)
	defer cancel()
	if err := r.Tokens.Revoke(opCtx, rec.ID, r.now()); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
