package pg

import (
	"context"
	"time"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
)

type tokenRepo Store

const tokenColumns = `id, principal_id, tenant_id, client_id, token_hash, scope, issued_at, expires_at, used_at, use_count, rotated_from, revoked_at`

func scanToken(row rowScanner) (*repository.RefreshToken, error) {
	var (
		t     repository.RefreshToken
		scope string
	)
	err := row.Scan(&t.ID, &t.PrincipalID, &t.TenantID, &t.ClientID, &t.TokenHash, &scope,
		&t.IssuedAt, &t.ExpiresAt, &t.UsedAt, &t.UseCount, &t.RotatedFrom, &t.RevokedAt)
	if err != nil {
		return nil, err
	}
	t.Scopes = splitScopes(scope)
	return &t, nil
}

const insertToken = `
	INSERT INTO refresh_token (id, principal_id, tenant_id, client_id, token_hash, scope, issued_at, expires_at, rotated_from)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (r *tokenRepo) Create(ctx context.Context, in repository.CreateRefreshTokenInput) (*repository.RefreshToken, error) {
	_, err := r.db.ExecContext(ctx, insertToken,
		in.ID, in.PrincipalID, in.TenantID, in.ClientID, in.TokenHash,
		joinScopes(in.Scopes), in.IssuedAt, in.ExpiresAt, nil)
	if err != nil {
		return nil, mapErr("create refresh token", err)
	}
	return &repository.RefreshToken{
		ID:          in.ID,
		PrincipalID: in.PrincipalID,
		TenantID:    in.TenantID,
		ClientID:    in.ClientID,
		TokenHash:   in.TokenHash,
		Scopes:      in.Scopes,
		IssuedAt:    in.IssuedAt,
		ExpiresAt:   in.ExpiresAt,
	}, nil
}

func (r *tokenRepo) GetByHash(ctx context.Context, hash string) (*repository.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM refresh_token WHERE token_hash = $1`, hash)
	t, err := scanToken(row)
	if err != nil {
		return nil, mapErr("get refresh token", err)
	}
	return t, nil
}

// Consume corre en una transacción: SELECT ... FOR UPDATE serializa canjes
// concurrentes del mismo token y el UPDATE condicionado a use_count cubre
// niveles de aislamiento laxos.
func (r *tokenRepo) Consume(ctx context.Context, in repository.ConsumeInput) (_ *repository.ConsumeResult, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr("consume: begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cur, err := scanToken(tx.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM refresh_token WHERE token_hash = $1 FOR UPDATE`, in.TokenHash))
	if err != nil {
		return nil, mapErr("consume: lookup", err)
	}
	switch {
	case cur.ClientID != in.ClientID:
		return nil, repository.ErrNotFound
	case cur.Used():
		return &repository.ConsumeResult{Consumed: cur}, repository.ErrTokenReused
	case cur.RevokedAt != nil:
		return nil, repository.ErrTokenRevoked
	case cur.ExpiredAt(in.Now):
		return nil, repository.ErrTokenExpired
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE refresh_token SET use_count = use_count + 1, used_at = $2 WHERE id = $1 AND use_count = $3`,
		cur.ID, in.Now, cur.UseCount)
	if err != nil {
		return nil, mapErr("consume: mark used", err)
	}
	if n, rerr := res.RowsAffected(); rerr != nil {
		return nil, mapErr("consume: mark used", rerr)
	} else if n != 1 {
		return &repository.ConsumeResult{Consumed: cur}, repository.ErrTokenReused
	}

	parent := cur.ID
	if _, err = tx.ExecContext(ctx, insertToken,
		in.SuccessorID, cur.PrincipalID, cur.TenantID, cur.ClientID, in.SuccessorHash,
		joinScopes(cur.Scopes), in.Now, in.SuccessorExpiresAt, parent); err != nil {
		return nil, mapErr("consume: insert successor", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, mapErr("consume: commit", err)
	}

	usedAt := in.Now
	cur.UseCount++
	cur.UsedAt = &usedAt
	next := &repository.RefreshToken{
		ID:          in.SuccessorID,
		PrincipalID: cur.PrincipalID,
		TenantID:    cur.TenantID,
		ClientID:    cur.ClientID,
		TokenHash:   in.SuccessorHash,
		Scopes:      cur.Scopes,
		IssuedAt:    in.Now,
		ExpiresAt:   in.SuccessorExpiresAt,
		RotatedFrom: &parent,
	}
	return &repository.ConsumeResult{Consumed: cur, Successor: next}, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, tokenID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_token SET revoked_at = COALESCE(revoked_at, $2) WHERE id = $1`, tokenID, at)
	if err != nil {
		return mapErr("revoke refresh token", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr("revoke refresh token", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *tokenRepo) RevokeAllByPrincipal(ctx context.Context, principalID string, at time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_token SET revoked_at = $2 WHERE principal_id = $1 AND revoked_at IS NULL AND expires_at > $2`,
		principalID, at)
	if err != nil {
		return 0, mapErr("revoke all refresh tokens", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapErr("revoke all refresh tokens", err)
	}
	return int(n), nil
}
