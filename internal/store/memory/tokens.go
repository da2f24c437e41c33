package memory

import (
	"context"
	"slices"
	"time"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
)

type tokenRepo Store

func cloneToken(t *repository.RefreshToken) *repository.RefreshToken {
	cp := *t
	cp.Scopes = slices.Clone(t.Scopes)
	if t.UsedAt != nil {
		v := *t.UsedAt
		cp.UsedAt = &v
	}
	if t.RevokedAt != nil {
		v := *t.RevokedAt
		cp.RevokedAt = &v
	}
	if t.RotatedFrom != nil {
		v := *t.RotatedFrom
		cp.RotatedFrom = &v
	}
	return &cp
}

// insertLocked asume s.mu tomado.
func (s *Store) insertLocked(t *repository.RefreshToken) error {
	if _, dup := s.byHash[t.TokenHash]; dup {
		return repository.ErrConflict
	}
	if _, dup := s.tokens[t.ID]; dup {
		return repository.ErrConflict
	}
	s.tokens[t.ID] = t
	s.byHash[t.TokenHash] = t.ID
	return nil
}

func (r *tokenRepo) Create(_ context.Context, in repository.CreateRefreshTokenInput) (*repository.RefreshToken, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &repository.RefreshToken{
		ID:          in.ID,
		PrincipalID: in.PrincipalID,
		TenantID:    in.TenantID,
		ClientID:    in.ClientID,
		TokenHash:   in.TokenHash,
		Scopes:      slices.Clone(in.Scopes),
		IssuedAt:    in.IssuedAt,
		ExpiresAt:   in.ExpiresAt,
	}
	if err := s.insertLocked(t); err != nil {
		return nil, err
	}
	return cloneToken(t), nil
}

func (r *tokenRepo) GetByHash(_ context.Context, hash string) (*repository.RefreshToken, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHash[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneToken(s.tokens[id]), nil
}

func (r *tokenRepo) Consume(_ context.Context, in repository.ConsumeInput) (*repository.ConsumeResult, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byHash[in.TokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cur := s.tokens[id]
	if cur.ClientID != in.ClientID {
		return nil, repository.ErrNotFound
	}
	// usado gana sobre revocado: un replay post-logout sigue siendo reuso
	if cur.Used() {
		return &repository.ConsumeResult{Consumed: cloneToken(cur)}, repository.ErrTokenReused
	}
	if cur.RevokedAt != nil {
		return nil, repository.ErrTokenRevoked
	}
	if cur.ExpiredAt(in.Now) {
		return nil, repository.ErrTokenExpired
	}

	parent := cur.ID
	next := &repository.RefreshToken{
		ID:          in.SuccessorID,
		PrincipalID: cur.PrincipalID,
		TenantID:    cur.TenantID,
		ClientID:    cur.ClientID,
		TokenHash:   in.SuccessorHash,
		Scopes:      slices.Clone(cur.Scopes),
		IssuedAt:    in.Now,
		ExpiresAt:   in.SuccessorExpiresAt,
		RotatedFrom: &parent,
	}
	if err := s.insertLocked(next); err != nil {
		return nil, err
	}
	usedAt := in.Now
	cur.UseCount++
	cur.UsedAt = &usedAt

	return &repository.ConsumeResult{Consumed: cloneToken(cur), Successor: cloneToken(next)}, nil
}

func (r *tokenRepo) Revoke(_ context.Context, tokenID string, at time.Time) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID]
	if !ok {
		return repository.ErrNotFound
	}
	if t.RevokedAt == nil {
		t.RevokedAt = &at
	}
	return nil
}

// RevokeAllByPrincipal revoca los no revocados y no vencidos.
func (r *tokenRepo) RevokeAllByPrincipal(_ context.Context, principalID string, at time.Time) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens {
		if t.PrincipalID != principalID || t.RevokedAt != nil || t.ExpiredAt(at) {
			continue
		}
		revokedAt := at
		t.RevokedAt = &revokedAt
		n++
	}
	return n, nil
}
