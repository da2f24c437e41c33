package pg

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(db), mock
}

var (
	principalCols = []string{"id", "tenant_id", "login", "password_hash", "active", "profile", "display_name", "email", "created_at", "deleted_at"}
	tokenCols     = []string{"id", "principal_id", "tenant_id", "client_id", "token_hash", "scope", "issued_at", "expires_at", "used_at", "use_count", "rotated_from", "revoked_at"}
	t0            = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func TestGetByLogin(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT .+ FROM principal WHERE tenant_id = \\$1 AND login = \\$2").
		WithArgs("acme", "jdoe").
		WillReturnRows(sqlmock.NewRows(principalCols).
			AddRow("p1", "acme", "jdoe", "$argon2id$...", "Y", "agent", "J Doe", "j@acme.io", t0, nil))

	p, err := s.Principals().GetByLogin(context.Background(), "acme", "  JDoe ")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, repository.Active, p.Active)
	assert.Nil(t, p.DeletedAt)
	assert.True(t, p.CanAuthenticate())
}

func TestGetByID_NullActiveIsUnset(t *testing.T) {
	s, mock := newMock(t)
	deleted := t0.Add(time.Hour)
	mock.ExpectQuery("SELECT .+ FROM principal WHERE tenant_id = \\$1 AND id = \\$2").
		WithArgs("acme", "p1").
		WillReturnRows(sqlmock.NewRows(principalCols).
			AddRow("p1", "acme", "jdoe", "", nil, "", "", "", t0, deleted))

	p, err := s.Principals().GetByID(context.Background(), "acme", "p1")
	require.NoError(t, err)
	assert.Equal(t, repository.ActiveUnset, p.Active)
	require.NotNil(t, p.DeletedAt)
	assert.False(t, p.CanAuthenticate())
}

func TestGetByID_NotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("FROM principal").WillReturnError(sql.ErrNoRows)

	_, err := s.Principals().GetByID(context.Background(), "acme", "nope")
	assert.True(t, repository.IsNotFound(err))
}

func TestSetActive(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("UPDATE principal SET active").
		WithArgs("acme", "p1", "N").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE principal SET active").
		WithArgs("acme", "ghost", "Y").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Principals().SetActive(context.Background(), "acme", "p1", repository.Inactive))
	err := s.Principals().SetActive(context.Background(), "acme", "ghost", repository.Active)
	assert.True(t, repository.IsNotFound(err))
}

func TestPrincipalRoles(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT role_name FROM principal_role").
		WithArgs("acme", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"role_name"}).AddRow("agent").AddRow("admin"))

	roles, err := s.RBAC().PrincipalRoles(context.Background(), "acme", "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"agent", "admin"}, roles)
}

func TestRolePermissions(t *testing.T) {
	s, mock := newMock(t)
	q := "SELECT rc.claim_value\\s+FROM role ro"

	mock.ExpectQuery(q).WithArgs("acme", "agent", "permission").
		WillReturnRows(sqlmock.NewRows([]string{"claim_value"}).AddRow("ticket.read").AddRow("ticket.write"))
	mock.ExpectQuery(q).WithArgs("acme", "empty", "permission").
		WillReturnRows(sqlmock.NewRows([]string{"claim_value"}).AddRow(nil))
	mock.ExpectQuery(q).WithArgs("acme", "gone", "permission").
		WillReturnRows(sqlmock.NewRows([]string{"claim_value"}))

	ctx := context.Background()
	perms, err := s.RBAC().RolePermissions(ctx, "acme", "agent")
	require.NoError(t, err)
	assert.Equal(t, []repository.Permission{{Name: "ticket.read"}, {Name: "ticket.write"}}, perms)

	perms, err = s.RBAC().RolePermissions(ctx, "acme", "empty")
	require.NoError(t, err)
	assert.Empty(t, perms)

	_, err = s.RBAC().RolePermissions(ctx, "acme", "gone")
	assert.True(t, repository.IsNotFound(err))
}

func TestCreateToken_Conflict(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("INSERT INTO refresh_token").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	_, err := s.Tokens().Create(context.Background(), repository.CreateRefreshTokenInput{
		ID: "t1", TokenHash: "h1", Scopes: []string{"openid", "offline_access"},
		IssuedAt: t0, ExpiresAt: t0.Add(time.Hour),
	})
	assert.True(t, repository.IsConflict(err))
}

func TestCreateToken(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("INSERT INTO refresh_token").
		WithArgs("t1", "p1", "acme", "web", "h1", "openid offline_access", t0, t0.Add(time.Hour), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tok, err := s.Tokens().Create(context.Background(), repository.CreateRefreshTokenInput{
		ID: "t1", PrincipalID: "p1", TenantID: "acme", ClientID: "web", TokenHash: "h1",
		Scopes: []string{"openid", "offline_access"}, IssuedAt: t0, ExpiresAt: t0.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", tok.ID)
	assert.Nil(t, tok.RotatedFrom)
}

func consumeInput() repository.ConsumeInput {
	return repository.ConsumeInput{
		TokenHash: "h1", ClientID: "web", Now: t0.Add(time.Minute),
		SuccessorID: "t2", SuccessorHash: "h2", SuccessorExpiresAt: t0.Add(31 * time.Minute),
	}
}

func tokenRow(usedAt any, useCount int, revokedAt any) *sqlmock.Rows {
	return sqlmock.NewRows(tokenCols).
		AddRow("t1", "p1", "acme", "web", "h1", "openid offline_access", t0, t0.Add(time.Hour), usedAt, useCount, nil, revokedAt)
}

func TestConsume_Rotates(t *testing.T) {
	s, mock := newMock(t)
	in := consumeInput()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_token WHERE token_hash = $1 FOR UPDATE")).
		WithArgs("h1").WillReturnRows(tokenRow(nil, 0, nil))
	mock.ExpectExec("UPDATE refresh_token SET use_count = use_count \\+ 1").
		WithArgs("t1", in.Now, 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_token").
		WithArgs("t2", "p1", "acme", "web", "h2", "openid offline_access", in.Now, in.SuccessorExpiresAt, "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := s.Tokens().Consume(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Consumed.UseCount)
	require.NotNil(t, res.Consumed.UsedAt)
	require.NotNil(t, res.Successor.RotatedFrom)
	assert.Equal(t, "t1", *res.Successor.RotatedFrom)
	assert.Equal(t, []string{"openid", "offline_access"}, res.Successor.Scopes)
}

func TestConsume_Reused(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("h1").WillReturnRows(tokenRow(t0, 1, nil))
	mock.ExpectRollback()

	res, err := s.Tokens().Consume(context.Background(), consumeInput())
	require.ErrorIs(t, err, repository.ErrTokenReused)
	require.NotNil(t, res)
	assert.Equal(t, "p1", res.Consumed.PrincipalID)
}

func TestConsume_UsedAndRevokedIsReused(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("h1").WillReturnRows(tokenRow(t0, 1, t0.Add(time.Minute)))
	mock.ExpectRollback()

	res, err := s.Tokens().Consume(context.Background(), consumeInput())
	require.ErrorIs(t, err, repository.ErrTokenReused)
	require.NotNil(t, res)
	assert.Equal(t, "p1", res.Consumed.PrincipalID)
}

func TestConsume_LostRace(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(tokenRow(nil, 0, nil))
	mock.ExpectExec("UPDATE refresh_token SET use_count").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.Tokens().Consume(context.Background(), consumeInput())
	require.ErrorIs(t, err, repository.ErrTokenReused)
}

func TestConsume_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*repository.ConsumeInput)
		rows   *sqlmock.Rows
		want   error
	}{
		{"other client", func(in *repository.ConsumeInput) { in.ClientID = "mobile" }, tokenRow(nil, 0, nil), repository.ErrNotFound},
		{"revoked", nil, tokenRow(nil, 0, t0), repository.ErrTokenRevoked},
		{"expired at boundary", func(in *repository.ConsumeInput) { in.Now = t0.Add(time.Hour) }, tokenRow(nil, 0, nil), repository.ErrTokenExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMock(t)
			in := consumeInput()
			if tc.mutate != nil {
				tc.mutate(&in)
			}
			mock.ExpectBegin()
			mock.ExpectQuery("FOR UPDATE").WillReturnRows(tc.rows)
			mock.ExpectRollback()

			res, err := s.Tokens().Consume(context.Background(), in)
			require.ErrorIs(t, err, tc.want)
			assert.Nil(t, res)
		})
	}
}

func TestConsume_Unknown(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := s.Tokens().Consume(context.Background(), consumeInput())
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestRevokeAllByPrincipal(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("UPDATE refresh_token SET revoked_at = \\$2 WHERE principal_id = \\$1").
		WithArgs("p1", t0).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.Tokens().RevokeAllByPrincipal(context.Background(), "p1", t0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRevoke_NotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("UPDATE refresh_token SET revoked_at = COALESCE").
		WithArgs("nope", t0).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Tokens().Revoke(context.Background(), "nope", t0)
	assert.True(t, repository.IsNotFound(err))
}

func TestAuditInsert(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs("01HX", "Login", "acme", "p1", "web", "10.0.0.1", "Login Success", t0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Audit().Insert(context.Background(), repository.AuditRecord{
		ID: "01HX", Kind: "Login", TenantID: "acme", PrincipalID: "p1", ClientID: "web",
		SourceIP: "10.0.0.1", Detail: "Login Success", CreatedAt: t0,
	})
	require.NoError(t, err)
}

func TestMigrate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS principal").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.Migrate(context.Background()))
	assert.Contains(t, Schema(), "refresh_token")
}
