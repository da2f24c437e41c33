package grants

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodesk/internal/audit"
	"github.com/dropDatabas3/hellodesk/internal/auth/claims"
	"github.com/dropDatabas3/hellodesk/internal/auth/credentials"
	"github.com/dropDatabas3/hellodesk/internal/auth/issuance"
	"github.com/dropDatabas3/hellodesk/internal/auth/refresh"
	"github.com/dropDatabas3/hellodesk/internal/cache"
	"github.com/dropDatabas3/hellodesk/internal/controlplane"
	"github.com/dropDatabas3/hellodesk/internal/domain/repository"
	"github.com/dropDatabas3/hellodesk/internal/jwt"
	"github.com/dropDatabas3/hellodesk/internal/security/password"
	"github.com/dropDatabas3/hellodesk/internal/security/token"
	"github.com/dropDatabas3/hellodesk/internal/store/memory"
)

const (
	tenant   = "acme"
	alicePwd = "P@ss1"
	svcPwd   = "svc-secret"
)

type sinkMock struct {
	mock.Mock
	mu sync.Mutex
}

func (m *sinkMock) RecordEvent(ctx context.Context, ev audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Called(ctx, ev).Error(0)
}

// details devuelve los Detail registrados, en orden.
func (m *sinkMock) details() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		out = append(out, c.Arguments.Get(1).(audit.Event).Detail)
	}
	return out
}

func (m *sinkMock) last() audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[len(m.Calls)-1].Arguments.Get(1).(audit.Event)
}

type fixture struct {
	svc   *Service
	store *memory.Store
	sink  *sinkMock
	jwt   *jwt.Issuer
}

func cheapHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := password.Hash(password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}, plain)
	require.NoError(t, err)
	return h
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	pwHash := cheapHash(t, alicePwd)

	for _, p := range []repository.Principal{
		{ID: "p-alice", TenantID: tenant, Login: "alice", PasswordHash: pwHash, Active: repository.Active, DisplayName: "Alice", Email: "alice@acme.test", Profile: "agent"},
		{ID: "p-bob", TenantID: tenant, Login: "bob", PasswordHash: pwHash, Active: repository.Inactive},
		{ID: "p-erin", TenantID: tenant, Login: "erin", PasswordHash: pwHash, Active: repository.Active},
	} {
		require.NoError(t, st.PutPrincipal(p))
	}
	st.PutRole(tenant, "agent", "ticket.read", "ticket.comment")
	st.AssignRole(tenant, "p-alice", "agent")
	st.PutRole(tenant, "support-agent", "ticket:read", "ticket:write")
	st.AssignRole(tenant, "p-erin", "support-agent")

	clients := controlplane.NewRegistry(
		controlplane.Client{
			ClientID: "web", TenantID: tenant, Type: controlplane.ClientTypePublic,
			RedirectURIs: []string{"https://app.acme.test/cb"},
			GrantTypes: []controlplane.GrantType{
				controlplane.GrantAuthorizationCode, controlplane.GrantPassword, controlplane.GrantRefreshToken,
			},
			Scopes:        []string{"openid", "profile", "email", "roles", "offline_access"},
			DefaultScopes: []string{"openid", "profile", "roles"},
		},
		controlplane.Client{
			ClientID: "svc", TenantID: tenant, Type: controlplane.ClientTypeConfidential,
			SecretHash: cheapHash(t, svcPwd),
			GrantTypes: []controlplane.GrantType{controlplane.GrantClientCredentials},
			Scopes:     []string{"api"},
		},
	)

	ks, err := jwt.NewDevEd25519("k1")
	require.NoError(t, err)
	ji := jwt.NewIssuer("https://auth.acme.test", ks)
	rot := refresh.NewRotator(st.Tokens(), time.Hour)

	sink := &sinkMock{}
	sink.On("RecordEvent", mock.Anything, mock.Anything).Return(nil)

	return &fixture{
		svc: &Service{
			Clients:    clients,
			Verifier:   credentials.NewVerifier(st.Principals()),
			Principals: st.Principals(),
			Claims:     claims.NewAssembler(st.RBAC()),
			Issuer:     issuance.New(ji, rot, 10*time.Minute),
			Refresh:    rot,
			Codes:      cache.NewMemory(""),
			Audit:      sink,
		},
		store: st,
		sink:  sink,
		jwt:   ji,
	}
}

func (f *fixture) passwordGrant(t *testing.T, login, pwd string) (*TokenResponse, error) {
	t.Helper()
	return f.svc.Exchange(context.Background(), TokenRequest{
		GrantType: "password", ClientID: "web", Username: login, Password: pwd, SourceIP: "10.0.0.7",
	})
}

func (f *fixture) refreshGrant(secret string) (*TokenResponse, error) {
	return f.svc.Exchange(context.Background(), TokenRequest{GrantType: "refresh_token", ClientID: "web", RefreshToken: secret})
}

func claimList(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, x := range raw {
		out = append(out, x.(string))
	}
	return out
}

// Scenario A
func TestPassword_Success(t *testing.T) {
	f := newFixture(t)
	resp, err := f.passwordGrant(t, "Alice", alicePwd)
	require.NoError(t, err)

	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 600, resp.ExpiresIn)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.IDToken)
	assert.Equal(t, "openid profile roles", resp.Scope)

	mc, err := f.jwt.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "p-alice", mc["sub"])
	assert.Equal(t, tenant, mc["tid"])
	assert.Equal(t, []string{"agent"}, claimList(mc["roles"]))
	assert.Equal(t, []string{"ticket.comment", "ticket.read"}, claimList(mc["permissions"]))

	assert.Equal(t, []string{audit.DetailLoginSuccess}, f.sink.details())
	assert.Equal(t, "10.0.0.7", f.sink.last().SourceIP)
	assert.Equal(t, audit.Login, f.sink.last().Kind)
}

// Scenarios B y C: mismo error externo, auditoría distinta.
func TestPassword_Denials(t *testing.T) {
	f := newFixture(t)

	_, errB := f.passwordGrant(t, "alice", "wrong")
	require.ErrorIs(t, errB, ErrInvalidCredentials)
	evB := f.sink.last()
	assert.Equal(t, audit.DetailInvalidCredential, evB.Detail)
	assert.Equal(t, "p-alice", evB.PrincipalID)

	_, errC := f.passwordGrant(t, "bob", alicePwd)
	require.ErrorIs(t, errC, ErrAccountInactive)
	evC := f.sink.last()
	assert.Equal(t, audit.DetailAccountNotActive, evC.Detail)
	assert.Equal(t, "p-bob", evC.PrincipalID)

	_, errUnknown := f.passwordGrant(t, "nobody", alicePwd)
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Empty(t, f.sink.last().PrincipalID)

	pb, pc, pu := PublicError(errB), PublicError(errC), PublicError(errUnknown)
	assert.Equal(t, pb, pc)
	assert.Equal(t, pb, pu)
	assert.Equal(t, http.StatusBadRequest, pb.Status)
	assert.Equal(t, CodeInvalidGrant, pb.Code)
}

// Scenario D
func TestRefresh_RotationAndReuseCascade(t *testing.T) {
	f := newFixture(t)

	first, err := f.passwordGrant(t, "alice", alicePwd)
	require.NoError(t, err)
	other, err := f.passwordGrant(t, "alice", alicePwd)
	require.NoError(t, err)
	t1, t3 := first.RefreshToken, other.RefreshToken

	rotated, err := f.refreshGrant(t1)
	require.NoError(t, err)
	t2 := rotated.RefreshToken
	require.NotEmpty(t, t2)
	assert.NotEqual(t, t1, t2)
	assert.Equal(t, first.Scope, rotated.Scope)
	assert.Equal(t, audit.DetailRefreshSuccess, f.sink.last().Detail)

	_, err = f.refreshGrant(t1)
	require.ErrorIs(t, err, ErrTokenReused)
	ev := f.sink.last()
	assert.Equal(t, audit.DetailRefreshReused, ev.Detail)
	assert.Equal(t, "p-alice", ev.PrincipalID)

	for _, s := range []string{t2, t3} {
		_, err := f.refreshGrant(s)
		require.Error(t, err)
		assert.Equal(t, CodeInvalidGrant, PublicError(err).Code)
	}
}

func TestRefresh_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	resp, err := f.passwordGrant(t, "alice", alicePwd)
	require.NoError(t, err)

	_, errUnknown := f.refreshGrant("not-a-token")
	require.ErrorIs(t, errUnknown, ErrTokenNotFound)

	_, err = f.refreshGrant(resp.RefreshToken)
	require.NoError(t, err)
	_, errReused := f.refreshGrant(resp.RefreshToken)
	require.ErrorIs(t, errReused, ErrTokenReused)

	assert.Equal(t, PublicError(errUnknown), PublicError(errReused))
}

func TestRefresh_OtherClientCannotRedeem(t *testing.T) {
	f := newFixture(t)
	f.svc.Clients = controlplane.NewRegistry(
		mustClient(t, f, "web"),
		controlplane.Client{ClientID: "mobile", TenantID: tenant, Type: controlplane.ClientTypePublic,
			GrantTypes: []controlplane.GrantType{controlplane.GrantRefreshToken}, Scopes: []string{"openid"}},
	)
	resp, err := f.passwordGrant(t, "alice", alicePwd)
	require.NoError(t, err)

	_, err = f.svc.Exchange(context.Background(), TokenRequest{GrantType: "refresh_token", ClientID: "mobile", RefreshToken: resp.RefreshToken})
	require.ErrorIs(t, err, ErrTokenNotFound)

	// no se consumió: el dueño todavía puede rotarlo
	_, err = f.refreshGrant(resp.RefreshToken)
	require.NoError(t, err)
}

func mustClient(t *testing.T, f *fixture, id string) controlplane.Client {
	t.Helper()
	c, err := f.svc.Clients.Get(id)
	require.NoError(t, err)
	return *c
}

// Scenario E
func TestClaims_ExactRolePermissions(t *testing.T) {
	f := newFixture(t)
	resp, err := f.passwordGrant(t, "erin", alicePwd)
	require.NoError(t, err)

	mc, err := f.jwt.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"support-agent"}, claimList(mc["roles"]))
	assert.Equal(t, []string{"ticket:read", "ticket:write"}, claimList(mc["permissions"]))
}

func TestRefresh_PicksUpPermissionChanges(t *testing.T) {
	f := newFixture(t)
	resp, err := f.passwordGrant(t, "erin", alicePwd)
	require.NoError(t, err)

	f.store.PutRole(tenant, "support-agent", "ticket:read")
	rotated, err := f.refreshGrant(resp.RefreshToken)
	require.NoError(t, err)

	mc, err := f.jwt.Parse(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"ticket:read"}, claimList(mc["permissions"]))
}

const verifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

func challenge(v string) string { return token.S256Challenge(v) }

func (f *fixture) authorize(t *testing.T, principalID string) *AuthorizeResponse {
	t.Helper()
	resp, err := f.svc.Authorize(context.Background(), AuthorizeRequest{
		PrincipalID: principalID, TenantID: tenant, ClientID: "web",
		RedirectURI: "https://app.acme.test/cb", Scope: "openid email offline_access bogus", State: "xyz",
		CodeChallenge: challenge(verifier), CodeChallengeMethod: "S256",
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) exchange(code, verifier string) (*TokenResponse, error) {
	return f.svc.Exchange(context.Background(), TokenRequest{
		GrantType: "authorization_code", ClientID: "web", Code: code,
		RedirectURI: "https://app.acme.test/cb", CodeVerifier: verifier,
	})
}

func TestCode_ExchangeRestoresScopesOnce(t *testing.T) {
	f := newFixture(t)
	az := f.authorize(t, "p-alice")
	assert.Equal(t, "xyz", az.State)

	resp, err := f.exchange(az.Code, verifier)
	require.NoError(t, err)
	assert.Equal(t, "openid email offline_access", resp.Scope)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.IDToken)
	assert.Equal(t, audit.DetailCodeExchanged, f.sink.last().Detail)

	_, err = f.exchange(az.Code, verifier)
	require.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, CodeInvalidGrant, PublicError(err).Code)
}

func TestCode_WrongVerifierBurnsCode(t *testing.T) {
	f := newFixture(t)
	az := f.authorize(t, "p-alice")

	_, err := f.exchange(az.Code, "wrong-verifier-wrong-verifier-wrong-verifier")
	require.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, audit.DetailCodeRejected, f.sink.last().Detail)

	_, err = f.exchange(az.Code, verifier)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestCode_Expired(t *testing.T) {
	f := newFixture(t)
	az := f.authorize(t, "p-alice")
	f.svc.Now = func() time.Time { return time.Now().Add(6 * time.Minute) }

	_, err := f.exchange(az.Code, verifier)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestCode_ConcurrentExchangeSingleWinner(t *testing.T) {
	f := newFixture(t)
	az := f.authorize(t, "p-alice")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.exchange(az.Code, verifier); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestAuthorize_Validation(t *testing.T) {
	f := newFixture(t)
	base := AuthorizeRequest{
		PrincipalID: "p-alice", TenantID: tenant, ClientID: "web",
		RedirectURI: "https://app.acme.test/cb", CodeChallenge: challenge(verifier), CodeChallengeMethod: "S256",
	}
	cases := []struct {
		name   string
		mutate func(*AuthorizeRequest)
		want   error
	}{
		{"unknown client", func(r *AuthorizeRequest) { r.ClientID = "ghost" }, ErrUnknownClient},
		{"grant not enabled", func(r *AuthorizeRequest) { r.ClientID = "svc" }, ErrUnsupportedGrant},
		{"other tenant", func(r *AuthorizeRequest) { r.TenantID = "globex" }, ErrInvalidRequest},
		{"redirect not registered", func(r *AuthorizeRequest) { r.RedirectURI = "https://evil.test/cb" }, ErrInvalidRequest},
		{"plain pkce", func(r *AuthorizeRequest) { r.CodeChallengeMethod = "plain" }, ErrInvalidRequest},
		{"public client without pkce", func(r *AuthorizeRequest) { r.CodeChallenge = ""; r.CodeChallengeMethod = "" }, ErrInvalidRequest},
		{"inactive principal", func(r *AuthorizeRequest) { r.PrincipalID = "p-bob" }, ErrAccountInactive},
		{"unknown principal", func(r *AuthorizeRequest) { r.PrincipalID = "p-ghost" }, ErrInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := f.svc.Authorize(context.Background(), req)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

// Un principal desactivado falla en todos los grants, aun con credenciales válidas.
func TestInactivePrincipal_FailsEveryGrant(t *testing.T) {
	ctx := context.Background()

	t.Run("password", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.passwordGrant(t, "bob", alicePwd)
		require.ErrorIs(t, err, ErrAccountInactive)
	})

	t.Run("authorization_code", func(t *testing.T) {
		f := newFixture(t)
		az := f.authorize(t, "p-alice")
		require.NoError(t, f.store.SetActive(ctx, tenant, "p-alice", repository.Inactive))

		_, err := f.exchange(az.Code, verifier)
		require.ErrorIs(t, err, ErrAccountInactive)
		assert.Equal(t, audit.DetailAccountNotActive, f.sink.last().Detail)
	})

	t.Run("refresh_token", func(t *testing.T) {
		f := newFixture(t)
		resp, err := f.passwordGrant(t, "alice", alicePwd)
		require.NoError(t, err)
		require.NoError(t, f.store.SetActive(ctx, tenant, "p-alice", repository.Inactive))

		_, err = f.refreshGrant(resp.RefreshToken)
		require.ErrorIs(t, err, ErrAccountInactive)
		assert.Equal(t, audit.DetailAccountNotActive, f.sink.last().Detail)

		// reactivado, el token ya fue consumido: no hay forma de seguir la cadena
		require.NoError(t, f.store.SetActive(ctx, tenant, "p-alice", repository.Active))
		_, err = f.refreshGrant(resp.RefreshToken)
		require.ErrorIs(t, err, ErrTokenReused)
	})
}

func TestClientCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Exchange(ctx, TokenRequest{GrantType: "client_credentials", ClientID: "svc", ClientSecret: svcPwd, Scope: "api openid"})
	require.NoError(t, err)
	assert.Empty(t, resp.RefreshToken)
	assert.Empty(t, resp.IDToken)
	assert.Equal(t, "api", resp.Scope)

	mc, err := f.jwt.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "svc", mc["sub"])
	assert.Equal(t, audit.DetailClientCredentials, f.sink.last().Detail)

	_, err = f.svc.Exchange(ctx, TokenRequest{GrantType: "client_credentials", ClientID: "svc", ClientSecret: "nope"})
	require.ErrorIs(t, err, ErrUnknownClient)
	assert.Equal(t, http.StatusUnauthorized, PublicError(err).Status)
}

func TestExchange_ClientAndGrantErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Exchange(ctx, TokenRequest{GrantType: "password", ClientID: "ghost"})
	require.ErrorIs(t, err, ErrUnknownClient)
	assert.Equal(t, CodeInvalidClient, PublicError(err).Code)

	_, err = f.svc.Exchange(ctx, TokenRequest{GrantType: "implicit", ClientID: "web"})
	require.ErrorIs(t, err, ErrUnsupportedGrant)
	assert.Equal(t, CodeUnsupportedGrantType, PublicError(err).Code)

	_, err = f.svc.Exchange(ctx, TokenRequest{GrantType: "client_credentials", ClientID: "web"})
	require.ErrorIs(t, err, ErrUnsupportedGrant)
}

func TestRevokeAndLogoutAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.passwordGrant(t, "alice", alicePwd)
	require.NoError(t, err)
	b, err := f.passwordGrant(t, "alice", alicePwd)
	require.NoError(t, err)
	c, err := f.passwordGrant(t, "alice", alicePwd)
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, RevokeRequest{ClientID: "web", Token: a.RefreshToken}))
	_, err = f.refreshGrant(a.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)

	// RFC 7009: desconocido no es error
	require.NoError(t, f.svc.Revoke(ctx, RevokeRequest{ClientID: "web", Token: "unknown"}))
	err = f.svc.Revoke(ctx, RevokeRequest{ClientID: "ghost", Token: b.RefreshToken})
	require.ErrorIs(t, err, ErrUnknownClient)

	n, err := f.svc.LogoutAll(ctx, tenant, "p-alice", "web", "10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, audit.DetailLogoutAll, f.sink.last().Detail)

	for _, s := range []string{b.RefreshToken, c.RefreshToken} {
		_, err := f.refreshGrant(s)
		require.ErrorIs(t, err, ErrTokenRevoked)
	}
}

// Replay de un token rotado después de un logout: sigue siendo reuso y
// revoca lo emitido desde entonces.
func TestRefresh_ReplayAfterLogoutIsReuse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.passwordGrant(t, "alice", alicePwd)
	require.NoError(t, err)
	_, err = f.refreshGrant(first.RefreshToken)
	require.NoError(t, err)

	_, err = f.svc.LogoutAll(ctx, tenant, "p-alice", "web", "10.0.0.7")
	require.NoError(t, err)

	fresh, err := f.passwordGrant(t, "alice", alicePwd)
	require.NoError(t, err)

	_, err = f.refreshGrant(first.RefreshToken)
	require.ErrorIs(t, err, ErrTokenReused)

	_, err = f.refreshGrant(fresh.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

type brokenClients struct{ err error }

func (b brokenClients) Get(string) (*controlplane.Client, error) { return nil, b.err }
func (b brokenClients) Authenticate(string, string) (*controlplane.Client, error) {
	return nil, b.err
}

func TestRevoke_ClientLookupFailureIsNotInvalidClient(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("registry unavailable")
	f.svc.Clients = brokenClients{err: boom}

	err := f.svc.Revoke(context.Background(), RevokeRequest{ClientID: "web", Token: "x"})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUnknownClient)
	assert.Equal(t, CodeServerError, PublicError(err).Code)

	f.svc.Clients = brokenClients{err: controlplane.ErrBadSecret}
	err = f.svc.Revoke(context.Background(), RevokeRequest{ClientID: "svc", ClientSecret: "nope", Token: "x"})
	require.ErrorIs(t, err, ErrUnknownClient)
	assert.Equal(t, CodeInvalidClient, PublicError(err).Code)
}

func TestAuditFailureDoesNotBlockIssuance(t *testing.T) {
	f := newFixture(t)
	failing := &sinkMock{}
	failing.On("RecordEvent", mock.Anything, mock.Anything).Return(errors.New("audit down"))
	f.svc.Audit = failing

	_, err := f.passwordGrant(t, "alice", alicePwd)
	require.NoError(t, err)
	failing.AssertNumberOfCalls(t, "RecordEvent", 1)
}

func TestPublicError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ErrUnknownClient, http.StatusUnauthorized, CodeInvalidClient},
		{ErrUnsupportedGrant, http.StatusBadRequest, CodeUnsupportedGrantType},
		{ErrInvalidCredentials, http.StatusBadRequest, CodeInvalidGrant},
		{ErrAccountInactive, http.StatusBadRequest, CodeInvalidGrant},
		{ErrTokenReused, http.StatusBadRequest, CodeInvalidGrant},
		{ErrTokenExpired, http.StatusBadRequest, CodeInvalidGrant},
		{ErrTokenNotFound, http.StatusBadRequest, CodeInvalidGrant},
		{ErrTokenRevoked, http.StatusBadRequest, CodeInvalidGrant},
		{ErrInvalidCode, http.StatusBadRequest, CodeInvalidGrant},
		{errors.New("connection refused"), http.StatusInternalServerError, CodeServerError},
	}
	for _, tc := range cases {
		p := PublicError(tc.err)
		assert.Equal(t, tc.status, p.Status, tc.err.Error())
		assert.Equal(t, tc.code, p.Code, tc.err.Error())
	}
}
