package controlplane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodesk/internal/config"
	"github.com/dropDatabas3/hellodesk/internal/security/password"
	"github.com/dropDatabas3/hellodesk/internal/validation"
)

func TestFromConfig_AndAuthenticate(t *testing.T) {
	h, err := password.Hash(password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}, "s3cret")
	require.NoError(t, err)

	reg, err := FromConfig([]config.Client{
		{ClientID: "web", TenantID: "acme", Type: "public", GrantTypes: []string{"authorization_code", "refresh_token"}, RedirectURIs: []string{"https://app/cb"}},
		{ClientID: "bo", TenantID: "acme", Type: "Confidential", SecretHash: h, GrantTypes: []string{"PASSWORD", "client_credentials"}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	web, err := reg.Authenticate("web", "")
	require.NoError(t, err)
	assert.True(t, web.IsPublic())
	assert.True(t, web.MustUsePKCE())
	assert.True(t, web.AllowsRedirect("https://app/cb"))
	assert.False(t, web.AllowsRedirect("https://app/cb/"))
	assert.False(t, web.AllowsGrant(GrantPassword))

	bo, err := reg.Authenticate("bo", "s3cret")
	require.NoError(t, err)
	assert.True(t, bo.AllowsGrant(GrantPassword))
	assert.False(t, bo.MustUsePKCE())

	_, err = reg.Authenticate("bo", "wrong")
	require.ErrorIs(t, err, ErrBadSecret)
	_, err = reg.Authenticate("bo", "")
	require.ErrorIs(t, err, ErrBadSecret)
	_, err = reg.Authenticate("nope", "x")
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestFromConfig_Rejects(t *testing.T) {
	_, err := FromConfig([]config.Client{{ClientID: "x", TenantID: "t", Type: "public", GrantTypes: []string{"implicit"}}})
	require.Error(t, err)

	_, err = FromConfig([]config.Client{{ClientID: "x", TenantID: "t", Type: "public", GrantTypes: []string{"client_credentials"}}})
	require.Error(t, err)

	_, err = FromConfig([]config.Client{{ClientID: "x", TenantID: "t", Type: "public", Scopes: []string{"openid", "Tickets Read"}}})
	require.ErrorIs(t, err, validation.ErrInvalidScope)
}

func TestGet_ReturnsCopy(t *testing.T) {
	reg := NewRegistry(Client{ClientID: "web", Scopes: []string{"openid"}})
	c, err := reg.Get("web")
	require.NoError(t, err)
	c.ClientID = "mutated"

	again, _ := reg.Get("web")
	assert.Equal(t, "web", again.ClientID)
}
