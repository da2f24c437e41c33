package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidScopeName(t *testing.T) {
	for _, v := range []string{"a", "openid", "offline_access", "ticket:read", "a_b-c.d:scope2", strings.Repeat("a", 64)} {
		assert.True(t, ValidScopeName(v), v)
	}
	for _, v := range []string{"", ":lead", "trail:", "bad space", "UPPER", "semi;colon", strings.Repeat("a", 65)} {
		assert.False(t, ValidScopeName(v), v)
	}
}

func TestScopes(t *testing.T) {
	require.NoError(t, Scopes([]string{"openid", "email"}))
	require.NoError(t, Scopes(nil))

	err := Scopes([]string{"openid", "Bad", "x y"})
	require.ErrorIs(t, err, ErrInvalidScope)
	assert.Contains(t, err.Error(), `"Bad"`)
	assert.Contains(t, err.Error(), `"x y"`)
}
