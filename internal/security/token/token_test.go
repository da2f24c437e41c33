package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpaque(t *testing.T) {
	a, err := GenerateOpaque(SecretBytes)
	require.NoError(t, err)
	b, err := GenerateOpaque(SecretBytes)
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestHash_Deterministic(t *testing.T) {
	assert.Equal(t, Hash("abc"), Hash("abc"))
	assert.NotEqual(t, Hash("abc"), Hash("abd"))
	assert.NotContains(t, Hash("abc"), "=")
}

func TestS256Challenge_RFC7636Vector(t *testing.T) {
	// Apéndice B de RFC 7636
	assert.Equal(t,
		"E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		S256Challenge("dBjftJeZ4CVP-mB92K1uhbF1P0fN7xgNPJpRvbhmwTw"),
	)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("x", "x"))
	assert.False(t, Equal("x", "y"))
	assert.False(t, Equal("x", ""))
}
