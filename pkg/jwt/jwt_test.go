package jwt

import (
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests"

var testIdentity = Identity{
	UserID:         "00000000-0000-0000-0000-000000000001",
	OrganizationID: "00000000-0000-0000-0000-000000000002",
	PlaceID:        "00000000-0000-0000-0000-000000000003",
	Role:           "manager",
}

func TestGenerateAndParse(t *testing.T) {
	tok, err := Generate(testSecret, testIdentity, "farms-test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	got, err := Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, got)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := Generate(testSecret, testIdentity, "farms-test", -1)
	require.NoError(t, err)

	_, err = Parse(testSecret, tok)
	assert.ErrorIs(t, err, gojwt.ErrTokenExpired)
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := Generate(testSecret, testIdentity, "farms-test", 60)
	require.NoError(t, err)

	_, err = Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err)
}

func TestParse_AlgoritmoNoHMAC(t *testing.T) {
	tok := gojwt.NewWithClaims(gojwt.SigningMethodNone, Claims{UserID: "x"})
	raw, err := tok.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = Parse(testSecret, raw)
	assert.Error(t, err)
}

func TestSecretVacio(t *testing.T) {
	_, err := Generate("", testIdentity, "x", 1)
	assert.Error(t, err)
	_, err = Parse("", "a.b.c")
	assert.Error(t, err)
}
