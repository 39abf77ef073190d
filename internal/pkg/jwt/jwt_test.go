package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyPair(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestGenerateAndVerify(t *testing.T) {
	key := newKeyPair(t)
	gen := NewGenerator(key, "identity", "billing", "k1", time.Hour)
	ver := NewVerifier(&key.PublicKey, "identity", "billing")

	tok, jti, err := gen.GenerateAccessToken(Subject{UserID: "u-1", UserType: "Investor", Roles: []string{RoleAdmin}})
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := ver.VerifyAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, "Investor", claims.UserType)
	assert.Equal(t, jti, claims.ID)
	assert.True(t, claims.IsAdmin())
}

func TestVerifyRejectsWrongAudienceAndIssuer(t *testing.T) {
	key := newKeyPair(t)
	tok, _, err := NewGenerator(key, "identity", "other", "", time.Hour).
		GenerateAccessToken(Subject{UserID: "u-1"})
	require.NoError(t, err)

	_, err = NewVerifier(&key.PublicKey, "identity", "billing").Verify(tok)
	assert.Error(t, err)

	_, err = NewVerifier(&key.PublicKey, "someone-else", "other").Verify(tok)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredAndForeignKey(t *testing.T) {
	key := newKeyPair(t)
	expired, _, err := NewGenerator(key, "identity", "billing", "", -time.Minute).
		GenerateAccessToken(Subject{UserID: "u-1"})
	require.NoError(t, err)

	ver := NewVerifier(&key.PublicKey, "identity", "billing")
	_, err = ver.Verify(expired)
	assert.Error(t, err)

	other := newKeyPair(t)
	foreign, _, err := NewGenerator(other, "identity", "billing", "", time.Hour).
		GenerateAccessToken(Subject{UserID: "u-1"})
	require.NoError(t, err)
	_, err = ver.Verify(foreign)
	assert.Error(t, err)
}

func TestParseKeysPEM(t *testing.T) {
	key := newKeyPair(t)

	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	parsed, err := ParseRSAPrivateKeyPEM(pkcs1)
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))

	pkixBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub, err := ParseRSAPublicKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pkixBytes}))
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(pub))

	_, err = ParseRSAPublicKeyPEM([]byte("not pem"))
	assert.Error(t, err)
}

func TestClaimsRoles(t *testing.T) {
	c := &Claims{Roles: []string{"investor"}}
	assert.True(t, c.HasRole("investor"))
	assert.False(t, c.IsAdmin())
	assert.True(t, (&Claims{Roles: []string{RoleSuperAdmin}}).IsAdmin())
}
