package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestCodec() *Codec {
	return NewCodec(testSecret, "perimeter-test")
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec()

	claims := codec.NewClaims("user-1", "tenant-a", "alice", KindAccess, time.Hour)
	credential, err := codec.Encode(claims)
	require.NoError(t, err)
	require.NotEmpty(t, credential)

	decoded, err := codec.Decode(credential)
	require.NoError(t, err)
	assert.Equal(t, "user-1", decoded.Subject)
	assert.Equal(t, "tenant-a", decoded.TenantID)
	assert.Equal(t, "alice", decoded.Username)
	assert.Equal(t, KindAccess, decoded.Kind)
	assert.NotEmpty(t, decoded.ID)
}

func TestCodec_Decode_BadSignature(t *testing.T) {
	codec := newTestCodec()
	other := NewCodec([]byte("another-secret-another-secret-ab"), "perimeter-test")

	claims := codec.NewClaims("user-1", "tenant-a", "alice", KindAccess, time.Hour)
	credential, err := other.Encode(claims)
	require.NoError(t, err)

	_, err = codec.Decode(credential)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestCodec_Decode_Garbage(t *testing.T) {
	codec := newTestCodec()

	for _, credential := range []string{"", "   ", "not-a-credential", "a.b.c"} {
		_, err := codec.Decode(credential)
		assert.ErrorIs(t, err, ErrInvalidCredential, "credential %q", credential)
	}
}

func TestCodec_Decode_WrongIssuer(t *testing.T) {
	codec := newTestCodec()
	foreign := NewCodec(testSecret, "someone-else")

	claims := foreign.NewClaims("user-1", "tenant-a", "alice", KindAccess, time.Hour)
	credential, err := foreign.Encode(claims)
	require.NoError(t, err)

	_, err = codec.Decode(credential)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestCodec_Decode_Expired(t *testing.T) {
	codec := newTestCodec()

	now := time.Now().UTC()
	claims := Claims{
		TenantID: "tenant-a",
		Kind:     KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "perimeter-test",
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			ID:        uuid.NewString(),
		},
	}
	credential, err := codec.Encode(claims)
	require.NoError(t, err)

	decoded, err := codec.Decode(credential)
	assert.ErrorIs(t, err, ErrExpiredCredential)
	// Claims are still returned so callers can act on the identity
	require.NotNil(t, decoded)
	assert.Equal(t, "user-1", decoded.Subject)
}

func TestCodec_Decode_ExpiryBeforeIssuedAt(t *testing.T) {
	codec := newTestCodec()

	now := time.Now().UTC()
	claims := Claims{
		TenantID: "tenant-a",
		Kind:     KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "perimeter-test",
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			ID:        uuid.NewString(),
		},
	}
	credential, err := codec.Encode(claims)
	require.NoError(t, err)

	_, err = codec.Decode(credential)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestCodec_Decode_MissingSubject(t *testing.T) {
	codec := newTestCodec()

	claims := codec.NewClaims("", "tenant-a", "", KindAccess, time.Hour)
	credential, err := codec.Encode(claims)
	require.NoError(t, err)

	_, err = codec.Decode(credential)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestCodec_Decode_UnknownKind(t *testing.T) {
	codec := newTestCodec()

	claims := codec.NewClaims("user-1", "tenant-a", "alice", Kind("session"), time.Hour)
	credential, err := codec.Encode(claims)
	require.NoError(t, err)

	_, err = codec.Decode(credential)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
