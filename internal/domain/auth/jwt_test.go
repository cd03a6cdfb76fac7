package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/apperror"
	appctx "stockerp/internal/core/context"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))

	token, expiresAt, err := svc.GenerateAccessToken(appctx.Actor{UserID: "u1", Email: "u1@example.com", RoleCode: "Z_INV_CLERK"})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	actor, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", actor.UserID)
	assert.Equal(t, "u1@example.com", actor.Email)
	assert.Equal(t, "Z_INV_CLERK", actor.RoleCode)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	actor := appctx.Actor{UserID: "u1", RoleCode: "Z_SALES_STAFF"}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(DefaultJWTConfig("other"))
		token, _, err := other.GenerateAccessToken(actor)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Equal(t, apperror.CodeUnauthorized, apperror.Kind(err))
	})

	t.Run("expired", func(t *testing.T) {
		old := NewJWTService(DefaultJWTConfig("secret"))
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := old.GenerateAccessToken(actor)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Equal(t, apperror.CodeUnauthorized, apperror.Kind(err))
	})

	t.Run("missing role", func(t *testing.T) {
		token, _, err := svc.GenerateAccessToken(appctx.Actor{UserID: "u1"})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Equal(t, apperror.CodeUnauthorized, apperror.Kind(err))
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "stockerp",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UserID:   "u1",
			RoleCode: "Z_ALL",
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Equal(t, apperror.CodeUnauthorized, apperror.Kind(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.Equal(t, apperror.CodeUnauthorized, apperror.Kind(err))
	})
}
