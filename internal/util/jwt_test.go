package util

import (
	"classroom_backend/internal/model"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		who  model.Identity
	}{
		{"teacher", model.TeacherIdentity{UserID: "u-1", TeacherID: "t-1"}},
		{"student", model.StudentIdentity{UserID: "u-2", StudentID: "s-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := TokenForIdentity(tt.who, "secret", time.Hour)
			require.NoError(t, err)

			claims, err := ParseJWT(token, "secret")
			require.NoError(t, err)
			assert.Equal(t, tt.who, claims.Identity())
			assert.Equal(t, tt.who.Role(), claims.Role)
		})
	}
}

func TestParseJWTRejects(t *testing.T) {
	who := model.StudentIdentity{UserID: "u-1", StudentID: "s-1"}

	token, err := TokenForIdentity(who, "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err, "wrong secret")

	expired, err := TokenForIdentity(who, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.Error(t, err, "expired")

	noProfile, err := GenerateJWT("u-1", model.RoleStudent, "", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(noProfile, "secret")
	assert.Error(t, err, "missing profile id")

	badRole, err := GenerateJWT("u-1", model.UserRole("admin"), "p-1", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(badRole, "secret")
	assert.Error(t, err, "unknown role")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u-1", Role: model.RoleStudent, ProfileID: "s-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseJWT(unsigned, "secret")
	assert.Error(t, err, "alg none")

	_, err = TokenForIdentity(nil, "secret", time.Hour)
	assert.Error(t, err)
}
