package util

import (
	"classroom_backend/internal/model"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const IdentityContextKey = "identity"

type Claims struct {
	UserID    string         `json:"user_id"`
	Role      model.UserRole `json:"role"`
	ProfileID string         `json:"profile_id"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() model.Identity {
	return model.NewIdentity(c.Role, c.UserID, c.ProfileID)
}

// GenerateJWT profileID 为教师或学生档案的 ID，随角色而定
func GenerateJWT(userID string, role model.UserRole, profileID, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		UserID:    userID,
		Role:      role,
		ProfileID: profileID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func TokenForIdentity(who model.Identity, secret string, expiration time.Duration) (string, error) {
	switch id := who.(type) {
	case model.TeacherIdentity:
		return GenerateJWT(id.UserID, model.RoleTeacher, id.TeacherID, secret, expiration)
	case model.StudentIdentity:
		return GenerateJWT(id.UserID, model.RoleStudent, id.StudentID, secret, expiration)
	}
	return "", errors.New("unknown identity")
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if !claims.Role.Valid() || claims.UserID == "" || claims.ProfileID == "" {
			return nil, errors.New("incomplete token claims")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// IdentityFromContext 未登录时返回 nil
func IdentityFromContext(c *gin.Context) model.Identity {
	v, exists := c.Get(IdentityContextKey)
	if !exists {
		return nil
	}
	who, ok := v.(model.Identity)
	if !ok {
		return nil
	}
	return who
}
