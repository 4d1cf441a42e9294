// Package auth provides JWT issuing/validation and password hashing.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gokoo/ai-toolbox/errs"
)

type JWTService struct {
	secretKey    string
	expireAccess time.Duration
}

type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey string, expireAccessHours int) *JWTService {
	if expireAccessHours <= 0 {
		expireAccessHours = 72
	}
	return &JWTService{
		secretKey:    secretKey,
		expireAccess: time.Duration(expireAccessHours) * time.Hour,
	}
}

// GenerateToken signs an HS256 access token for the user.
func (j *JWTService) GenerateToken(userID, name string) (string, time.Time, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expireAccess)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenStr, claims.ExpiresAt.Time, nil
}

// ValidateToken parses tokenStr and returns its claims. All failures map
// to a 401 operational error.
func (j *JWTService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errs.Unauthorized("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.secretKey), nil
		})
	if err != nil {
		return nil, errs.Unauthorized("invalid or expired token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errs.Unauthorized("invalid token")
	}
	return claims, nil
}
