package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenLifetime = 30 * 24 * time.Hour

var errBadClaims = errors.New("token missing user_id")

func GenerateToken(secret []byte, userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     now.Add(tokenLifetime).Unix(),
		"iat":     now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseToken(secret []byte, tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	data, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errBadClaims
	}
	raw, ok := data["user_id"].(string)
	if !ok {
		return uuid.Nil, errBadClaims
	}
	uid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errBadClaims
	}
	return uid, nil
}
