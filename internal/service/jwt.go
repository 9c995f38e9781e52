package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret []byte

	ErrInvalidSession = errors.New("invalid session token")
	ErrNoSigningKey   = errors.New("session signing key not set")
)

const sessionTTL = 24 * time.Hour

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateSessionJWT signs the (access code, player secret) pair a client
// presents on later requests.
func GenerateSessionJWT(accessCode, secret string) (string, error) {
	if len(jwtSecret) == 0 {
		return "", ErrNoSigningKey
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"code":   accessCode,
		"secret": secret,
		"exp":    now.Add(sessionTTL).Unix(),
		"iat":    now.Unix(),
		"nbf":    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseSessionJWT returns the access code and player secret of a session.
func ParseSessionJWT(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", "", ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidSession
	}

	code, _ := claims["code"].(string)
	secret, _ := claims["secret"].(string)
	if code == "" || secret == "" {
		return "", "", ErrInvalidSession
	}
	return code, secret, nil
}
