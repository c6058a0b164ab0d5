package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const adminSubject = "admin"

var ErrInvalidToken = errors.New("token invalid")

// Issuer signs and verifies admin session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) GenerateAdminToken() (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) VerifyAdminToken(tokenString string) error {
	var claims jwt.RegisteredClaims
	jwtToken, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return err
	}

	if !jwtToken.Valid || claims.Subject != adminSubject {
		return ErrInvalidToken
	}
	return nil
}
