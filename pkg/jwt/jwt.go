package jwt

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidKey   = errors.New("invalid verification key")
)

// Claims are the claims of a token issued by the embedded-wallet auth
// provider. Subject carries the opaque user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier validates provider-issued access tokens. It never issues tokens.
type Verifier struct {
	key      interface{}
	method   string
	issuer   string
	audience string
}

// NewVerifier builds a verifier from either a PEM encoded EC public key
// (ES256) or a shared secret (HS256).
func NewVerifier(key, issuer, audience string) (*Verifier, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrInvalidKey
	}

	v := &Verifier{issuer: issuer, audience: audience}
	if strings.HasPrefix(key, "-----BEGIN") {
		pub, err := jwt.ParseECPublicKeyFromPEM([]byte(key))
		if err != nil {
			return nil, ErrInvalidKey
		}
		v.key = pub
		v.method = jwt.SigningMethodES256.Alg()
		return v, nil
	}

	v.key = []byte(key)
	v.method = jwt.SigningMethodHS256.Alg()
	return v, nil
}

// Method returns the only signing algorithm the verifier accepts.
func (v *Verifier) Method() string {
	return v.method
}

// Verify parses tokenString and returns its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
