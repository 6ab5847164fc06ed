package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// AccessClaims son los claims propios del access token.
type AccessClaims struct {
	UserID string
	Email  string
}

// Issuer firma y valida access tokens HS256.
// La clave es un secret compartido de config; alcanza para un servicio
// single-issuer (no hay JWKS ni rotación de claves acá).
type Issuer struct {
	iss       string
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewIssuer(iss, secret string, accessTTL time.Duration) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("token: empty secret")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &Issuer{
		iss:       strings.TrimSpace(iss),
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}, nil
}

// AccessTTL expone el TTL vigente (para expires_in en responses).
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// SignAccess emite un access token para el usuario.
func (i *Issuer) SignAccess(c AccessClaims) (string, error) {
	sub := strings.TrimSpace(c.UserID)
	if sub == "" {
		return "", errors.New("token: empty user id")
	}

	now := i.now()
	claims := jwtv5.MapClaims{
		"iss": i.iss,
		"sub": sub,
		"iat": now.Unix(),
		"exp": now.Add(i.accessTTL).Unix(),
	}
	if e := strings.TrimSpace(c.Email); e != "" {
		claims["email"] = e
	}

	t := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// ParseAccess valida firma, issuer y expiración, y devuelve los claims.
func (i *Issuer) ParseAccess(raw string) (AccessClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AccessClaims{}, ErrInvalidToken
	}

	parsed, err := jwtv5.Parse(raw,
		func(t *jwtv5.Token) (any, error) {
			if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwtv5.WithIssuer(i.iss),
		jwtv5.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return AccessClaims{}, ErrExpiredToken
		}
		return AccessClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := parsed.Claims.(jwtv5.MapClaims)
	if !ok {
		return AccessClaims{}, ErrInvalidToken
	}

	sub, _ := mc["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	email, _ := mc["email"].(string)

	return AccessClaims{UserID: sub, Email: email}, nil
}

// NewRefreshToken genera un token opaco (256 bits, base64url).
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashRefreshToken = SHA-256 base64url; el store nunca guarda el opaco crudo.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
