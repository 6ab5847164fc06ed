package token

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-adoption-api/internal/platform/token"
	"pet-adoption-api/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier contra el issuer local.
// El servicio emite y verifica sus propios tokens; no hay IdP externo.
type Verifier struct {
	issuer *token.Issuer
}

func NewVerifier(issuer *token.Issuer) *Verifier {
	return &Verifier{issuer: issuer}
}

func (v *Verifier) Verify(_ context.Context, raw string) (auth.Claims, error) {
	if v == nil || v.issuer == nil {
		return auth.Claims{}, errors.New("token verifier not configured")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	c, err := v.issuer.ParseAccess(raw)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("token verify failed: %w", err)
	}

	return auth.Claims{
		UserID: c.UserID,
		Email:  c.Email,
	}, nil
}
