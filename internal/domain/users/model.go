package users

import "time"

// User es una cuenta de la plataforma de adopción (adoptante o rescatista,
// no hay roles separados: cualquier usuario puede publicar y solicitar).
type User struct {
	ID    string
	Email string

	// PHC string argon2id. Nunca sale en responses ni en cache.
	PasswordHash string

	DisplayName string

	CreatedAt  time.Time
	UpdatedAt  time.Time
	DisabledAt *time.Time
}

// RefreshToken es la fila persistida de un refresh opaco.
// Solo se guarda el hash SHA-256 del token.
type RefreshToken struct {
	TokenHash string
	UserID    string

	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
