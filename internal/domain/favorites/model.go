package favorites

import "time"

// Favorite marca una mascota guardada por un usuario.
// La identidad es el par (UserID, PetID).
type Favorite struct {
	UserID string
	PetID  string

	CreatedAt time.Time
}
