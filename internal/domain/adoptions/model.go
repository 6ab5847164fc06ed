package adoptions

import "time"

// Status es el ciclo de vida de una solicitud de adopción.
// @Enum pending, approved, rejected, withdrawn
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// Request es una solicitud de adopción sobre una mascota publicada.
type Request struct {
	ID string

	PetID string

	OwnerUserID     string // quien publicó la mascota
	RequesterUserID string // quien quiere adoptar

	Message string
	Status  Status

	CreatedAt time.Time
	UpdatedAt time.Time
	DecidedAt *time.Time
}

// Decided indica si la solicitud ya salió de pending.
func (r Request) Decided() bool {
	return r.Status != StatusPending
}
