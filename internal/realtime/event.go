package realtime

import "time"

// Op es el tipo de cambio sobre una fila.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Tablas observables. Cualquier otro valor en un filtro se ignora.
const (
	TablePets             = "pets"
	TableFavorites        = "favorites"
	TableAdoptionRequests = "adoption_requests"
)

// Event es una notificación de cambio sobre una fila.
// Record/OldRecord son los DTOs JSON del módulo que publicó.
type Event struct {
	ID    string `json:"id"`
	Table string `json:"table"`
	Op    Op     `json:"op"`

	Record    any `json:"record,omitempty"`
	OldRecord any `json:"old_record,omitempty"`

	// Audience vacío = broadcast. Si tiene user IDs, solo esos
	// suscriptores (autenticados) reciben el evento.
	Audience []string `json:"-"`

	At time.Time `json:"at"`
}

// VisibleTo decide si el evento puede entregarse a un suscriptor.
func (e Event) VisibleTo(userID string) bool {
	if len(e.Audience) == 0 {
		return true
	}
	for _, id := range e.Audience {
		if id != "" && id == userID {
			return true
		}
	}
	return false
}

func knownTable(name string) bool {
	switch name {
	case TablePets, TableFavorites, TableAdoptionRequests:
		return true
	}
	return false
}
