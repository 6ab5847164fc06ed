package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Size define el porte (filtro clásico en adopción).
// @Enum small, medium, large
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Status es el estado de adopción de la publicación.
// - available: visible y aceptando solicitudes
// - pending: tiene una solicitud en evaluación
// - adopted: adoptada, ya no acepta solicitudes
// @Enum available, pending, adopted
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusAdopted   Status = "adopted"
)

// Pet es una publicación de mascota en adopción.
type Pet struct {
	ID             string
	ListedByUserID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex
	Size    Size

	AgeMonths   int
	Description string
	PhotoURL    string
	City        string

	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

func ValidSpecies(s Species) bool {
	return s == SpeciesDog || s == SpeciesCat
}

func ValidSex(s Sex) bool {
	return s == SexMale || s == SexFemale || s == SexUnknown
}

func ValidSize(s Size) bool {
	return s == SizeSmall || s == SizeMedium || s == SizeLarge
}

func ValidStatus(s Status) bool {
	return s == StatusAvailable || s == StatusPending || s == StatusAdopted
}
