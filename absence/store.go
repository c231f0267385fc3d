package absence

import "context"

// Store persists the absence collection as a whole.
type Store interface {
	// LoadAbsences returns every persisted absence.
	LoadAbsences(ctx context.Context) ([]*Absence, error)

	// SaveAbsences replaces the persisted absence collection with absences.
	SaveAbsences(ctx context.Context, absences []*Absence) error
}
