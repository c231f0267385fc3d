package grade

import "context"

// Store persists the grade collection as a whole.
type Store interface {
	// LoadGrades returns every persisted grade.
	LoadGrades(ctx context.Context) ([]*Grade, error)

	// SaveGrades replaces the persisted grade collection with grades.
	SaveGrades(ctx context.Context, grades []*Grade) error
}
