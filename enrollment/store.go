package enrollment

import "context"

// Store persists the enrollment collection as a whole.
type Store interface {
	// LoadEnrollments returns every persisted enrollment.
	LoadEnrollments(ctx context.Context) ([]*Enrollment, error)

	// SaveEnrollments replaces the persisted enrollment collection.
	SaveEnrollments(ctx context.Context, enrollments []*Enrollment) error
}
