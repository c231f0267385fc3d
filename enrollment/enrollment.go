// Package enrollment defines the Enrollment entity (student→module
// registration) and its store interface.
package enrollment

import "time"

// Enrollment registers a student in a module. ValidatedBy holds the code
// of the administrator who validated it.
type Enrollment struct {
	StudentCode string     `json:"student_code" validate:"required"`
	ModuleCode  string     `json:"module_code" validate:"required"`
	Validated   bool       `json:"validated"`
	ValidatedBy string     `json:"validated_by,omitempty" validate:"required_if=Validated true"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
}

// Key is the logical identity of an enrollment.
type Key struct {
	StudentCode string
	ModuleCode  string
}

// Key returns e's logical identity.
func (e *Enrollment) Key() Key {
	return Key{StudentCode: e.StudentCode, ModuleCode: e.ModuleCode}
}

// Clone returns a copy of e.
func (e *Enrollment) Clone() *Enrollment {
	c := *e
	if e.ValidatedAt != nil {
		t := *e.ValidatedAt
		c.ValidatedAt = &t
	}
	return &c
}
