// Package grade defines the Grade entity and its store interface.
package grade

import "time"

// Type distinguishes exam marks from continuous assessment.
type Type string

const (
	// TypeExam is the final exam mark.
	TypeExam Type = "EXAM"

	// TypeContinuous is the continuous assessment mark.
	TypeContinuous Type = "CONTINUOUS"
)

// Grade is a mark out of 20. The range is a validation concern; the
// registrar stores whatever value it is given.
type Grade struct {
	StudentCode string    `json:"student_code" validate:"required"`
	ModuleCode  string    `json:"module_code" validate:"required"`
	Type        Type      `json:"type" validate:"required,oneof=EXAM CONTINUOUS"`
	Value       float64   `json:"value" validate:"gte=0,lte=20"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Key is the logical identity of a grade.
type Key struct {
	StudentCode string
	ModuleCode  string
	Type        Type
}

// Key returns g's logical identity.
func (g *Grade) Key() Key {
	return Key{StudentCode: g.StudentCode, ModuleCode: g.ModuleCode, Type: g.Type}
}

// Clone returns a copy of g.
func (g *Grade) Clone() *Grade {
	c := *g
	return &c
}
