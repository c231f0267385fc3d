// Package module defines the course Module entity and its store interface.
package module

// Module is a course unit. ProfessorCode is empty when the module is
// unassigned.
type Module struct {
	Code          string  `json:"code" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	Credits       int     `json:"credits" validate:"gte=0,lte=60"`
	Coefficient   float64 `json:"coefficient" validate:"gt=0"`
	Semester      int     `json:"semester" validate:"gte=1,lte=12"`
	ProfessorCode string  `json:"professor_code,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// IsAssigned reports whether a professor owns the module.
func (m *Module) IsAssigned() bool { return m.ProfessorCode != "" }

// Merge copies every mutable field of src into m, keeping m's identity.
func (m *Module) Merge(src *Module) {
	m.Name = src.Name
	m.Credits = src.Credits
	m.Coefficient = src.Coefficient
	m.Semester = src.Semester
	m.ProfessorCode = src.ProfessorCode
	m.Description = src.Description
}

// Clone returns a copy of m.
func (m *Module) Clone() *Module {
	c := *m
	return &c
}
