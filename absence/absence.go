// Package absence defines the Absence entity and its store interface.
package absence

import "time"

// Session is the kind of class session missed.
type Session string

const (
	// SessionCourse is a lecture.
	SessionCourse Session = "COURSE"

	// SessionTD is a tutorial (travaux dirigés).
	SessionTD Session = "TD"

	// SessionTP is a lab (travaux pratiques).
	SessionTP Session = "TP"
)

// Absence records a student missing one session of a module on a day.
type Absence struct {
	StudentCode string    `json:"student_code" validate:"required"`
	ModuleCode  string    `json:"module_code" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Session     Session   `json:"session" validate:"required,oneof=COURSE TD TP"`
	Justified   bool      `json:"justified"`
	Reason      string    `json:"reason,omitempty"`
}

// SameDay reports whether a and b fall on the same calendar day in a's
// location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Matches reports whether a is the absence of student in module on date,
// regardless of session.
func (a *Absence) Matches(student, module string, date time.Time) bool {
	return a.StudentCode == student && a.ModuleCode == module && SameDay(a.Date, date)
}

// MatchesExactly also requires the session to match.
func (a *Absence) MatchesExactly(student, module string, date time.Time, session Session) bool {
	return a.Matches(student, module, date) && a.Session == session
}

// Clone returns a copy of a.
func (a *Absence) Clone() *Absence {
	c := *a
	return &c
}
