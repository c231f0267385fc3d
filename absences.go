package registrar

import (
	"context"
	"slices"
	"time"

	"github.com/xraph/registrar/absence"
)

// AddAbsence records a and notifies the student. An absence with the same
// student, module, day and session takes the place of the existing one.
func (e *Engine) AddAbsence(ctx context.Context, a *absence.Absence) {
	stored := a.Clone()

	e.absencesMu.Lock()
	i := slices.IndexFunc(e.absences, func(x *absence.Absence) bool {
		return x.MatchesExactly(stored.StudentCode, stored.ModuleCode, stored.Date, stored.Session)
	})
	if i >= 0 {
		e.absences[i] = stored
	} else {
		e.absences = append(e.absences, stored)
	}
	e.saveAbsencesLocked(ctx)
	e.absencesMu.Unlock()

	name, _ := e.moduleName(ctx, stored.ModuleCode)
	e.hub.AbsenceRecorded(ctx, stored.StudentCode, stored.ModuleCode, name, string(stored.Session), stored.Date)
}

// UpdateAbsence replaces every absence of a's student in a's module on
// a's day by a, whatever their session, inserting it if none existed.
func (e *Engine) UpdateAbsence(ctx context.Context, a *absence.Absence) {
	stored := a.Clone()

	e.absencesMu.Lock()
	defer e.absencesMu.Unlock()
	removeWhere(&e.absences, func(x *absence.Absence) bool {
		return x.Matches(stored.StudentCode, stored.ModuleCode, stored.Date)
	})
	e.absences = append(e.absences, stored)
	e.saveAbsencesLocked(ctx)
}

// DeleteAbsence removes the absences of studentCode in moduleCode on
// date's day for the given session. It returns ErrAbsenceNotFound if none
// match all four.
func (e *Engine) DeleteAbsence(ctx context.Context, studentCode, moduleCode string, date time.Time, session absence.Session) error {
	e.absencesMu.Lock()
	defer e.absencesMu.Unlock()

	n := removeWhere(&e.absences, func(x *absence.Absence) bool {
		return x.MatchesExactly(studentCode, moduleCode, date, session)
	})
	if n == 0 {
		return ErrAbsenceNotFound
	}
	e.saveAbsencesLocked(ctx)
	return nil
}
