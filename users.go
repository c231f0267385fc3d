package registrar

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"slices"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/user"
)

// AddUser registers u. When u carries no password hash, a temporary
// password is generated, hashed, and sent to the user in the welcome
// notification. It returns ErrDuplicateUser if the code is taken.
func (e *Engine) AddUser(ctx context.Context, u *user.User) error {
	stored := u.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = e.now()
	}

	var temporary string
	if stored.PasswordHash == "" {
		temporary = rand.Text()
		if err := stored.SetPassword(temporary); err != nil {
			return fmt.Errorf("registrar: hash temporary password: %w", err)
		}
	}

	e.usersMu.Lock()
	e.modulesMu.RLock()
	if e.findUserLocked(stored.Code) >= 0 {
		e.modulesMu.RUnlock()
		e.usersMu.Unlock()
		return ErrDuplicateUser
	}
	if stored.Professor != nil {
		stored.Professor.Modules = e.taughtByLocked(stored.Code)
	}
	e.userList = append(e.userList, stored)
	e.saveUsersLocked(ctx)
	e.users.Invalidate(stored.Code)
	e.modulesMu.RUnlock()
	e.usersMu.Unlock()

	e.logger.Info("user added",
		slog.String("user", stored.Code),
		slog.String("role", string(stored.Role)),
	)
	e.plugins.EmitUserCreated(ctx, stored)
	e.hub.AccountCreated(ctx, stored.Code, stored.DisplayName(), temporary)
	return nil
}

// UpdateUser replaces the user with u's code by u. The creation time is
// kept, an empty password hash keeps the current one, and a professor's
// taught-module list stays derived from the modules. A user who stops
// being a professor is unassigned from their modules.
func (e *Engine) UpdateUser(ctx context.Context, u *user.User) error {
	e.usersMu.Lock()
	e.modulesMu.Lock()

	i := e.findUserLocked(u.Code)
	if i < 0 {
		e.modulesMu.Unlock()
		e.usersMu.Unlock()
		return ErrUserNotFound
	}
	current := e.userList[i]

	updated := u.Clone()
	updated.CreatedAt = current.CreatedAt
	if updated.PasswordHash == "" {
		updated.PasswordHash = current.PasswordHash
	}
	if updated.Professor != nil {
		updated.Professor.Modules = e.taughtByLocked(updated.Code)
	} else if current.IsProfessor() {
		e.unassignProfessorLocked(ctx, current.Code)
	}
	e.userList[i] = updated
	e.saveUsersLocked(ctx)

	e.users.Invalidate(updated.Code)
	e.queries.InvalidatePrefix(userQueryPrefix(updated.Code))
	e.modulesMu.Unlock()
	e.usersMu.Unlock()

	e.hub.AccountModified(ctx, updated.Code)
	return nil
}

// DeleteUser removes the user with the given code. A student's grades,
// absences and enrollments go with them; a professor's modules stay but
// lose their professor. It returns ErrUserNotFound if there is no such user.
func (e *Engine) DeleteUser(ctx context.Context, code string) error {
	e.lockAll()
	i := e.findUserLocked(code)
	if i < 0 {
		e.unlockAll()
		return ErrUserNotFound
	}
	removed := e.userList[i]
	e.userList = slices.Delete(e.userList, i, i+1)
	e.saveUsersLocked(ctx)

	switch {
	case removed.IsStudent():
		e.cascadeLocked(ctx,
			func(studentCode, _ string) bool { return studentCode == code },
		)
	case removed.IsProfessor():
		e.unassignProfessorLocked(ctx, code)
	}

	e.users.Invalidate(code)
	e.queries.InvalidatePrefix(userQueryPrefix(code))
	e.unlockAll()

	e.logger.Info("user deleted",
		slog.String("user", code),
		slog.String("role", string(removed.Role)),
	)
	e.plugins.EmitUserDeleted(ctx, code)
	return nil
}

// ──────────────────────────────────────────────────
// Locked helpers
// ──────────────────────────────────────────────────

func (e *Engine) findUserLocked(code string) int {
	return slices.IndexFunc(e.userList, func(u *user.User) bool { return u.Code == code })
}

// taughtByLocked returns the codes of the modules assigned to
// professorCode. Must hold modulesMu.
func (e *Engine) taughtByLocked(professorCode string) []string {
	var codes []string
	for _, m := range e.modules {
		if m.ProfessorCode == professorCode {
			codes = append(codes, m.Code)
		}
	}
	return codes
}

// unassignProfessorLocked clears professorCode from every module it
// teaches. Must hold modulesMu for writing.
func (e *Engine) unassignProfessorLocked(ctx context.Context, professorCode string) {
	changed := false
	for _, m := range e.modules {
		if m.ProfessorCode == professorCode {
			m.ProfessorCode = ""
			e.mods.Invalidate(m.Code)
			changed = true
		}
	}
	if changed {
		e.saveModulesLocked(ctx)
	}
}

// cascadeLocked removes every grade, absence and enrollment matching
// match(studentCode, moduleCode) and persists the collections that
// changed. Must hold the grade, absence and enrollment write locks.
func (e *Engine) cascadeLocked(ctx context.Context, match func(studentCode, moduleCode string) bool) {
	if removeWhere(&e.grades, func(g *grade.Grade) bool { return match(g.StudentCode, g.ModuleCode) }) > 0 {
		e.saveGradesLocked(ctx)
	}
	if removeWhere(&e.absences, func(a *absence.Absence) bool { return match(a.StudentCode, a.ModuleCode) }) > 0 {
		e.saveAbsencesLocked(ctx)
	}
	if removeWhere(&e.enrollments, func(en *enrollment.Enrollment) bool { return match(en.StudentCode, en.ModuleCode) }) > 0 {
		e.saveEnrollmentsLocked(ctx)
	}
}
