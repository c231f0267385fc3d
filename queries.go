package registrar

import (
	"context"
	"strings"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/user"
)

// Aggregate reads are computed from the in-memory collections on every
// call and never cached. Every result is a fresh copy and never nil.

// ──────────────────────────────────────────────────
// Single lookups
// ──────────────────────────────────────────────────

// GetUser returns the user with the given code. It reports false when no
// such user exists.
func (e *Engine) GetUser(_ context.Context, code string) (*user.User, bool) {
	if u, ok := e.users.Get(code); ok {
		return u.Clone(), true
	}

	e.usersMu.RLock()
	defer e.usersMu.RUnlock()
	for _, u := range e.userList {
		if u.Code == code {
			e.users.Put(code, u.Clone(), e.config.CacheTTL)
			return u.Clone(), true
		}
	}
	return nil, false
}

// GetModule returns the module with the given code. It reports false when
// no such module exists.
func (e *Engine) GetModule(_ context.Context, code string) (*module.Module, bool) {
	if m, ok := e.mods.Get(code); ok {
		return m.Clone(), true
	}

	e.modulesMu.RLock()
	defer e.modulesMu.RUnlock()
	for _, m := range e.modules {
		if m.Code == code {
			e.mods.Put(code, m.Clone(), e.config.CacheTTL)
			return m.Clone(), true
		}
	}
	return nil, false
}

// ──────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────

// Users returns every user.
func (e *Engine) Users(_ context.Context) []*user.User {
	e.usersMu.RLock()
	defer e.usersMu.RUnlock()
	return cloneAll(e.userList)
}

// Students returns every user with the student role.
func (e *Engine) Students(_ context.Context) []*user.User {
	return e.usersWithRole(user.RoleStudent)
}

// Professors returns every user with the professor role.
func (e *Engine) Professors(_ context.Context) []*user.User {
	return e.usersWithRole(user.RoleProfessor)
}

// Admins returns every user with the admin role.
func (e *Engine) Admins(_ context.Context) []*user.User {
	return e.usersWithRole(user.RoleAdmin)
}

func (e *Engine) usersWithRole(role user.Role) []*user.User {
	e.usersMu.RLock()
	defer e.usersMu.RUnlock()
	return filterClone(e.userList, func(u *user.User) bool { return u.Role == role })
}

// SearchProfessors returns the professors whose code, first name, last
// name or department contains query, ignoring case. An empty query
// matches every professor.
func (e *Engine) SearchProfessors(_ context.Context, query string) []*user.User {
	q := strings.ToLower(strings.TrimSpace(query))

	e.usersMu.RLock()
	defer e.usersMu.RUnlock()
	return filterClone(e.userList, func(u *user.User) bool {
		if !u.IsProfessor() {
			return false
		}
		fields := []string{u.Code, u.FirstName, u.LastName}
		if u.Professor != nil {
			fields = append(fields, u.Professor.Department)
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	})
}

// ProfessorStudents returns the students enrolled in at least one module
// taught by professorCode, each once, in user order.
func (e *Engine) ProfessorStudents(_ context.Context, professorCode string) []*user.User {
	e.usersMu.RLock()
	defer e.usersMu.RUnlock()
	e.modulesMu.RLock()
	defer e.modulesMu.RUnlock()
	e.enrollMu.RLock()
	defer e.enrollMu.RUnlock()

	taught := make(map[string]bool)
	for _, m := range e.modules {
		if m.ProfessorCode == professorCode {
			taught[m.Code] = true
		}
	}
	enrolled := make(map[string]bool)
	for _, en := range e.enrollments {
		if taught[en.ModuleCode] {
			enrolled[en.StudentCode] = true
		}
	}
	return filterClone(e.userList, func(u *user.User) bool {
		return u.IsStudent() && enrolled[u.Code]
	})
}

// ──────────────────────────────────────────────────
// Modules
// ──────────────────────────────────────────────────

// Modules returns every module.
func (e *Engine) Modules(_ context.Context) []*module.Module {
	e.modulesMu.RLock()
	defer e.modulesMu.RUnlock()
	return cloneAll(e.modules)
}

// ProfessorModules returns the modules assigned to professorCode.
func (e *Engine) ProfessorModules(_ context.Context, professorCode string) []*module.Module {
	e.modulesMu.RLock()
	defer e.modulesMu.RUnlock()
	return filterClone(e.modules, func(m *module.Module) bool { return m.ProfessorCode == professorCode })
}

// AvailableModules returns the modules studentCode is not enrolled in.
func (e *Engine) AvailableModules(_ context.Context, studentCode string) []*module.Module {
	e.modulesMu.RLock()
	defer e.modulesMu.RUnlock()
	e.enrollMu.RLock()
	defer e.enrollMu.RUnlock()

	enrolled := make(map[string]bool)
	for _, en := range e.enrollments {
		if en.StudentCode == studentCode {
			enrolled[en.ModuleCode] = true
		}
	}
	return filterClone(e.modules, func(m *module.Module) bool { return !enrolled[m.Code] })
}

// ──────────────────────────────────────────────────
// Grades, absences, enrollments
// ──────────────────────────────────────────────────

// Grades returns every grade.
func (e *Engine) Grades(_ context.Context) []*grade.Grade {
	e.gradesMu.RLock()
	defer e.gradesMu.RUnlock()
	return cloneAll(e.grades)
}

// StudentGrades returns the grades of studentCode.
func (e *Engine) StudentGrades(_ context.Context, studentCode string) []*grade.Grade {
	e.gradesMu.RLock()
	defer e.gradesMu.RUnlock()
	return filterClone(e.grades, func(g *grade.Grade) bool { return g.StudentCode == studentCode })
}

// ModuleGrades returns the grades recorded in moduleCode.
func (e *Engine) ModuleGrades(_ context.Context, moduleCode string) []*grade.Grade {
	e.gradesMu.RLock()
	defer e.gradesMu.RUnlock()
	return filterClone(e.grades, func(g *grade.Grade) bool { return g.ModuleCode == moduleCode })
}

// Absences returns every absence.
func (e *Engine) Absences(_ context.Context) []*absence.Absence {
	e.absencesMu.RLock()
	defer e.absencesMu.RUnlock()
	return cloneAll(e.absences)
}

// StudentAbsences returns the absences of studentCode.
func (e *Engine) StudentAbsences(_ context.Context, studentCode string) []*absence.Absence {
	e.absencesMu.RLock()
	defer e.absencesMu.RUnlock()
	return filterClone(e.absences, func(a *absence.Absence) bool { return a.StudentCode == studentCode })
}

// Enrollments returns every enrollment.
func (e *Engine) Enrollments(_ context.Context) []*enrollment.Enrollment {
	e.enrollMu.RLock()
	defer e.enrollMu.RUnlock()
	return cloneAll(e.enrollments)
}

// StudentEnrollments returns the enrollments of studentCode.
func (e *Engine) StudentEnrollments(_ context.Context, studentCode string) []*enrollment.Enrollment {
	e.enrollMu.RLock()
	defer e.enrollMu.RUnlock()
	return filterClone(e.enrollments, func(en *enrollment.Enrollment) bool { return en.StudentCode == studentCode })
}
