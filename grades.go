package registrar

import (
	"context"
	"slices"

	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/notification"
)

// AddGrade records g, replacing any grade with the same student, module
// and type. The value is stored as given; range checks belong to the
// validate package. Plugins see the grade before the student is notified.
func (e *Engine) AddGrade(ctx context.Context, g *grade.Grade) {
	stored := e.stampGrade(g)

	e.gradesMu.Lock()
	e.upsertGradeLocked(stored)
	e.saveGradesLocked(ctx)
	e.queries.InvalidatePrefix(userQueryPrefix(stored.StudentCode))
	e.gradesMu.Unlock()

	e.plugins.EmitGradeAdded(ctx, stored.StudentCode, stored.ModuleCode, stored.Value)
	e.hub.GradeAdded(ctx, e.gradeNotice(ctx, stored))
}

// UpdateGrade replaces the grade with g's student, module and type by g,
// inserting it if none existed.
func (e *Engine) UpdateGrade(ctx context.Context, g *grade.Grade) {
	stored := e.stampGrade(g)

	e.gradesMu.Lock()
	e.upsertGradeLocked(stored)
	e.saveGradesLocked(ctx)
	e.queries.InvalidatePrefix(userQueryPrefix(stored.StudentCode))
	e.gradesMu.Unlock()

	e.plugins.EmitGradeModified(ctx, stored.StudentCode, stored.ModuleCode, stored.Value)
	e.hub.GradeModified(ctx, e.gradeNotice(ctx, stored))
}

// DeleteGrade removes the grade with the given key. It returns
// ErrGradeNotFound if there is none.
func (e *Engine) DeleteGrade(ctx context.Context, key grade.Key) error {
	e.gradesMu.Lock()
	defer e.gradesMu.Unlock()

	if removeWhere(&e.grades, func(x *grade.Grade) bool { return x.Key() == key }) == 0 {
		return ErrGradeNotFound
	}
	e.saveGradesLocked(ctx)
	e.queries.InvalidatePrefix(userQueryPrefix(key.StudentCode))
	return nil
}

// upsertGradeLocked keeps at most one grade per key. Must hold gradesMu
// for writing.
func (e *Engine) upsertGradeLocked(g *grade.Grade) {
	key := g.Key()
	if i := slices.IndexFunc(e.grades, func(x *grade.Grade) bool { return x.Key() == key }); i >= 0 {
		e.grades[i] = g
		return
	}
	e.grades = append(e.grades, g)
}

func (e *Engine) stampGrade(g *grade.Grade) *grade.Grade {
	stored := g.Clone()
	if stored.RecordedAt.IsZero() {
		stored.RecordedAt = e.now()
	}
	return stored
}

// gradeNotice resolves the module and professor names shown to the student.
func (e *Engine) gradeNotice(ctx context.Context, g *grade.Grade) notification.GradeNotice {
	name, professor := e.moduleName(ctx, g.ModuleCode)
	return notification.GradeNotice{
		StudentCode:   g.StudentCode,
		ModuleCode:    g.ModuleCode,
		ModuleName:    name,
		ProfessorCode: professor,
		ProfessorName: e.professorName(ctx, professor),
		Kind:          string(g.Type),
		Value:         g.Value,
	}
}
