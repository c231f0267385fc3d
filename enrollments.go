package registrar

import (
	"context"
	"log/slog"
	"slices"

	"github.com/xraph/registrar/enrollment"
)

// AddEnrollment registers en. An enrollment that arrives already validated
// notifies the student. It returns ErrDuplicateEnrollment if the student is
// already enrolled in the module.
func (e *Engine) AddEnrollment(ctx context.Context, en *enrollment.Enrollment) error {
	stored := en.Clone()
	if stored.EnrolledAt.IsZero() {
		stored.EnrolledAt = e.now()
	}
	if stored.Validated && stored.ValidatedAt == nil {
		at := e.now()
		stored.ValidatedAt = &at
	}

	e.enrollMu.Lock()
	if e.findEnrollmentLocked(stored.Key()) >= 0 {
		e.enrollMu.Unlock()
		return ErrDuplicateEnrollment
	}
	e.enrollments = append(e.enrollments, stored)
	e.saveEnrollmentsLocked(ctx)
	e.enrollMu.Unlock()

	if stored.Validated {
		e.notifyValidated(ctx, stored)
	}
	return nil
}

// ValidateEnrollment marks the enrollment of studentCode in moduleCode as
// validated by adminCode and notifies the student. Validating an already
// validated enrollment changes nothing. It returns ErrEnrollmentNotFound if
// there is no such enrollment.
func (e *Engine) ValidateEnrollment(ctx context.Context, studentCode, moduleCode, adminCode string) error {
	key := enrollment.Key{StudentCode: studentCode, ModuleCode: moduleCode}

	e.enrollMu.Lock()
	i := e.findEnrollmentLocked(key)
	if i < 0 {
		e.enrollMu.Unlock()
		return ErrEnrollmentNotFound
	}
	current := e.enrollments[i]
	if current.Validated {
		e.enrollMu.Unlock()
		return nil
	}
	at := e.now()
	current.Validated = true
	current.ValidatedBy = adminCode
	current.ValidatedAt = &at
	e.saveEnrollmentsLocked(ctx)
	validated := current.Clone()
	e.enrollMu.Unlock()

	e.logger.Info("enrollment validated",
		slog.String("student", studentCode),
		slog.String("module", moduleCode),
		slog.String("admin", adminCode),
	)
	e.notifyValidated(ctx, validated)
	return nil
}

// DeleteEnrollment removes the enrollment of studentCode in moduleCode. It
// returns ErrEnrollmentNotFound if there is no such enrollment.
func (e *Engine) DeleteEnrollment(ctx context.Context, studentCode, moduleCode string) error {
	key := enrollment.Key{StudentCode: studentCode, ModuleCode: moduleCode}

	e.enrollMu.Lock()
	defer e.enrollMu.Unlock()
	i := e.findEnrollmentLocked(key)
	if i < 0 {
		return ErrEnrollmentNotFound
	}
	e.enrollments = slices.Delete(e.enrollments, i, i+1)
	e.saveEnrollmentsLocked(ctx)
	return nil
}

func (e *Engine) findEnrollmentLocked(key enrollment.Key) int {
	return slices.IndexFunc(e.enrollments, func(x *enrollment.Enrollment) bool { return x.Key() == key })
}

func (e *Engine) notifyValidated(ctx context.Context, en *enrollment.Enrollment) {
	name, _ := e.moduleName(ctx, en.ModuleCode)
	e.hub.EnrollmentValidated(ctx, en.StudentCode, en.ModuleCode, name, en.ValidatedBy)
}
