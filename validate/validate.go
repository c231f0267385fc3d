// Package validate checks entities before they reach the engine. The engine
// itself stores whatever it is given; callers run a Validator first and
// decide what to do with errors and warnings.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/user"
)

// PassingGrade is the lowest grade that does not raise a warning.
const PassingGrade = 10.0

// Result is the outcome of validating one entity. Errors make the entity
// invalid; warnings are advisory.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validator validates registrar entities using struct tags plus a few
// cross-field rules. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator.
func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks entity, which must be a pointer to one of the registrar
// entity types.
func (val *Validator) Validate(entity any) Result {
	r := Result{Valid: true}
	switch e := entity.(type) {
	case *user.User:
		val.structErrors(&r, e)
		checkUser(&r, e)
	case *module.Module:
		val.structErrors(&r, e)
		if !e.IsAssigned() {
			r.addWarning("module %s has no professor", e.Code)
		}
	case *grade.Grade:
		val.structErrors(&r, e)
		if e.Value >= 0 && e.Value < PassingGrade {
			r.addWarning("grade %.2f is below %.0f", e.Value, PassingGrade)
		}
	case *absence.Absence:
		val.structErrors(&r, e)
		if e.Justified && strings.TrimSpace(e.Reason) == "" {
			r.addWarning("justified absence has no reason")
		}
	case *enrollment.Enrollment:
		val.structErrors(&r, e)
	default:
		r.addError("unsupported entity %T", entity)
	}
	return r
}

func (val *Validator) structErrors(r *Result, entity any) {
	err := val.v.Struct(entity)
	if err == nil {
		return
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		r.addError("%v", err)
		return
	}
	for _, fe := range ve {
		if fe.Param() != "" {
			r.addError("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
			continue
		}
		r.addError("%s: failed %s", fe.Namespace(), fe.Tag())
	}
}

// checkUser enforces that exactly the block matching Role is set.
func checkUser(r *Result, u *user.User) {
	blocks := 0
	for _, set := range []bool{u.Student != nil, u.Professor != nil, u.Admin != nil} {
		if set {
			blocks++
		}
	}
	if blocks > 1 {
		r.addError("user %s has more than one role block", u.Code)
	}
	switch u.Role {
	case user.RoleStudent:
		if u.Student == nil {
			r.addError("student %s has no student block", u.Code)
		}
	case user.RoleProfessor:
		if u.Professor == nil {
			r.addError("professor %s has no professor block", u.Code)
		}
	case user.RoleAdmin:
		if u.Admin == nil {
			r.addError("admin %s has no admin block", u.Code)
		}
	}
	if u.Email == "" {
		r.addWarning("user %s has no email", u.Code)
	}
}
