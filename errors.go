package registrar

import "errors"

var (
	// ErrStoreRequired is returned by New when no durable store is given.
	ErrStoreRequired = errors.New("registrar: store is required")

	// ErrDuplicateUser is returned when a user code is already taken.
	ErrDuplicateUser = errors.New("registrar: user already exists")

	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("registrar: user not found")

	// ErrDuplicateModule is returned when a module code is already taken.
	ErrDuplicateModule = errors.New("registrar: module already exists")

	// ErrModuleNotFound is returned when a module cannot be found.
	ErrModuleNotFound = errors.New("registrar: module not found")

	// ErrGradeNotFound is returned when no grade matches the given key.
	ErrGradeNotFound = errors.New("registrar: grade not found")

	// ErrAbsenceNotFound is returned when no absence matches all four key
	// parts (student, module, day, session).
	ErrAbsenceNotFound = errors.New("registrar: absence not found")

	// ErrDuplicateEnrollment is returned when a student is already enrolled
	// in the module.
	ErrDuplicateEnrollment = errors.New("registrar: enrollment already exists")

	// ErrEnrollmentNotFound is returned when an enrollment cannot be found.
	ErrEnrollmentNotFound = errors.New("registrar: enrollment not found")
)
