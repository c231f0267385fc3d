// Package user defines the User entity for the three institutional roles
// (student, professor, academic administrator) and its store interface.
package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is the closed set of user kinds.
type Role string

const (
	// RoleStudent is an enrolled student.
	RoleStudent Role = "student"

	// RoleProfessor is a teaching staff member who can own modules.
	RoleProfessor Role = "professor"

	// RoleAdmin is an academic administrator who validates enrollments.
	RoleAdmin Role = "admin"
)

// User is an account of any role. Exactly one of Student, Professor or
// Admin is set, matching Role.
type User struct {
	Code         string         `json:"code" validate:"required"`
	PasswordHash string         `json:"password_hash,omitempty"`
	FirstName    string         `json:"first_name" validate:"required"`
	LastName     string         `json:"last_name" validate:"required"`
	Email        string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string         `json:"phone,omitempty"`
	Role         Role           `json:"role" validate:"required,oneof=student professor admin"`
	Student      *StudentInfo   `json:"student,omitempty"`
	Professor    *ProfessorInfo `json:"professor,omitempty"`
	Admin        *AdminInfo     `json:"admin,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// StudentInfo holds student-only attributes.
type StudentInfo struct {
	Year       int    `json:"year" validate:"gte=1,lte=8"`
	Speciality string `json:"speciality"`
	Group      string `json:"group,omitempty"`
}

// ProfessorInfo holds professor-only attributes. Modules lists the codes
// of the modules the professor currently teaches.
type ProfessorInfo struct {
	Department string   `json:"department"`
	Title      string   `json:"title,omitempty"`
	Modules    []string `json:"modules,omitempty"`
}

// AdminInfo holds administrator-only attributes.
type AdminInfo struct {
	Function string `json:"function,omitempty"`
}

// NewStudent builds a student account.
func NewStudent(code, firstName, lastName string, info StudentInfo) *User {
	return &User{Code: code, FirstName: firstName, LastName: lastName, Role: RoleStudent, Student: &info}
}

// NewProfessor builds a professor account.
func NewProfessor(code, firstName, lastName string, info ProfessorInfo) *User {
	return &User{Code: code, FirstName: firstName, LastName: lastName, Role: RoleProfessor, Professor: &info}
}

// NewAdmin builds an administrator account.
func NewAdmin(code, firstName, lastName string, info AdminInfo) *User {
	return &User{Code: code, FirstName: firstName, LastName: lastName, Role: RoleAdmin, Admin: &info}
}

// IsStudent reports whether u is a student.
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// IsProfessor reports whether u is a professor.
func (u *User) IsProfessor() bool { return u.Role == RoleProfessor }

// IsAdmin reports whether u is an administrator.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// DisplayName returns "First Last".
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SetPassword replaces the credential hash with a bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// TeachesModule reports whether a professor's taught list contains code.
func (u *User) TeachesModule(code string) bool {
	if u.Professor == nil {
		return false
	}
	for _, m := range u.Professor.Modules {
		if m == code {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	if u.Student != nil {
		s := *u.Student
		c.Student = &s
	}
	if u.Professor != nil {
		p := *u.Professor
		if u.Professor.Modules != nil {
			p.Modules = make([]string, len(u.Professor.Modules))
			copy(p.Modules, u.Professor.Modules)
		}
		c.Professor = &p
	}
	if u.Admin != nil {
		a := *u.Admin
		c.Admin = &a
	}
	return &c
}
