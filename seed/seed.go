// Package seed provides the initial collections the engine loads when no
// durable data exists yet.
package seed

import (
	"fmt"
	"time"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/user"
)

// DemoPassword is the password of every demo account.
const DemoPassword = "demo1234"

// Dataset is a complete set of collections.
type Dataset struct {
	Users       []*user.User
	Modules     []*module.Module
	Grades      []*grade.Grade
	Absences    []*absence.Absence
	Enrollments []*enrollment.Enrollment
}

// Provider builds a dataset. now is the engine clock at seeding time.
type Provider func(now time.Time) (*Dataset, error)

// Empty provides no data at all.
func Empty(time.Time) (*Dataset, error) { return &Dataset{}, nil }

// Demo provides a small faculty: one administrator, two professors, four
// students, four modules (one unassigned) and a few grades, absences and
// enrollments.
func Demo(now time.Time) (*Dataset, error) {
	// One hash shared by every account keeps seeding fast.
	var hashed user.User
	if err := hashed.SetPassword(DemoPassword); err != nil {
		return nil, fmt.Errorf("seed: hash demo password: %w", err)
	}
	withPassword := func(u *user.User, email string) *user.User {
		u.PasswordHash = hashed.PasswordHash
		u.Email = email
		u.CreatedAt = now
		return u
	}

	users := []*user.User{
		withPassword(user.NewAdmin("A001", "Karim", "Haddad", user.AdminInfo{Function: "Responsable scolarité"}),
			"k.haddad@univ.example"),
		withPassword(user.NewProfessor("P001", "Nadia", "Benali", user.ProfessorInfo{
			Department: "Informatique", Title: "Maître de conférences", Modules: []string{"INF101", "INF102"},
		}), "n.benali@univ.example"),
		withPassword(user.NewProfessor("P002", "Yacine", "Mansouri", user.ProfessorInfo{
			Department: "Mathématiques", Title: "Professeur", Modules: []string{"MAT101"},
		}), "y.mansouri@univ.example"),
		withPassword(user.NewStudent("E001", "Lina", "Cherif", user.StudentInfo{Year: 1, Speciality: "Informatique", Group: "G1"}),
			"l.cherif@etu.univ.example"),
		withPassword(user.NewStudent("E002", "Omar", "Saidi", user.StudentInfo{Year: 1, Speciality: "Informatique", Group: "G1"}),
			"o.saidi@etu.univ.example"),
		withPassword(user.NewStudent("E003", "Sarah", "Amrani", user.StudentInfo{Year: 1, Speciality: "Informatique", Group: "G2"}),
			"s.amrani@etu.univ.example"),
		withPassword(user.NewStudent("E004", "Mehdi", "Boudiaf", user.StudentInfo{Year: 2, Speciality: "Mathématiques", Group: "G1"}),
			"m.boudiaf@etu.univ.example"),
	}

	modules := []*module.Module{
		{Code: "INF101", Name: "Algorithmique", Credits: 6, Coefficient: 3, Semester: 1, ProfessorCode: "P001",
			Description: "Structures de contrôle, complexité, tris."},
		{Code: "INF102", Name: "Bases de données", Credits: 5, Coefficient: 2, Semester: 1, ProfessorCode: "P001",
			Description: "Modèle relationnel et SQL."},
		{Code: "MAT101", Name: "Analyse", Credits: 6, Coefficient: 3, Semester: 1, ProfessorCode: "P002",
			Description: "Suites, limites, continuité."},
		{Code: "ANG101", Name: "Anglais", Credits: 2, Coefficient: 1, Semester: 1,
			Description: "Anglais scientifique."},
	}

	enrolled := now.AddDate(0, -2, 0)
	validatedAt := enrolled.AddDate(0, 0, 7)
	enroll := func(student, mod string, validated bool) *enrollment.Enrollment {
		e := &enrollment.Enrollment{StudentCode: student, ModuleCode: mod, EnrolledAt: enrolled}
		if validated {
			at := validatedAt
			e.Validated = true
			e.ValidatedBy = "A001"
			e.ValidatedAt = &at
		}
		return e
	}
	enrollments := []*enrollment.Enrollment{
		enroll("E001", "INF101", true),
		enroll("E001", "INF102", true),
		enroll("E001", "MAT101", true),
		enroll("E002", "INF101", true),
		enroll("E002", "MAT101", false),
		enroll("E003", "INF101", true),
		enroll("E003", "INF102", false),
		enroll("E004", "MAT101", true),
	}

	recorded := now.AddDate(0, 0, -14)
	g := func(student, mod string, typ grade.Type, value float64) *grade.Grade {
		return &grade.Grade{StudentCode: student, ModuleCode: mod, Type: typ, Value: value, RecordedAt: recorded}
	}
	grades := []*grade.Grade{
		g("E001", "INF101", grade.TypeContinuous, 15),
		g("E001", "INF101", grade.TypeExam, 13.5),
		g("E001", "MAT101", grade.TypeExam, 11),
		g("E002", "INF101", grade.TypeContinuous, 9),
		g("E002", "INF101", grade.TypeExam, 10.5),
		g("E003", "INF101", grade.TypeExam, 16),
		g("E004", "MAT101", grade.TypeContinuous, 12),
		g("E004", "MAT101", grade.TypeExam, 14),
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -10)
	absences := []*absence.Absence{
		{StudentCode: "E001", ModuleCode: "INF101", Date: day, Session: absence.SessionTD},
		{StudentCode: "E002", ModuleCode: "MAT101", Date: day.AddDate(0, 0, 2), Session: absence.SessionCourse,
			Justified: true, Reason: "Certificat médical"},
		{StudentCode: "E003", ModuleCode: "INF102", Date: day.AddDate(0, 0, 3), Session: absence.SessionTP},
	}

	return &Dataset{
		Users:       users,
		Modules:     modules,
		Grades:      grades,
		Absences:    absences,
		Enrollments: enrollments,
	}, nil
}
