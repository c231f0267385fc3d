package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/id"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/notification"
	"github.com/xraph/registrar/user"
)

// ──────────────────────────────────────────────────
// User model
// ──────────────────────────────────────────────────

type userModel struct {
	grove.BaseModel `grove:"table:registrar_users"`
	Code            string              `grove:"code,pk"       bson:"_id"`
	PasswordHash    string              `grove:"password_hash" bson:"password_hash"`
	FirstName       string              `grove:"first_name"    bson:"first_name"`
	LastName        string              `grove:"last_name"     bson:"last_name"`
	Email           string              `grove:"email"         bson:"email"`
	Phone           string              `grove:"phone"         bson:"phone"`
	Role            string              `grove:"role"          bson:"role"`
	Student         *user.StudentInfo   `grove:"student"       bson:"student,omitempty"`
	Professor       *user.ProfessorInfo `grove:"professor"     bson:"professor,omitempty"`
	Admin           *user.AdminInfo     `grove:"admin"         bson:"admin,omitempty"`
	CreatedAt       time.Time           `grove:"created_at"    bson:"created_at"`
}

func userToModel(u *user.User) userModel {
	c := u.Clone()
	return userModel{
		Code:         c.Code,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Email:        c.Email,
		Phone:        c.Phone,
		Role:         string(c.Role),
		Student:      c.Student,
		Professor:    c.Professor,
		Admin:        c.Admin,
		CreatedAt:    c.CreatedAt,
	}
}

func userFromModel(m *userModel) *user.User {
	return &user.User{
		Code:         m.Code,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		Phone:        m.Phone,
		Role:         user.Role(m.Role),
		Student:      m.Student,
		Professor:    m.Professor,
		Admin:        m.Admin,
		CreatedAt:    m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Module model
// ──────────────────────────────────────────────────

type moduleModel struct {
	grove.BaseModel `grove:"table:registrar_modules"`
	Code            string  `grove:"code,pk"        bson:"_id"`
	Name            string  `grove:"name"           bson:"name"`
	Credits         int     `grove:"credits"        bson:"credits"`
	Coefficient     float64 `grove:"coefficient"    bson:"coefficient"`
	Semester        int     `grove:"semester"       bson:"semester"`
	ProfessorCode   string  `grove:"professor_code" bson:"professor_code,omitempty"`
	Description     string  `grove:"description"    bson:"description,omitempty"`
}

func moduleToModel(m *module.Module) moduleModel {
	return moduleModel{
		Code:          m.Code,
		Name:          m.Name,
		Credits:       m.Credits,
		Coefficient:   m.Coefficient,
		Semester:      m.Semester,
		ProfessorCode: m.ProfessorCode,
		Description:   m.Description,
	}
}

func moduleFromModel(m *moduleModel) *module.Module {
	return &module.Module{
		Code:          m.Code,
		Name:          m.Name,
		Credits:       m.Credits,
		Coefficient:   m.Coefficient,
		Semester:      m.Semester,
		ProfessorCode: m.ProfessorCode,
		Description:   m.Description,
	}
}

// ──────────────────────────────────────────────────
// Grade model
// ──────────────────────────────────────────────────

type gradeModel struct {
	grove.BaseModel `grove:"table:registrar_grades"`
	Seq             int       `grove:"seq,pk"       bson:"seq"`
	StudentCode     string    `grove:"student_code" bson:"student_code"`
	ModuleCode      string    `grove:"module_code"  bson:"module_code"`
	Type            string    `grove:"type"         bson:"type"`
	Value           float64   `grove:"value"        bson:"value"`
	RecordedAt      time.Time `grove:"recorded_at"  bson:"recorded_at"`
}

func gradeToModel(seq int, g *grade.Grade) gradeModel {
	return gradeModel{
		Seq:         seq,
		StudentCode: g.StudentCode,
		ModuleCode:  g.ModuleCode,
		Type:        string(g.Type),
		Value:       g.Value,
		RecordedAt:  g.RecordedAt,
	}
}

func gradeFromModel(m *gradeModel) *grade.Grade {
	return &grade.Grade{
		StudentCode: m.StudentCode,
		ModuleCode:  m.ModuleCode,
		Type:        grade.Type(m.Type),
		Value:       m.Value,
		RecordedAt:  m.RecordedAt,
	}
}

// ──────────────────────────────────────────────────
// Absence model
// ──────────────────────────────────────────────────

type absenceModel struct {
	grove.BaseModel `grove:"table:registrar_absences"`
	Seq             int       `grove:"seq,pk"       bson:"seq"`
	StudentCode     string    `grove:"student_code" bson:"student_code"`
	ModuleCode      string    `grove:"module_code"  bson:"module_code"`
	Date            time.Time `grove:"date"         bson:"date"`
	Session         string    `grove:"session"      bson:"session"`
	Justified       bool      `grove:"justified"    bson:"justified"`
	Reason          string    `grove:"reason"       bson:"reason,omitempty"`
}

func absenceToModel(seq int, a *absence.Absence) absenceModel {
	return absenceModel{
		Seq:         seq,
		StudentCode: a.StudentCode,
		ModuleCode:  a.ModuleCode,
		Date:        a.Date,
		Session:     string(a.Session),
		Justified:   a.Justified,
		Reason:      a.Reason,
	}
}

func absenceFromModel(m *absenceModel) *absence.Absence {
	return &absence.Absence{
		StudentCode: m.StudentCode,
		ModuleCode:  m.ModuleCode,
		Date:        m.Date,
		Session:     absence.Session(m.Session),
		Justified:   m.Justified,
		Reason:      m.Reason,
	}
}

// ──────────────────────────────────────────────────
// Enrollment model
// ──────────────────────────────────────────────────

type enrollmentModel struct {
	grove.BaseModel `grove:"table:registrar_enrollments"`
	StudentCode     string     `grove:"student_code,pk" bson:"student_code"`
	ModuleCode      string     `grove:"module_code,pk"  bson:"module_code"`
	Validated       bool       `grove:"validated"       bson:"validated"`
	ValidatedBy     string     `grove:"validated_by"    bson:"validated_by,omitempty"`
	EnrolledAt      time.Time  `grove:"enrolled_at"     bson:"enrolled_at"`
	ValidatedAt     *time.Time `grove:"validated_at"    bson:"validated_at,omitempty"`
}

func enrollmentToModel(e *enrollment.Enrollment) enrollmentModel {
	return enrollmentModel{
		StudentCode: e.StudentCode,
		ModuleCode:  e.ModuleCode,
		Validated:   e.Validated,
		ValidatedBy: e.ValidatedBy,
		EnrolledAt:  e.EnrolledAt,
		ValidatedAt: e.ValidatedAt,
	}
}

func enrollmentFromModel(m *enrollmentModel) *enrollment.Enrollment {
	return &enrollment.Enrollment{
		StudentCode: m.StudentCode,
		ModuleCode:  m.ModuleCode,
		Validated:   m.Validated,
		ValidatedBy: m.ValidatedBy,
		EnrolledAt:  m.EnrolledAt,
		ValidatedAt: m.ValidatedAt,
	}
}

// ──────────────────────────────────────────────────
// Notification model
// ──────────────────────────────────────────────────

type notificationModel struct {
	grove.BaseModel `grove:"table:registrar_notifications"`
	ID              string    `grove:"id,pk"      bson:"_id"`
	Recipient       string    `grove:"recipient"  bson:"recipient"`
	Sender          string    `grove:"sender"     bson:"sender"`
	Type            string    `grove:"type"       bson:"type"`
	Title           string    `grove:"title"      bson:"title"`
	Message         string    `grove:"message"    bson:"message"`
	CreatedAt       time.Time `grove:"created_at" bson:"created_at"`
	Read            bool      `grove:"read"       bson:"read"`
	Priority        string    `grove:"priority"   bson:"priority"`
	RelatedID       string    `grove:"related_id" bson:"related_id,omitempty"`
}

func notificationToModel(n *notification.Notification) notificationModel {
	return notificationModel{
		ID:        n.ID.String(),
		Recipient: n.Recipient,
		Sender:    n.Sender,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
		Read:      n.Read,
		Priority:  string(n.Priority),
		RelatedID: n.RelatedID,
	}
}

func notificationFromModel(m *notificationModel) (*notification.Notification, error) {
	nid, err := id.ParseNotificationID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse notification id %q: %w", m.ID, err)
	}
	return &notification.Notification{
		ID:        nid,
		Recipient: m.Recipient,
		Sender:    m.Sender,
		Type:      notification.Type(m.Type),
		Title:     m.Title,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
		Read:      m.Read,
		Priority:  notification.Priority(m.Priority),
		RelatedID: m.RelatedID,
	}, nil
}
