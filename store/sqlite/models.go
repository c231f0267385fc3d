package sqlite

import (
	"encoding/json"
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
	Code            string    `grove:"code,pk"`
	PasswordHash    string    `grove:"password_hash"`
	FirstName       string    `grove:"first_name,notnull"`
	LastName        string    `grove:"last_name,notnull"`
	Email           string    `grove:"email"`
	Phone           string    `grove:"phone"`
	Role            string    `grove:"role,notnull"`
	Profile         string    `grove:"profile"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

// profile is the role-specific block of a user, stored as one JSON column.
type profile struct {
	Student   *user.StudentInfo   `json:"student,omitempty"`
	Professor *user.ProfessorInfo `json:"professor,omitempty"`
	Admin     *user.AdminInfo     `json:"admin,omitempty"`
}

func userToModel(u *user.User) (userModel, error) {
	p, err := json.Marshal(profile{Student: u.Student, Professor: u.Professor, Admin: u.Admin})
	if err != nil {
		return userModel{}, fmt.Errorf("marshal user profile: %w", err)
	}
	return userModel{
		Code:         u.Code,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         string(u.Role),
		Profile:      string(p),
		CreatedAt:    u.CreatedAt,
	}, nil
}

func userFromModel(m *userModel) (*user.User, error) {
	var p profile
	if m.Profile != "" {
		if err := json.Unmarshal([]byte(m.Profile), &p); err != nil {
			return nil, fmt.Errorf("unmarshal user profile: %w", err)
		}
	}
	return &user.User{
		Code:         m.Code,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		Phone:        m.Phone,
		Role:         user.Role(m.Role),
		Student:      p.Student,
		Professor:    p.Professor,
		Admin:        p.Admin,
		CreatedAt:    m.CreatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Module model
// ──────────────────────────────────────────────────

type moduleModel struct {
	grove.BaseModel `grove:"table:registrar_modules"`
	Code            string  `grove:"code,pk"`
	Name            string  `grove:"name,notnull"`
	Credits         int     `grove:"credits,notnull"`
	Coefficient     float64 `grove:"coefficient,notnull"`
	Semester        int     `grove:"semester,notnull"`
	ProfessorCode   string  `grove:"professor_code"`
	Description     string  `grove:"description"`
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

// gradeModel is keyed by its position in the collection: the collection
// does not forbid duplicate (student, module, type) rows.
type gradeModel struct {
	grove.BaseModel `grove:"table:registrar_grades"`
	Seq             int       `grove:"seq,pk"`
	StudentCode     string    `grove:"student_code,notnull"`
	ModuleCode      string    `grove:"module_code,notnull"`
	Type            string    `grove:"type,notnull"`
	Value           float64   `grove:"value,notnull"`
	RecordedAt      time.Time `grove:"recorded_at,notnull"`
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
	Seq             int       `grove:"seq,pk"`
	StudentCode     string    `grove:"student_code,notnull"`
	ModuleCode      string    `grove:"module_code,notnull"`
	Date            time.Time `grove:"date,notnull"`
	Session         string    `grove:"session,notnull"`
	Justified       bool      `grove:"justified,notnull"`
	Reason          string    `grove:"reason"`
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
	StudentCode     string     `grove:"student_code,pk"`
	ModuleCode      string     `grove:"module_code,pk"`
	Validated       bool       `grove:"validated,notnull"`
	ValidatedBy     string     `grove:"validated_by"`
	EnrolledAt      time.Time  `grove:"enrolled_at,notnull"`
	ValidatedAt     *time.Time `grove:"validated_at"`
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
	ID              string    `grove:"id,pk"`
	Recipient       string    `grove:"recipient,notnull"`
	Sender          string    `grove:"sender,notnull"`
	Type            string    `grove:"type,notnull"`
	Title           string    `grove:"title,notnull"`
	Message         string    `grove:"message,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	Read            bool      `grove:"read,notnull"`
	Priority        string    `grove:"priority,notnull"`
	RelatedID       string    `grove:"related_id"`
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
