package notification

import (
	"context"
	"fmt"
	"time"
)

// GradeNotice describes a grade event for the grade senders. Names fall
// back to codes when the caller could not resolve them.
type GradeNotice struct {
	StudentCode   string
	ModuleCode    string
	ModuleName    string
	ProfessorCode string
	ProfessorName string
	Kind          string
	Value         float64
}

func (g GradeNotice) sender() string {
	if g.ProfessorCode != "" {
		return g.ProfessorCode
	}
	return SenderSystem
}

// GradeAdded tells a student a new grade was recorded. Priority HIGH.
func (h *Hub) GradeAdded(ctx context.Context, g GradeNotice) *Notification {
	return h.Post(ctx, &Notification{
		Recipient: g.StudentCode,
		Sender:    g.sender(),
		Type:      TypeGradeAdded,
		Title:     "Nouvelle note disponible",
		Message: fmt.Sprintf("%s a saisi votre note %s en %s : %.2f/20.",
			g.ProfessorName, g.Kind, g.ModuleName, g.Value),
		Priority:  PriorityHigh,
		RelatedID: g.ModuleCode,
	})
}

// GradeModified tells a student one of their grades changed. Priority HIGH.
func (h *Hub) GradeModified(ctx context.Context, g GradeNotice) *Notification {
	return h.Post(ctx, &Notification{
		Recipient: g.StudentCode,
		Sender:    g.sender(),
		Type:      TypeGradeModified,
		Title:     "Note modifiée",
		Message: fmt.Sprintf("Votre note %s en %s a été modifiée : %.2f/20.",
			g.Kind, g.ModuleName, g.Value),
		Priority:  PriorityHigh,
		RelatedID: g.ModuleCode,
	})
}

// AbsenceRecorded tells a student an absence was recorded. Priority NORMAL.
func (h *Hub) AbsenceRecorded(ctx context.Context, studentCode, moduleCode, moduleName, session string, date time.Time) *Notification {
	return h.Post(ctx, &Notification{
		Recipient: studentCode,
		Sender:    SenderSystem,
		Type:      TypeAbsenceRecorded,
		Title:     "Absence enregistrée",
		Message: fmt.Sprintf("Une absence (%s) a été enregistrée en %s le %s.",
			session, moduleName, date.Format("02/01/2006")),
		Priority:  PriorityNormal,
		RelatedID: moduleCode,
	})
}

// ModuleAssigned tells a professor they teach a module. Priority NORMAL.
func (h *Hub) ModuleAssigned(ctx context.Context, professorCode, moduleCode, moduleName string) *Notification {
	return h.Post(ctx, &Notification{
		Recipient: professorCode,
		Sender:    SenderSystem,
		Type:      TypeModuleAssigned,
		Title:     "Module assigné",
		Message:   fmt.Sprintf("Le module %s (%s) vous a été assigné.", moduleName, moduleCode),
		Priority:  PriorityNormal,
		RelatedID: moduleCode,
	})
}

// AccountCreated welcomes a new user and hands over their temporary
// password. Without a generated one the message carries
// PasswordPlaceholder instead. Priority HIGH.
func (h *Hub) AccountCreated(ctx context.Context, userCode, displayName, temporaryPassword string) *Notification {
	if temporaryPassword == "" {
		temporaryPassword = PasswordPlaceholder
	}
	msg := fmt.Sprintf("Bienvenue %s ! Votre compte %s a été créé. Mot de passe temporaire : %s",
		displayName, userCode, temporaryPassword)
	return h.Post(ctx, &Notification{
		Recipient: userCode,
		Sender:    SenderSystem,
		Type:      TypeAccountCreated,
		Title:     "Bienvenue",
		Message:   msg,
		Priority:  PriorityHigh,
	})
}

// AccountModified tells a user their account details changed. Priority
// NORMAL.
func (h *Hub) AccountModified(ctx context.Context, userCode string) *Notification {
	return h.Post(ctx, &Notification{
		Recipient: userCode,
		Sender:    SenderSystem,
		Type:      TypeAccountModified,
		Title:     "Compte modifié",
		Message:   "Les informations de votre compte ont été mises à jour.",
		Priority:  PriorityNormal,
	})
}

// EnrollmentValidated tells a student an administrator validated their
// enrollment. Priority NORMAL.
func (h *Hub) EnrollmentValidated(ctx context.Context, studentCode, moduleCode, moduleName, adminCode string) *Notification {
	sender := adminCode
	if sender == "" {
		sender = SenderSystem
	}
	return h.Post(ctx, &Notification{
		Recipient: studentCode,
		Sender:    sender,
		Type:      TypeEnrollmentValidated,
		Title:     "Inscription validée",
		Message:   fmt.Sprintf("Votre inscription au module %s a été validée.", moduleName),
		Priority:  PriorityNormal,
		RelatedID: moduleCode,
	})
}

// Announcement broadcasts a system announcement to recipients.
func (h *Hub) Announcement(ctx context.Context, recipients []string, title, message string, priority Priority) []*Notification {
	return h.SendBulk(ctx, recipients, TypeAnnouncement, title, message, priority)
}
