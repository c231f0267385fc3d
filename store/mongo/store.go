// Package mongo provides a MongoDB implementation of the registrar
// composite store using the grove mongodriver. MongoDB offers no
// multi-document transaction here: a save deletes the collection and
// inserts the new documents, so a failure between the two steps leaves
// the collection empty until the next successful save.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/notification"
	"github.com/xraph/registrar/store"
	"github.com/xraph/registrar/user"
)

// Collection name constants.
const (
	colUsers         = "registrar_users"
	colModules       = "registrar_modules"
	colGrades        = "registrar_grades"
	colAbsences      = "registrar_absences"
	colEnrollments   = "registrar_enrollments"
	colNotifications = "registrar_notifications"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite registrar store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all registrar collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("registrar/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrationIndexes returns the index definitions for all registrar
// collections. Users, modules and notifications are keyed by _id.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		colModules: {
			{Keys: bson.D{{Key: "professor_code", Value: 1}}},
		},
		colGrades: {
			{
				Keys:    bson.D{{Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "student_code", Value: 1}}},
			{Keys: bson.D{{Key: "module_code", Value: 1}}},
		},
		colAbsences: {
			{
				Keys:    bson.D{{Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "student_code", Value: 1}}},
		},
		colEnrollments: {
			{
				Keys:    bson.D{{Key: "student_code", Value: 1}, {Key: "module_code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
}

// HasData reports whether any collection holds a document.
func (s *Store) HasData(ctx context.Context) (bool, error) {
	models := []any{
		(*userModel)(nil),
		(*moduleModel)(nil),
		(*gradeModel)(nil),
		(*absenceModel)(nil),
		(*enrollmentModel)(nil),
		(*notificationModel)(nil),
	}
	for _, m := range models {
		count, err := s.mdb.NewFind(m).Filter(bson.M{}).Count(ctx)
		if err != nil {
			return false, fmt.Errorf("registrar/mongo: has data: %w", err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// replace deletes every document of zero's collection and inserts docs.
func (s *Store) replace(ctx context.Context, what string, zero, docs any, n int) error {
	_, err := s.mdb.NewDelete(zero).
		Many().
		Filter(bson.M{}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("registrar/mongo: clear %s: %w", what, err)
	}
	if n > 0 {
		if _, err := s.mdb.NewInsert(docs).Exec(ctx); err != nil {
			return fmt.Errorf("registrar/mongo: insert %s: %w", what, err)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────

func (s *Store) LoadUsers(ctx context.Context) ([]*user.User, error) {
	var models []userModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/mongo: load users: %w", err)
	}
	result := make([]*user.User, len(models))
	for i := range models {
		result[i] = userFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) SaveUsers(ctx context.Context, users []*user.User) error {
	models := make([]userModel, len(users))
	for i, u := range users {
		models[i] = userToModel(u)
	}
	return s.replace(ctx, "users", (*userModel)(nil), &models, len(models))
}

// ──────────────────────────────────────────────────
// Modules
// ──────────────────────────────────────────────────

func (s *Store) LoadModules(ctx context.Context) ([]*module.Module, error) {
	var models []moduleModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/mongo: load modules: %w", err)
	}
	result := make([]*module.Module, len(models))
	for i := range models {
		result[i] = moduleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) SaveModules(ctx context.Context, modules []*module.Module) error {
	models := make([]moduleModel, len(modules))
	for i, m := range modules {
		models[i] = moduleToModel(m)
	}
	return s.replace(ctx, "modules", (*moduleModel)(nil), &models, len(models))
}

// ──────────────────────────────────────────────────
// Grades
// ──────────────────────────────────────────────────

func (s *Store) LoadGrades(ctx context.Context) ([]*grade.Grade, error) {
	var models []gradeModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "seq", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/mongo: load grades: %w", err)
	}
	result := make([]*grade.Grade, len(models))
	for i := range models {
		result[i] = gradeFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) SaveGrades(ctx context.Context, grades []*grade.Grade) error {
	models := make([]gradeModel, len(grades))
	for i, g := range grades {
		models[i] = gradeToModel(i, g)
	}
	return s.replace(ctx, "grades", (*gradeModel)(nil), &models, len(models))
}

// ──────────────────────────────────────────────────
// Absences
// ──────────────────────────────────────────────────

func (s *Store) LoadAbsences(ctx context.Context) ([]*absence.Absence, error) {
	var models []absenceModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "seq", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/mongo: load absences: %w", err)
	}
	result := make([]*absence.Absence, len(models))
	for i := range models {
		result[i] = absenceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) SaveAbsences(ctx context.Context, absences []*absence.Absence) error {
	models := make([]absenceModel, len(absences))
	for i, a := range absences {
		models[i] = absenceToModel(i, a)
	}
	return s.replace(ctx, "absences", (*absenceModel)(nil), &models, len(models))
}

// ──────────────────────────────────────────────────
// Enrollments
// ──────────────────────────────────────────────────

func (s *Store) LoadEnrollments(ctx context.Context) ([]*enrollment.Enrollment, error) {
	var models []enrollmentModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "enrolled_at", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/mongo: load enrollments: %w", err)
	}
	result := make([]*enrollment.Enrollment, len(models))
	for i := range models {
		result[i] = enrollmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) SaveEnrollments(ctx context.Context, enrollments []*enrollment.Enrollment) error {
	models := make([]enrollmentModel, len(enrollments))
	for i, e := range enrollments {
		models[i] = enrollmentToModel(e)
	}
	return s.replace(ctx, "enrollments", (*enrollmentModel)(nil), &models, len(models))
}

// ──────────────────────────────────────────────────
// Notifications
// ──────────────────────────────────────────────────

func (s *Store) LoadNotifications(ctx context.Context) (map[string][]*notification.Notification, error) {
	var models []notificationModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/mongo: load notifications: %w", err)
	}
	result := make(map[string][]*notification.Notification)
	for i := range models {
		n, err := notificationFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("registrar/mongo: load notifications: %w", err)
		}
		result[n.Recipient] = append(result[n.Recipient], n)
	}
	return result, nil
}

func (s *Store) SaveNotifications(ctx context.Context, inboxes map[string][]*notification.Notification) error {
	var models []notificationModel
	for _, list := range inboxes {
		for _, n := range list {
			models = append(models, notificationToModel(n))
		}
	}
	return s.replace(ctx, "notifications", (*notificationModel)(nil), &models, len(models))
}
