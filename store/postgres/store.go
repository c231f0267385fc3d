// Package postgres provides a PostgreSQL implementation of the registrar
// composite store using grove ORM with Go-based migrations. Each save
// replaces one table inside a single transaction.
package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/notification"
	"github.com/xraph/registrar/store"
	"github.com/xraph/registrar/user"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of the composite registrar store.
type Store struct {
	db  *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("registrar/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("registrar/postgres: migration failed: %w", err)
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

// HasData reports whether any table holds a row.
func (s *Store) HasData(ctx context.Context) (bool, error) {
	tables := []any{
		(*userModel)(nil),
		(*moduleModel)(nil),
		(*gradeModel)(nil),
		(*absenceModel)(nil),
		(*enrollmentModel)(nil),
		(*notificationModel)(nil),
	}
	for _, t := range tables {
		count, err := s.pgdb.NewSelect(t).Count(ctx)
		if err != nil {
			return false, fmt.Errorf("registrar/postgres: has data: %w", err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// replace deletes every row of zero's table and inserts rows, atomically.
func (s *Store) replace(ctx context.Context, what string, zero, rows any, n int) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("registrar/postgres: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewDelete(zero).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("registrar/postgres: clear %s: %w", what, err)
	}
	if n > 0 {
		if _, err := tx.NewInsert(rows).Exec(ctx); err != nil {
			return fmt.Errorf("registrar/postgres: insert %s: %w", what, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("registrar/postgres: commit %s: %w", what, err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────

func (s *Store) LoadUsers(ctx context.Context) ([]*user.User, error) {
	var models []userModel
	if err := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC, code ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/postgres: load users: %w", err)
	}
	result := make([]*user.User, 0, len(models))
	for i := range models {
		u, err := userFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("registrar/postgres: load users: %w", err)
		}
		result = append(result, u)
	}
	return result, nil
}

func (s *Store) SaveUsers(ctx context.Context, users []*user.User) error {
	models := make([]userModel, 0, len(users))
	for _, u := range users {
		m, err := userToModel(u)
		if err != nil {
			return fmt.Errorf("registrar/postgres: save users: %w", err)
		}
		models = append(models, m)
	}
	return s.replace(ctx, "users", (*userModel)(nil), &models, len(models))
}

// ──────────────────────────────────────────────────
// Modules
// ──────────────────────────────────────────────────

func (s *Store) LoadModules(ctx context.Context) ([]*module.Module, error) {
	var models []moduleModel
	if err := s.pgdb.NewSelect(&models).OrderExpr("code ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/postgres: load modules: %w", err)
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
	if err := s.pgdb.NewSelect(&models).OrderExpr("seq ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/postgres: load grades: %w", err)
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
	if err := s.pgdb.NewSelect(&models).OrderExpr("seq ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/postgres: load absences: %w", err)
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
	if err := s.pgdb.NewSelect(&models).OrderExpr("enrolled_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/postgres: load enrollments: %w", err)
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
	if err := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("registrar/postgres: load notifications: %w", err)
	}
	result := make(map[string][]*notification.Notification)
	for i := range models {
		n, err := notificationFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("registrar/postgres: load notifications: %w", err)
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
