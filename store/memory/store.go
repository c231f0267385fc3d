// Package memory provides an in-memory implementation of the registrar
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/notification"
	"github.com/xraph/registrar/store"
	"github.com/xraph/registrar/user"
)

// Compile-time interface checks.
var (
	_ user.Store         = (*Store)(nil)
	_ module.Store       = (*Store)(nil)
	_ grade.Store        = (*Store)(nil)
	_ absence.Store      = (*Store)(nil)
	_ enrollment.Store   = (*Store)(nil)
	_ notification.Store = (*Store)(nil)
	_ store.Store        = (*Store)(nil)
)

// Collection names used by SaveCount.
const (
	Users         = "users"
	Modules       = "modules"
	Grades        = "grades"
	Absences      = "absences"
	Enrollments   = "enrollments"
	Notifications = "notifications"
)

// Store is a thread-safe in-memory store for all registrar collections.
// Saved values are deep-copied so callers can keep mutating their own.
type Store struct {
	mu sync.RWMutex

	users         []*user.User
	modules       []*module.Module
	grades        []*grade.Grade
	absences      []*absence.Absence
	enrollments   []*enrollment.Enrollment
	notifications map[string][]*notification.Notification

	saves    map[string]int
	writeErr error
	closed   bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		notifications: make(map[string][]*notification.Notification),
		saves:         make(map[string]int),
	}
}

// FailWrites makes every subsequent Save return err. Pass nil to restore
// normal behavior.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// SaveCount returns how many successful saves the named collection has
// received.
func (s *Store) SaveCount(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves[collection]
}

// HasData reports whether any collection has been saved.
func (s *Store) HasData(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.saves) > 0, nil
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports ErrClosed after Close.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// begin checks the write preconditions. Must hold mu.
func (s *Store) begin(collection string) error {
	if s.closed {
		return store.ErrClosed
	}
	if s.writeErr != nil {
		return s.writeErr
	}
	s.saves[collection]++
	return nil
}

// ──────────────────────────────────────────────────
// Collections
// ──────────────────────────────────────────────────

func (s *Store) LoadUsers(_ context.Context) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.users), nil
}

func (s *Store) SaveUsers(_ context.Context, users []*user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Users); err != nil {
		return err
	}
	s.users = cloneAll(users)
	return nil
}

func (s *Store) LoadModules(_ context.Context) ([]*module.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.modules), nil
}

func (s *Store) SaveModules(_ context.Context, modules []*module.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Modules); err != nil {
		return err
	}
	s.modules = cloneAll(modules)
	return nil
}

func (s *Store) LoadGrades(_ context.Context) ([]*grade.Grade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.grades), nil
}

func (s *Store) SaveGrades(_ context.Context, grades []*grade.Grade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Grades); err != nil {
		return err
	}
	s.grades = cloneAll(grades)
	return nil
}

func (s *Store) LoadAbsences(_ context.Context) ([]*absence.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.absences), nil
}

func (s *Store) SaveAbsences(_ context.Context, absences []*absence.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Absences); err != nil {
		return err
	}
	s.absences = cloneAll(absences)
	return nil
}

func (s *Store) LoadEnrollments(_ context.Context) ([]*enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.enrollments), nil
}

func (s *Store) SaveEnrollments(_ context.Context, enrollments []*enrollment.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Enrollments); err != nil {
		return err
	}
	s.enrollments = cloneAll(enrollments)
	return nil
}

func (s *Store) LoadNotifications(_ context.Context) (map[string][]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]*notification.Notification, len(s.notifications))
	for recipient, list := range s.notifications {
		out[recipient] = cloneAll(list)
	}
	return out, nil
}

func (s *Store) SaveNotifications(_ context.Context, inboxes map[string][]*notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(Notifications); err != nil {
		return err
	}
	s.notifications = make(map[string][]*notification.Notification, len(inboxes))
	for recipient, list := range inboxes {
		s.notifications[recipient] = cloneAll(list)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Copy helpers
// ──────────────────────────────────────────────────

type cloner[T any] interface {
	Clone() T
}

func cloneAll[T cloner[T]](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
