// Package file provides a JSON-file implementation of the registrar
// composite store: one document per collection under a data directory.
// Writes go to a temporary file in the same directory which is then
// renamed over the previous document, so a crash never leaves a
// half-written collection behind.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

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

// Document names, relative to the data directory.
const (
	UsersFile         = "users.json"
	ModulesFile       = "modules.json"
	GradesFile        = "grades.json"
	AbsencesFile      = "absences.json"
	EnrollmentsFile   = "enrollments.json"
	NotificationsFile = "notifications.json"
)

var allFiles = []string{
	UsersFile, ModulesFile, GradesFile, AbsencesFile, EnrollmentsFile, NotificationsFile,
}

// Store keeps every collection as an indented JSON document in dir.
type Store struct {
	dir    string
	mu     sync.Mutex
	closed bool
}

// New returns a store rooted at dir. The directory is created by Migrate
// or on first save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// Migrate creates the data directory.
func (s *Store) Migrate(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("registrar/file: create data dir: %w", err)
	}
	return nil
}

// Ping checks that the data directory is reachable.
func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("registrar/file: ping: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("registrar/file: ping: %s is not a directory", s.dir)
	}
	return nil
}

// Close marks the store closed. Files need no teardown.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// HasData reports whether any collection document exists.
func (s *Store) HasData(_ context.Context) (bool, error) {
	for _, name := range allFiles {
		_, err := os.Stat(filepath.Join(s.dir, name))
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("registrar/file: stat %s: %w", name, err)
		}
	}
	return false, nil
}

// ──────────────────────────────────────────────────
// Collections
// ──────────────────────────────────────────────────

func (s *Store) LoadUsers(_ context.Context) ([]*user.User, error) {
	var out []*user.User
	return out, s.read(UsersFile, &out)
}

func (s *Store) SaveUsers(_ context.Context, users []*user.User) error {
	return s.write(UsersFile, orEmpty(users))
}

func (s *Store) LoadModules(_ context.Context) ([]*module.Module, error) {
	var out []*module.Module
	return out, s.read(ModulesFile, &out)
}

func (s *Store) SaveModules(_ context.Context, modules []*module.Module) error {
	return s.write(ModulesFile, orEmpty(modules))
}

func (s *Store) LoadGrades(_ context.Context) ([]*grade.Grade, error) {
	var out []*grade.Grade
	return out, s.read(GradesFile, &out)
}

func (s *Store) SaveGrades(_ context.Context, grades []*grade.Grade) error {
	return s.write(GradesFile, orEmpty(grades))
}

func (s *Store) LoadAbsences(_ context.Context) ([]*absence.Absence, error) {
	var out []*absence.Absence
	return out, s.read(AbsencesFile, &out)
}

func (s *Store) SaveAbsences(_ context.Context, absences []*absence.Absence) error {
	return s.write(AbsencesFile, orEmpty(absences))
}

func (s *Store) LoadEnrollments(_ context.Context) ([]*enrollment.Enrollment, error) {
	var out []*enrollment.Enrollment
	return out, s.read(EnrollmentsFile, &out)
}

func (s *Store) SaveEnrollments(_ context.Context, enrollments []*enrollment.Enrollment) error {
	return s.write(EnrollmentsFile, orEmpty(enrollments))
}

func (s *Store) LoadNotifications(_ context.Context) (map[string][]*notification.Notification, error) {
	out := make(map[string][]*notification.Notification)
	if err := s.read(NotificationsFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SaveNotifications(_ context.Context, inboxes map[string][]*notification.Notification) error {
	if inboxes == nil {
		inboxes = map[string][]*notification.Notification{}
	}
	return s.write(NotificationsFile, inboxes)
}

// ──────────────────────────────────────────────────
// Encoding
// ──────────────────────────────────────────────────

// read decodes the named document into v. A missing document leaves v
// untouched.
func (s *Store) read(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("registrar/file: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("registrar/file: decode %s: %w", name, err)
	}
	return nil
}

// write encodes v and atomically replaces the named document.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("registrar/file: encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("registrar/file: create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("registrar/file: create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("registrar/file: write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("registrar/file: sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("registrar/file: close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("registrar/file: replace %s: %w", name, err)
	}
	return nil
}

// orEmpty keeps an empty collection encoded as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
