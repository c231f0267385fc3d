// Package plugin defines the change subject of the registrar engine.
// Plugins are told about grade changes and a few lifecycle events so that
// live views (a dashboard, an audit trail) can react without consuming the
// whole notification stream.
//
// Each hook is a separate interface so plugins opt in only to the events
// they care about.
package plugin

import (
	"context"

	"github.com/xraph/registrar/user"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin. Two plugins
	// with the same name are the same subscriber.
	Name() string
}

// ──────────────────────────────────────────────────
// Grade hooks
// ──────────────────────────────────────────────────

// GradeAdded is called after a new grade has been stored.
type GradeAdded interface {
	OnGradeAdded(ctx context.Context, studentCode, moduleCode string, value float64) error
}

// GradeModified is called after a grade has been replaced.
type GradeModified interface {
	OnGradeModified(ctx context.Context, studentCode, moduleCode string, value float64) error
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// UserCreated is called after a user is added.
type UserCreated interface {
	OnUserCreated(ctx context.Context, u *user.User) error
}

// UserDeleted is called after a user and its dependent records are removed.
type UserDeleted interface {
	OnUserDeleted(ctx context.Context, userCode string) error
}

// ModuleDeleted is called after a module and its dependent records are
// removed.
type ModuleDeleted interface {
	OnModuleDeleted(ctx context.Context, moduleCode string) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
