// Package store defines the aggregate persistence interface. Each entity
// package (user, module, grade, absence, enrollment, notification) defines
// its own store interface. The composite Store composes them all.
// Backends: File, Memory, SQLite, Postgres and MongoDB.
package store

import (
	"context"
	"errors"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/notification"
	"github.com/xraph/registrar/user"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("registrar/store: closed")

// Store is the aggregate persistence interface.
// Every collection is loaded and saved wholesale: SaveX replaces the
// persisted collection with items. A single backend implements all of them.
type Store interface {
	user.Store
	module.Store
	grade.Store
	absence.Store
	enrollment.Store
	notification.Store

	// HasData reports whether any collection has ever been saved. The
	// engine seeds demo data when it returns false.
	HasData(ctx context.Context) (bool, error)

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
