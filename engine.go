package registrar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/registrar/absence"
	"github.com/xraph/registrar/cache"
	"github.com/xraph/registrar/enrollment"
	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/notification"
	"github.com/xraph/registrar/plugin"
	"github.com/xraph/registrar/seed"
	"github.com/xraph/registrar/store"
	"github.com/xraph/registrar/user"
)

// Cache namespaces.
const (
	spaceUser   = "user"
	spaceModule = "module"
	spaceQuery  = "query"
)

// Engine is the single authoritative holder of the five collections. Every
// mutation follows the same path: check preconditions, mutate the
// in-memory collection, persist that collection, invalidate the cache,
// then fire plugin hooks and notifications.
//
// Collections are guarded by one RWMutex each. Operations that touch
// several collections lock them in the order users, modules, grades,
// absences, enrollments.
type Engine struct {
	store   store.Store
	cache   *cache.Cache
	users   *cache.Space[*user.User]
	mods    *cache.Space[*module.Module]
	queries *cache.Space[*Transcript]
	hub     *notification.Hub
	plugins *plugin.Registry
	pending []plugin.Plugin
	logger  *slog.Logger
	config  Config
	seed    seed.Provider
	now     func() time.Time

	usersMu     sync.RWMutex
	userList    []*user.User
	modulesMu   sync.RWMutex
	modules     []*module.Module
	gradesMu    sync.RWMutex
	grades      []*grade.Grade
	absencesMu  sync.RWMutex
	absences    []*absence.Absence
	enrollMu    sync.RWMutex
	enrollments []*enrollment.Enrollment
}

// New creates a registrar engine with the given options. The engine starts
// empty; call Open to load persisted data.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
		seed:   seed.Demo,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, ErrStoreRequired
	}
	e.config = e.config.withDefaults()

	if e.cache == nil {
		e.cache = cache.New(
			cache.WithMaxEntries(e.config.CacheMaxEntries),
			cache.WithClock(e.now),
		)
	}
	e.users = cache.NewSpace[*user.User](e.cache, spaceUser)
	e.mods = cache.NewSpace[*module.Module](e.cache, spaceModule)
	e.queries = cache.NewSpace[*Transcript](e.cache, spaceQuery)

	if e.hub == nil {
		e.hub = notification.NewHub(e.store,
			notification.WithLogger(e.logger),
			notification.WithClock(e.now),
			notification.WithRecentWindow(e.config.RecentWindow),
		)
	}

	e.plugins = plugin.NewRegistry(e.logger)
	for _, p := range e.pending {
		e.plugins.Register(p)
	}
	e.pending = nil
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry, the engine's change subject.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Notifications returns the notification hub.
func (e *Engine) Notifications() *notification.Hub { return e.hub }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

// CacheStats returns the lookup cache statistics.
func (e *Engine) CacheStats() cache.Stats { return e.cache.Stats() }

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Open loads every collection and the notification inboxes from the store.
// When the store holds no data, or loading a collection fails, the engine
// seeds the five collections from the seed provider and saves everything.
// The notification inboxes are kept as loaded.
func (e *Engine) Open(ctx context.Context) error {
	loadErr := e.load(ctx)
	if loadErr != nil {
		e.logger.Error("load collections failed, starting empty",
			slog.String("error", loadErr.Error()),
		)
		e.reset()
	}

	hasData, err := e.store.HasData(ctx)
	if err != nil {
		e.logger.Error("inspect store failed", slog.String("error", err.Error()))
		hasData = false
	}

	// Seeding ends in SaveAll, which flushes the inboxes.
	if err := e.hub.Load(ctx); err != nil {
		e.logger.Error("load notifications failed, starting empty",
			slog.String("error", err.Error()),
		)
	}

	if loadErr != nil || !hasData {
		if err := e.seedFrom(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) load(ctx context.Context) error {
	users, err := e.store.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	modules, err := e.store.LoadModules(ctx)
	if err != nil {
		return fmt.Errorf("load modules: %w", err)
	}
	grades, err := e.store.LoadGrades(ctx)
	if err != nil {
		return fmt.Errorf("load grades: %w", err)
	}
	absences, err := e.store.LoadAbsences(ctx)
	if err != nil {
		return fmt.Errorf("load absences: %w", err)
	}
	enrollments, err := e.store.LoadEnrollments(ctx)
	if err != nil {
		return fmt.Errorf("load enrollments: %w", err)
	}
	e.replaceAll(users, modules, grades, absences, enrollments)
	return nil
}

func (e *Engine) reset() {
	e.replaceAll(nil, nil, nil, nil, nil)
}

func (e *Engine) replaceAll(users []*user.User, modules []*module.Module, grades []*grade.Grade,
	absences []*absence.Absence, enrollments []*enrollment.Enrollment,
) {
	e.lockAll()
	e.userList = cloneAll(users)
	e.modules = cloneAll(modules)
	e.grades = cloneAll(grades)
	e.absences = cloneAll(absences)
	e.enrollments = cloneAll(enrollments)
	e.unlockAll()

	e.cache.Clear()
}

func (e *Engine) seedFrom(ctx context.Context) error {
	ds, err := e.seed(e.now())
	if err != nil {
		return fmt.Errorf("registrar: seed: %w", err)
	}
	e.replaceAll(ds.Users, ds.Modules, ds.Grades, ds.Absences, ds.Enrollments)
	e.syncTaughtLists()

	e.logger.Info("seeded collections",
		slog.Int("users", len(ds.Users)),
		slog.Int("modules", len(ds.Modules)),
		slog.Int("grades", len(ds.Grades)),
		slog.Int("absences", len(ds.Absences)),
		slog.Int("enrollments", len(ds.Enrollments)),
	)
	if err := e.SaveAll(ctx); err != nil {
		e.logger.Error("save seeded collections failed", slog.String("error", err.Error()))
	}
	return nil
}

// syncTaughtLists rebuilds every professor's taught-module list from the
// module collection.
func (e *Engine) syncTaughtLists() {
	e.usersMu.Lock()
	defer e.usersMu.Unlock()
	e.modulesMu.RLock()
	defer e.modulesMu.RUnlock()

	taught := make(map[string][]string)
	for _, m := range e.modules {
		if m.ProfessorCode != "" {
			taught[m.ProfessorCode] = append(taught[m.ProfessorCode], m.Code)
		}
	}
	for _, u := range e.userList {
		if u.Professor != nil {
			u.Professor.Modules = taught[u.Code]
		}
	}
}

// SaveAll persists all five collections and the notification inboxes
// unconditionally.
func (e *Engine) SaveAll(ctx context.Context) error {
	var errs []error

	e.usersMu.RLock()
	if err := e.store.SaveUsers(ctx, cloneAll(e.userList)); err != nil {
		errs = append(errs, fmt.Errorf("users: %w", err))
	}
	e.usersMu.RUnlock()

	e.modulesMu.RLock()
	if err := e.store.SaveModules(ctx, cloneAll(e.modules)); err != nil {
		errs = append(errs, fmt.Errorf("modules: %w", err))
	}
	e.modulesMu.RUnlock()

	e.gradesMu.RLock()
	if err := e.store.SaveGrades(ctx, cloneAll(e.grades)); err != nil {
		errs = append(errs, fmt.Errorf("grades: %w", err))
	}
	e.gradesMu.RUnlock()

	e.absencesMu.RLock()
	if err := e.store.SaveAbsences(ctx, cloneAll(e.absences)); err != nil {
		errs = append(errs, fmt.Errorf("absences: %w", err))
	}
	e.absencesMu.RUnlock()

	e.enrollMu.RLock()
	if err := e.store.SaveEnrollments(ctx, cloneAll(e.enrollments)); err != nil {
		errs = append(errs, fmt.Errorf("enrollments: %w", err))
	}
	e.enrollMu.RUnlock()

	if err := e.hub.Flush(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("registrar: save all: %w", err)
	}
	return nil
}

// Housekeep drops expired cache entries and notifications older than the
// retention period. It is safe to call periodically.
func (e *Engine) Housekeep(ctx context.Context) (swept, pruned int) {
	swept = e.cache.SweepExpired()
	pruned = e.hub.PruneOlderThan(ctx, e.config.NotificationRetention)
	e.logger.Debug("housekeeping done",
		slog.Int("cache_swept", swept),
		slog.Int("notifications_pruned", pruned),
	)
	return swept, pruned
}

// Cleanup is the shutdown hook: it saves everything, clears the cache,
// prunes old notifications and tells plugins the engine is stopping.
func (e *Engine) Cleanup(ctx context.Context) error {
	err := e.SaveAll(ctx)
	e.cache.Clear()
	e.hub.PruneOlderThan(ctx, e.config.NotificationRetention)
	e.plugins.EmitShutdown(ctx)
	return err
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// persist logs a failed collection save. The in-memory mutation stands.
func (e *Engine) persist(collection string, err error) {
	if err == nil {
		return
	}
	e.logger.Error("persist collection failed",
		slog.String("collection", collection),
		slog.String("error", err.Error()),
	)
}

// lockAll takes every collection write lock in the fixed order.
func (e *Engine) lockAll() {
	e.usersMu.Lock()
	e.modulesMu.Lock()
	e.gradesMu.Lock()
	e.absencesMu.Lock()
	e.enrollMu.Lock()
}

// unlockAll releases every collection write lock in reverse order.
func (e *Engine) unlockAll() {
	e.enrollMu.Unlock()
	e.absencesMu.Unlock()
	e.gradesMu.Unlock()
	e.modulesMu.Unlock()
	e.usersMu.Unlock()
}

// Save helpers. Each must run with the collection's write lock held.

func (e *Engine) saveUsersLocked(ctx context.Context) {
	e.persist("users", e.store.SaveUsers(ctx, cloneAll(e.userList)))
}

func (e *Engine) saveModulesLocked(ctx context.Context) {
	e.persist("modules", e.store.SaveModules(ctx, cloneAll(e.modules)))
}

func (e *Engine) saveGradesLocked(ctx context.Context) {
	e.persist("grades", e.store.SaveGrades(ctx, cloneAll(e.grades)))
}

func (e *Engine) saveAbsencesLocked(ctx context.Context) {
	e.persist("absences", e.store.SaveAbsences(ctx, cloneAll(e.absences)))
}

func (e *Engine) saveEnrollmentsLocked(ctx context.Context) {
	e.persist("enrollments", e.store.SaveEnrollments(ctx, cloneAll(e.enrollments)))
}

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

func filterClone[T cloner[T]](items []T, keep func(T) bool) []T {
	out := make([]T, 0)
	for _, item := range items {
		if keep(item) {
			out = append(out, item.Clone())
		}
	}
	return out
}

// removeWhere deletes matching items in place and returns how many went.
func removeWhere[T any](items *[]T, match func(T) bool) int {
	kept := (*items)[:0]
	removed := 0
	for _, item := range *items {
		if match(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	clear((*items)[len(kept):])
	*items = kept
	return removed
}
