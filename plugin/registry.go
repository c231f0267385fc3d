package plugin

import (
	"context"
	"log/slog"
	"sync"

	"github.com/xraph/registrar/user"
)

// Named entry types pair a hook with the plugin name for logging.

type gradeAddedEntry struct {
	name string
	hook GradeAdded
}
type gradeModifiedEntry struct {
	name string
	hook GradeModified
}
type userCreatedEntry struct {
	name string
	hook UserCreated
}
type userDeletedEntry struct {
	name string
	hook UserDeleted
}
type moduleDeletedEntry struct {
	name string
	hook ModuleDeleted
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// hooks is an immutable snapshot of the type-cached hook lists.
type hooks struct {
	gradeAdded    []gradeAddedEntry
	gradeModified []gradeModifiedEntry
	userCreated   []userCreatedEntry
	userDeleted   []userDeletedEntry
	moduleDeleted []moduleDeletedEntry
	shutdown      []shutdownEntry
}

// Registry holds registered plugins and dispatches events to them.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
//
// Emit calls run hooks synchronously on the caller's goroutine and never
// hold the registry lock while a hook runs, so a hook may register or
// unregister plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	cache   hooks
	logger  *slog.Logger
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable hook
// caches. Plugins are notified in registration order. Registering a name
// that is already present has no effect.
func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return
		}
	}
	r.plugins = append(r.plugins, p)
	r.rebuild()
}

// Unregister removes the plugin named name. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.plugins {
		if existing.Name() == name {
			r.plugins = append(r.plugins[:i:i], r.plugins[i+1:]...)
			r.rebuild()
			return
		}
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// rebuild recomputes the hook caches. Must hold mu.
func (r *Registry) rebuild() {
	var c hooks
	for _, p := range r.plugins {
		name := p.Name()
		if h, ok := p.(GradeAdded); ok {
			c.gradeAdded = append(c.gradeAdded, gradeAddedEntry{name, h})
		}
		if h, ok := p.(GradeModified); ok {
			c.gradeModified = append(c.gradeModified, gradeModifiedEntry{name, h})
		}
		if h, ok := p.(UserCreated); ok {
			c.userCreated = append(c.userCreated, userCreatedEntry{name, h})
		}
		if h, ok := p.(UserDeleted); ok {
			c.userDeleted = append(c.userDeleted, userDeletedEntry{name, h})
		}
		if h, ok := p.(ModuleDeleted); ok {
			c.moduleDeleted = append(c.moduleDeleted, moduleDeletedEntry{name, h})
		}
		if h, ok := p.(Shutdown); ok {
			c.shutdown = append(c.shutdown, shutdownEntry{name, h})
		}
	}
	r.cache = c
}

func (r *Registry) snapshot() hooks {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache
}

// ──────────────────────────────────────────────────
// Grade event emitters
// ──────────────────────────────────────────────────

// EmitGradeAdded notifies all plugins that implement GradeAdded.
func (r *Registry) EmitGradeAdded(ctx context.Context, studentCode, moduleCode string, value float64) {
	for _, e := range r.snapshot().gradeAdded {
		r.call("OnGradeAdded", e.name, func() error {
			return e.hook.OnGradeAdded(ctx, studentCode, moduleCode, value)
		})
	}
}

// EmitGradeModified notifies all plugins that implement GradeModified.
func (r *Registry) EmitGradeModified(ctx context.Context, studentCode, moduleCode string, value float64) {
	for _, e := range r.snapshot().gradeModified {
		r.call("OnGradeModified", e.name, func() error {
			return e.hook.OnGradeModified(ctx, studentCode, moduleCode, value)
		})
	}
}

// ──────────────────────────────────────────────────
// Lifecycle event emitters
// ──────────────────────────────────────────────────

// EmitUserCreated notifies all plugins that implement UserCreated.
func (r *Registry) EmitUserCreated(ctx context.Context, u *user.User) {
	for _, e := range r.snapshot().userCreated {
		r.call("OnUserCreated", e.name, func() error {
			return e.hook.OnUserCreated(ctx, u.Clone())
		})
	}
}

// EmitUserDeleted notifies all plugins that implement UserDeleted.
func (r *Registry) EmitUserDeleted(ctx context.Context, userCode string) {
	for _, e := range r.snapshot().userDeleted {
		r.call("OnUserDeleted", e.name, func() error {
			return e.hook.OnUserDeleted(ctx, userCode)
		})
	}
}

// EmitModuleDeleted notifies all plugins that implement ModuleDeleted.
func (r *Registry) EmitModuleDeleted(ctx context.Context, moduleCode string) {
	for _, e := range r.snapshot().moduleDeleted {
		r.call("OnModuleDeleted", e.name, func() error {
			return e.hook.OnModuleDeleted(ctx, moduleCode)
		})
	}
}

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.snapshot().shutdown {
		r.call("OnShutdown", e.name, func() error {
			return e.hook.OnShutdown(ctx)
		})
	}
}

// call runs one hook, turning an error or a panic into a log line.
func (r *Registry) call(hook, pluginName string, fn func() error) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("plugin hook panicked",
				slog.String("hook", hook),
				slog.String("plugin", pluginName),
				slog.Any("panic", v),
			)
		}
	}()
	if err := fn(); err != nil {
		r.logHookError(hook, pluginName, err)
	}
}

// logHookError logs a warning when a hook returns an error. Errors from
// hooks are never propagated to the mutation that emitted the event.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
