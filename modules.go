package registrar

import (
	"context"
	"log/slog"
	"slices"

	"github.com/xraph/registrar/module"
)

// AddModule registers m. When m already has a professor, the module joins
// their taught list and they are notified. It returns ErrDuplicateModule if
// the code is taken.
func (e *Engine) AddModule(ctx context.Context, m *module.Module) error {
	stored := m.Clone()

	e.usersMu.Lock()
	e.modulesMu.Lock()
	if e.findModuleLocked(stored.Code) >= 0 {
		e.modulesMu.Unlock()
		e.usersMu.Unlock()
		return ErrDuplicateModule
	}
	e.modules = append(e.modules, stored)
	e.saveModulesLocked(ctx)
	e.reassignLocked(ctx, stored.Code, "", stored.ProfessorCode)

	e.mods.Invalidate(stored.Code)
	e.queries.InvalidatePrefix(userQueryRoot)
	e.modulesMu.Unlock()
	e.usersMu.Unlock()

	if stored.IsAssigned() {
		e.hub.ModuleAssigned(ctx, stored.ProfessorCode, stored.Code, stored.Name)
	}
	return nil
}

// UpdateModule merges m's fields into the module with the same code. The
// resulting professor is notified of the assignment whenever one is set,
// even if it did not change. It returns ErrModuleNotFound if there is no
// such module.
func (e *Engine) UpdateModule(ctx context.Context, m *module.Module) error {
	e.usersMu.Lock()
	e.modulesMu.Lock()
	i := e.findModuleLocked(m.Code)
	if i < 0 {
		e.modulesMu.Unlock()
		e.usersMu.Unlock()
		return ErrModuleNotFound
	}
	current := e.modules[i]
	previous := current.ProfessorCode
	current.Merge(m)
	e.saveModulesLocked(ctx)
	e.reassignLocked(ctx, current.Code, previous, current.ProfessorCode)
	updated := current.Clone()

	e.mods.Invalidate(updated.Code)
	e.queries.InvalidatePrefix(userQueryRoot)
	e.modulesMu.Unlock()
	e.usersMu.Unlock()

	if updated.IsAssigned() {
		e.hub.ModuleAssigned(ctx, updated.ProfessorCode, updated.Code, updated.Name)
	}
	return nil
}

// DeleteModule removes the module with the given code together with every
// grade, absence and enrollment referencing it, and drops it from its
// professor's taught list. It returns ErrModuleNotFound if there is no such
// module.
func (e *Engine) DeleteModule(ctx context.Context, code string) error {
	e.lockAll()
	i := e.findModuleLocked(code)
	if i < 0 {
		e.unlockAll()
		return ErrModuleNotFound
	}
	removed := e.modules[i]
	e.modules = slices.Delete(e.modules, i, i+1)
	e.saveModulesLocked(ctx)

	e.dropTaughtLocked(ctx, code)
	e.cascadeLocked(ctx,
		func(_, moduleCode string) bool { return moduleCode == code },
	)

	e.mods.Invalidate(code)
	e.queries.InvalidatePrefix(userQueryRoot)
	e.unlockAll()

	e.logger.Info("module deleted",
		slog.String("module", code),
		slog.String("professor", removed.ProfessorCode),
	)
	e.plugins.EmitModuleDeleted(ctx, code)
	return nil
}

// ──────────────────────────────────────────────────
// Locked helpers
// ──────────────────────────────────────────────────

func (e *Engine) findModuleLocked(code string) int {
	return slices.IndexFunc(e.modules, func(m *module.Module) bool { return m.Code == code })
}

// reassignLocked moves moduleCode from one professor's taught list to
// another's. Must hold usersMu for writing.
func (e *Engine) reassignLocked(ctx context.Context, moduleCode, from, to string) {
	if from == to {
		return
	}
	changed := false
	for _, u := range e.userList {
		if u.Professor == nil {
			continue
		}
		switch u.Code {
		case from:
			if n := len(u.Professor.Modules); n > 0 {
				u.Professor.Modules = slices.DeleteFunc(u.Professor.Modules, func(c string) bool { return c == moduleCode })
				changed = changed || len(u.Professor.Modules) != n
			}
			e.users.Invalidate(u.Code)
		case to:
			if !u.TeachesModule(moduleCode) {
				u.Professor.Modules = append(u.Professor.Modules, moduleCode)
				changed = true
			}
			e.users.Invalidate(u.Code)
		}
	}
	if changed {
		e.saveUsersLocked(ctx)
	}
}

// dropTaughtLocked removes moduleCode from every professor's taught list.
// Must hold usersMu for writing.
func (e *Engine) dropTaughtLocked(ctx context.Context, moduleCode string) {
	changed := false
	for _, u := range e.userList {
		if !u.TeachesModule(moduleCode) {
			continue
		}
		u.Professor.Modules = slices.DeleteFunc(u.Professor.Modules, func(c string) bool { return c == moduleCode })
		e.users.Invalidate(u.Code)
		changed = true
	}
	if changed {
		e.saveUsersLocked(ctx)
	}
}

// professorName resolves the display name of professorCode, falling back
// to a generic title.
func (e *Engine) professorName(ctx context.Context, professorCode string) string {
	if professorCode == "" {
		return defaultProfessorName
	}
	u, ok := e.GetUser(ctx, professorCode)
	if !ok || u.DisplayName() == "" {
		return defaultProfessorName
	}
	return u.DisplayName()
}

// moduleName resolves the name of moduleCode, falling back to the code.
func (e *Engine) moduleName(ctx context.Context, moduleCode string) (name, professorCode string) {
	m, ok := e.GetModule(ctx, moduleCode)
	if !ok {
		return moduleCode, ""
	}
	return m.Name, m.ProfessorCode
}

// defaultProfessorName names an unresolved professor in notifications.
const defaultProfessorName = "Professeur"
