package module

import "context"

// Store persists the module collection as a whole.
type Store interface {
	// LoadModules returns every persisted module.
	LoadModules(ctx context.Context) ([]*Module, error)

	// SaveModules replaces the persisted module collection with modules.
	SaveModules(ctx context.Context, modules []*Module) error
}
