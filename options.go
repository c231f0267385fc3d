package registrar

import (
	"log/slog"
	"time"

	"github.com/xraph/registrar/cache"
	"github.com/xraph/registrar/notification"
	"github.com/xraph/registrar/plugin"
	"github.com/xraph/registrar/seed"
	"github.com/xraph/registrar/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithCache sets the lookup cache. By default the engine builds one from
// the configuration.
func WithCache(c *cache.Cache) Option { return func(e *Engine) { e.cache = c } }

// WithHub sets the notification hub. By default the engine builds one that
// persists through the store.
func WithHub(h *notification.Hub) Option { return func(e *Engine) { e.hub = h } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration. Zero fields take defaults.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithSeed sets the provider used when the store holds no data.
// Defaults to seed.Demo.
func WithSeed(p seed.Provider) Option { return func(e *Engine) { e.seed = p } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) { e.pending = append(e.pending, x) }
}
