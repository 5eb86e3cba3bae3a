// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and backend-agnostic. Consumers register hooks
// at startup to receive events about simulation ticks, growth, hull rebuilds,
// rendering and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the simulation core
// never imports a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSimulationHooks(observability.NewLogHooks(logger))
//	    // ... run the simulation
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Simulation().OnTick(ctx, runID, tick, joints, duration)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Simulation Hooks
// =============================================================================

// SimulationHooks receives events from the simulation tick.
type SimulationHooks interface {
	// OnTick records a completed tick.
	OnTick(ctx context.Context, runID string, tick int, joints int, duration time.Duration)

	// OnGrowthStep records a growth engine event for compound node.
	OnGrowthStep(ctx context.Context, node, event string, index int)

	// OnFormation records a compound reaching its steady state.
	OnFormation(ctx context.Context, node string, members int, tick int)

	// OnHullRebuild records a boundary ring recomputation.
	OnHullRebuild(ctx context.Context, node string, ringLen int, duration time.Duration)

	// OnJoint records a joint being created (created=true) or removed.
	OnJoint(ctx context.Context, id string, created bool)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the render sinks.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSimulationHooks is a no-op implementation of SimulationHooks.
type NoopSimulationHooks struct{}

func (NoopSimulationHooks) OnTick(context.Context, string, int, int, time.Duration)   {}
func (NoopSimulationHooks) OnGrowthStep(context.Context, string, string, int)         {}
func (NoopSimulationHooks) OnFormation(context.Context, string, int, int)             {}
func (NoopSimulationHooks) OnHullRebuild(context.Context, string, int, time.Duration) {}
func (NoopSimulationHooks) OnJoint(context.Context, string, bool)                     {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string)                               {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Log Implementation
// =============================================================================

// LogHooks reports simulation events to a logger at debug level. Tick
// events are only logged every Every ticks.
type LogHooks struct {
	Logger *log.Logger
	Every  int
}

// NewLogHooks returns LogHooks that log every 60th tick.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{Logger: logger, Every: 60}
}

func (h *LogHooks) OnTick(_ context.Context, runID string, tick, joints int, d time.Duration) {
	if h.Every > 0 && tick%h.Every != 0 {
		return
	}
	h.Logger.Debug("tick", "run", runID, "tick", tick, "joints", joints, "took", d)
}

func (h *LogHooks) OnGrowthStep(_ context.Context, node, event string, index int) {
	h.Logger.Debug("growth", "node", node, "event", event, "index", index)
}

func (h *LogHooks) OnFormation(_ context.Context, node string, members, tick int) {
	h.Logger.Info("formed", "node", node, "members", members, "tick", tick)
}

func (h *LogHooks) OnHullRebuild(_ context.Context, node string, ringLen int, d time.Duration) {
	h.Logger.Debug("hull", "node", node, "ring", ringLen, "took", d)
}

func (h *LogHooks) OnJoint(context.Context, string, bool) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	simulationHooks SimulationHooks = NoopSimulationHooks{}
	renderHooks     RenderHooks     = NoopRenderHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	hooksMu         sync.RWMutex
)

// SetSimulationHooks registers custom simulation hooks.
// This should be called once at application startup before any ticks run.
func SetSimulationHooks(h SimulationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		simulationHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Simulation returns the registered simulation hooks.
func Simulation() SimulationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return simulationHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	simulationHooks = NoopSimulationHooks{}
	renderHooks = NoopRenderHooks{}
	cacheHooks = NoopCacheHooks{}
}
