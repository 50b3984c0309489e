package llm

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// managerState tracks the manager lifecycle.
// Uninitialized -> Initializing -> Ready -> ShuttingDown -> Closed.
// Ready is re-entrant; Closed is terminal.
type managerState int

const (
	stateUninitialized managerState = iota
	stateInitializing
	stateReady
	stateShuttingDown
	stateClosed
)

// Factory constructs an adapter for one provider configuration.
// Wiring the factory in from outside keeps this package free of vendor
// imports.
type Factory func(cfg ProviderConfig, logger *zap.Logger) (Provider, error)

// registeredProvider pairs a live adapter with its selection metadata.
// The active list is sorted by ascending priority, stable on configuration
// insertion order for ties.
type registeredProvider struct {
	provider Provider
	priority int
}

// Manager owns the set of configured, enabled adapters. It initializes and
// closes them concurrently, routes generate calls through them in ascending
// priority order with single-attempt failover, and aggregates per-vendor and
// global cost totals.
type Manager struct {
	configs []ProviderConfig
	factory Factory
	logger  *zap.Logger

	mu        sync.Mutex
	state     managerState
	providers []*registeredProvider // read-only once state is Ready

	costMu       sync.Mutex
	costByVendor map[string]float64
	costTotal    float64

	recorders []GenerationRecorder

	sweepInterval time.Duration
	sweepStop     chan struct{}
	sweepDone     chan struct{}
}

// ManagerOption customizes a Manager at construction.
type ManagerOption func(*Manager)

// WithRecorder registers an accounting sink notified on every generation
// outcome.
func WithRecorder(r GenerationRecorder) ManagerOption {
	return func(m *Manager) {
		if r != nil {
			m.recorders = append(m.recorders, r)
		}
	}
}

// WithConnectionSweep enables a background loop that probes every adapter at
// the given interval so ListProviders reflects current reachability.
func WithConnectionSweep(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.sweepInterval = interval
	}
}

// NewManager creates a manager over the given provider configurations.
// Disabled entries are ignored. The logger may be nil.
func NewManager(configs []ProviderConfig, factory Factory, logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		configs:      configs,
		factory:      factory,
		logger:       logger,
		state:        stateUninitialized,
		costByVendor: make(map[string]float64),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Initialize constructs one adapter per enabled configuration and brings
// them all up concurrently. A single adapter failure is logged and that
// adapter is excluded; the manager only fails when zero adapters end up
// usable, with ErrNoProvidersAvailable.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.state != stateUninitialized {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}
	m.state = stateInitializing
	m.mu.Unlock()

	// Deterministic trial order: ascending priority, stable on insertion
	// order for ties.
	ordered := make([]ProviderConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		if cfg.Enabled {
			ordered = append(ordered, cfg)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	candidates := make([]*registeredProvider, 0, len(ordered))
	for _, cfg := range ordered {
		provider, err := m.factory(cfg, m.logger)
		if err != nil {
			m.logger.Warn("skipping provider: construction failed",
				zap.String("vendor", cfg.Vendor),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, &registeredProvider{
			provider: provider,
			priority: cfg.Priority,
		})
	}

	// Adapter initializations are independent network setup; fan out and
	// join before proceeding.
	initErrs := make([]error, len(candidates))
	var wg sync.WaitGroup
	for i, rp := range candidates {
		wg.Add(1)
		go func(i int, rp *registeredProvider) {
			defer wg.Done()
			initErrs[i] = rp.provider.Initialize(ctx)
		}(i, rp)
	}
	wg.Wait()

	active := make([]*registeredProvider, 0, len(candidates))
	for i, rp := range candidates {
		if initErrs[i] != nil {
			m.logger.Warn("excluding provider: initialization failed",
				zap.String("vendor", rp.provider.Name()),
				zap.Error(initErrs[i]),
			)
			_ = rp.provider.Close()
			continue
		}
		active = append(active, rp)
		m.logger.Info("provider initialized",
			zap.String("vendor", rp.provider.Name()),
			zap.Int("priority", rp.priority),
		)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A Shutdown racing this initialization wins: Closed stays terminal,
	// so release the adapters instead of promoting to Ready.
	if m.state != stateInitializing {
		for _, rp := range active {
			_ = rp.provider.Close()
		}
		return ErrNotInitialized
	}

	if len(active) == 0 {
		m.state = stateUninitialized
		return ErrNoProvidersAvailable
	}

	m.providers = active
	m.state = stateReady

	if m.sweepInterval > 0 {
		m.sweepStop = make(chan struct{})
		m.sweepDone = make(chan struct{})
		go m.connectionSweep()
	}

	m.logger.Info("provider manager ready", zap.Int("providers", len(active)))
	return nil
}

// Generate routes one request through the registry in ascending priority
// order and returns the first successful result. Adapters are tried strictly
// one at a time; a lower-priority adapter is never invoked before a
// higher-priority one has definitively failed. When every adapter fails the
// caller receives an *AllProvidersFailedError carrying the full ordered
// failure list.
func (m *Manager) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (*GenerationResult, error) {
	m.mu.Lock()
	if m.state != stateReady {
		m.mu.Unlock()
		return nil, ErrNotInitialized
	}
	providers := m.providers // read-only after Initialize
	m.mu.Unlock()

	failures := make([]Failure, 0, len(providers))

	for _, rp := range providers {
		// Caller cancellation aborts the failover loop; a cancelled
		// in-flight call is never reported into accounting.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := rp.provider.Generate(ctx, prompt, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			failure := newFailure(rp.provider.Name(), err)
			failures = append(failures, failure)
			m.logger.Warn("provider failed, trying next",
				zap.String("vendor", failure.Vendor),
				zap.String("kind", string(failure.Kind)),
				zap.String("message", failure.Message),
			)
			continue
		}

		m.recordCost(result.Provider, result.Cost)

		failovers := len(failures)
		for _, r := range m.recorders {
			r.RecordSuccess(ctx, result, failovers)
		}

		m.logger.Info("generation succeeded",
			zap.String("vendor", result.Provider),
			zap.String("model", result.Model),
			zap.Int("prompt_tokens", result.Usage.PromptTokens),
			zap.Int("completion_tokens", result.Usage.CompletionTokens),
			zap.Float64("cost", result.Cost),
			zap.Int("failovers", failovers),
		)
		return result, nil
	}

	for _, r := range m.recorders {
		r.RecordFailure(ctx, failures)
	}

	return nil, &AllProvidersFailedError{Failures: failures}
}

// recordCost applies one successful call's cost to the vendor and global
// totals under a single critical section so concurrent completions never
// lose updates.
func (m *Manager) recordCost(vendor string, cost float64) {
	m.costMu.Lock()
	defer m.costMu.Unlock()
	m.costByVendor[vendor] += cost
	m.costTotal += cost
}

// ListProviders returns a snapshot of every registered adapter: vendor,
// priority, connected status, and cumulative cost. Pure read; counters may
// be slightly stale relative to in-flight completions.
func (m *Manager) ListProviders() []ProviderStatus {
	m.mu.Lock()
	providers := m.providers
	m.mu.Unlock()

	m.costMu.Lock()
	costs := make(map[string]float64, len(m.costByVendor))
	for vendor, cost := range m.costByVendor {
		costs[vendor] = cost
	}
	m.costMu.Unlock()

	statuses := make([]ProviderStatus, 0, len(providers))
	for _, rp := range providers {
		name := rp.provider.Name()
		statuses = append(statuses, ProviderStatus{
			Vendor:         name,
			Priority:       rp.priority,
			Connected:      rp.provider.IsConnected(),
			CumulativeCost: costs[name],
		})
	}
	return statuses
}

// TotalCost returns the global cumulative cost across all vendors.
func (m *Manager) TotalCost() float64 {
	m.costMu.Lock()
	defer m.costMu.Unlock()
	return m.costTotal
}

// TestConnections probes every registered adapter and returns reachability
// keyed by vendor name.
func (m *Manager) TestConnections(ctx context.Context) map[string]bool {
	m.mu.Lock()
	providers := m.providers
	m.mu.Unlock()

	results := make(map[string]bool, len(providers))
	for _, rp := range providers {
		results[rp.provider.Name()] = rp.provider.TestConnection(ctx)
	}
	return results
}

// Shutdown closes every adapter concurrently, best effort. Individual close
// failures are logged but never block closing the rest. Idempotent: a second
// call is a no-op.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.state == stateClosed || m.state == stateShuttingDown {
		m.mu.Unlock()
		return nil
	}
	m.state = stateShuttingDown
	providers := m.providers
	sweepStop := m.sweepStop
	sweepDone := m.sweepDone
	m.mu.Unlock()

	if sweepStop != nil {
		close(sweepStop)
		<-sweepDone
	}

	var wg sync.WaitGroup
	for _, rp := range providers {
		wg.Add(1)
		go func(rp *registeredProvider) {
			defer wg.Done()
			if err := rp.provider.Close(); err != nil {
				m.logger.Warn("provider close failed",
					zap.String("vendor", rp.provider.Name()),
					zap.Error(err),
				)
			}
		}(rp)
	}
	wg.Wait()

	m.mu.Lock()
	m.state = stateClosed
	m.mu.Unlock()

	m.logger.Info("provider manager shut down", zap.Int("providers", len(providers)))
	return nil
}

// connectionSweep refreshes each adapter's reachability on a fixed interval
// so ListProviders reflects vendors that went away between requests.
func (m *Manager) connectionSweep() {
	defer close(m.sweepDone)

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.sweepStop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.sweepInterval)
			for vendor, ok := range m.TestConnections(ctx) {
				if !ok {
					m.logger.Warn("provider unreachable", zap.String("vendor", vendor))
				}
			}
			cancel()
		}
	}
}
