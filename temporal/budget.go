package temporal

import "sync"

// DefaultPressureThreshold is the fraction of the budget at which the
// pressure callback fires.
const DefaultPressureThreshold = 0.8

// PressureCallback is invoked once each time usage crosses the pressure
// threshold from below.
type PressureCallback func(currentUsage, limit int64)

// MemoryBudget tracks the conservative byte size of retained data per
// component and answers whether an allocation would exceed the limit.
//
// A limit of zero means unlimited: WouldExceed always reports false and
// usage is tracked for observability only. Safe for concurrent use, though
// each worker normally owns its own component.
type MemoryBudget struct {
	mu                sync.RWMutex
	limit             int64
	pressureThreshold float64
	totalUsage        int64
	componentUsage    map[string]int64
	pressureCallback  PressureCallback
	wasUnderPressure  bool
}

// NewMemoryBudget creates a budget with the given limit in bytes. A limit of
// zero or less disables enforcement.
func NewMemoryBudget(limit int64) *MemoryBudget {
	if limit < 0 {
		limit = 0
	}
	return &MemoryBudget{
		limit:             limit,
		pressureThreshold: DefaultPressureThreshold,
		componentUsage:    make(map[string]int64),
	}
}

// Limit returns the current limit; zero means unlimited.
func (mb *MemoryBudget) Limit() int64 {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return mb.limit
}

// SetLimit updates the limit. Existing usage is kept.
func (mb *MemoryBudget) SetLimit(limit int64) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if limit < 0 {
		limit = 0
	}
	mb.limit = limit
}

// WouldExceed reports whether adding bytes would push total usage past the
// limit. Always false with an unlimited budget.
func (mb *MemoryBudget) WouldExceed(bytes int64) bool {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return mb.limit > 0 && mb.totalUsage+bytes > mb.limit
}

// Track adds usage for a component. Negative deltas release.
func (mb *MemoryBudget) Track(component string, bytes int64) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.componentUsage[component] += bytes
	mb.totalUsage += bytes
	if mb.componentUsage[component] < 0 {
		mb.componentUsage[component] = 0
	}
	if mb.totalUsage < 0 {
		mb.totalUsage = 0
	}

	mb.checkPressure()
}

// TotalUsage returns the tracked usage across all components.
func (mb *MemoryBudget) TotalUsage() int64 {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return mb.totalUsage
}

// ComponentUsage returns the tracked usage for one component.
func (mb *MemoryBudget) ComponentUsage(component string) int64 {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return mb.componentUsage[component]
}

// IsUnderPressure reports whether usage is at or past the pressure
// threshold of a non-zero limit.
func (mb *MemoryBudget) IsUnderPressure() bool {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return mb.limit > 0 && float64(mb.totalUsage) >= float64(mb.limit)*mb.pressureThreshold
}

// OnPressure registers a callback fired when usage crosses the pressure
// threshold from below.
func (mb *MemoryBudget) OnPressure(callback PressureCallback) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.pressureCallback = callback
}

// checkPressure fires the callback on the transition into pressure state.
// Caller must hold the lock; the callback runs on its own goroutine so it
// can call back into the budget.
func (mb *MemoryBudget) checkPressure() {
	underPressure := mb.limit > 0 && float64(mb.totalUsage) >= float64(mb.limit)*mb.pressureThreshold

	if underPressure && !mb.wasUnderPressure && mb.pressureCallback != nil {
		callback := mb.pressureCallback
		usage := mb.totalUsage
		limit := mb.limit
		mb.wasUnderPressure = true
		go callback(usage, limit)
	} else if !underPressure {
		mb.wasUnderPressure = false
	}
}
