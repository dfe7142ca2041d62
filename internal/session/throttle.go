// Package session holds the per-process state that limits how often a
// renderer may touch costly third-party services.
package session

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/i474232898/calendar-weather/internal/metrics"
	"github.com/i474232898/calendar-weather/internal/weather"
)

// Budget is the number of provider calls a session may make.
type Budget struct {
	ProviderCalls int
}

var (
	// Interactive is the relaxed budget for foreground invocations.
	Interactive = Budget{ProviderCalls: 5}
	// Background is the strict budget for widget and scheduled invocations.
	Background = Budget{ProviderCalls: 2}
)

// BudgetFor returns the preset budget for an invocation kind.
func BudgetFor(inv weather.Invocation) Budget {
	if inv == weather.Background {
		return Background
	}
	return Interactive
}

// Throttle is the process-local session state. It is never persisted.
type Throttle struct {
	budget int32
	calls  *atomic.Int32

	locationOnce sync.Once
	mu           sync.RWMutex
	position     *weather.Position

	defaultIndex *atomic.Int32
}

// New creates a session with the given budget.
func New(b Budget) *Throttle {
	return &Throttle{
		budget:       int32(b.ProviderCalls),
		calls:        atomic.NewInt32(0),
		defaultIndex: atomic.NewInt32(0),
	}
}

// ResolveLocationOnce runs resolve on the first call of the session only.
// Later calls return the remembered outcome without resolving again.
func (t *Throttle) ResolveLocationOnce(ctx context.Context, resolve func(ctx context.Context) (weather.Position, error)) (weather.Position, bool) {
	t.locationOnce.Do(func() {
		pos, err := resolve(ctx)
		if err != nil {
			return
		}
		t.Seed(pos)
	})

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.position == nil {
		return weather.Position{}, false
	}
	return *t.position, true
}

// Seed stores pos as the session position.
func (t *Throttle) Seed(pos weather.Position) {
	t.mu.Lock()
	p := pos
	t.position = &p
	t.mu.Unlock()
}

// Position returns the cached session position, if any.
func (t *Throttle) Position() (weather.Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.position == nil {
		return weather.Position{}, false
	}
	return *t.position, true
}

// TryConsumeProviderCall takes one unit of the call budget. Once the budget
// is used up it returns false and changes nothing.
func (t *Throttle) TryConsumeProviderCall() bool {
	for {
		used := t.calls.Load()
		if used >= t.budget {
			metrics.BudgetExhausted.Inc()
			return false
		}
		if t.calls.CompareAndSwap(used, used+1) {
			return true
		}
	}
}

// Remaining returns the unused provider calls.
func (t *Throttle) Remaining() int {
	r := t.budget - t.calls.Load()
	if r < 0 {
		return 0
	}
	return int(r)
}

// Used returns the number of provider calls consumed so far.
func (t *Throttle) Used() int {
	return int(t.calls.Load())
}

// DefaultIndex returns the current position in the rotating default list.
func (t *Throttle) DefaultIndex() int {
	return int(t.defaultIndex.Load())
}

// AdvanceDefault moves to the next default position and returns the new index.
func (t *Throttle) AdvanceDefault() int {
	return int(t.defaultIndex.Inc())
}
