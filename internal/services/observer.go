package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// FallbackEvent records one substitution of reference data for a failed upstream read.
type FallbackEvent struct {
	Operation string
	Err       error
	At        time.Time
}

// FallbackObserver receives every FallbackEvent. It must not block.
type FallbackObserver func(FallbackEvent)

// fallbackReporter keeps substitutions visible: each one is logged, counted
// and forwarded to the optional observer.
type fallbackReporter struct {
	logger   *zap.Logger
	observer FallbackObserver

	mu     sync.Mutex
	counts map[string]int
	last   *FallbackEvent
}

func newFallbackReporter(logger *zap.Logger, observer FallbackObserver) *fallbackReporter {
	return &fallbackReporter{
		logger:   logger,
		observer: observer,
		counts:   make(map[string]int),
	}
}

func (r *fallbackReporter) report(operation string, err error) {
	event := FallbackEvent{Operation: operation, Err: err, At: time.Now()}

	r.mu.Lock()
	r.counts[operation]++
	r.last = &event
	r.mu.Unlock()

	r.logger.Warn("Upstream failed, serving reference data",
		zap.String("operation", operation),
		zap.Error(err))

	if r.observer != nil {
		r.observer(event)
	}
}

func (r *fallbackReporter) stats() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int, len(r.counts))
	total := 0
	for op, n := range r.counts {
		counts[op] = n
		total += n
	}

	stats := map[string]interface{}{
		"total":        total,
		"by_operation": counts,
	}
	if r.last != nil {
		stats["last_operation"] = r.last.Operation
		stats["last_at"] = r.last.At
		if r.last.Err != nil {
			stats["last_error"] = r.last.Err.Error()
		}
	}
	return stats
}
