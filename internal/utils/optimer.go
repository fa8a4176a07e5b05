package utils

import (
	"fmt"
	"sync"
	"time"
)

// OpTimer records durations of named operations (gateway calls, scrapes)
// so slow upstreams show up in the logs.
type OpTimer struct {
	samples map[string][]time.Duration
	mu      sync.Mutex
}

func NewOpTimer() *OpTimer {
	return &OpTimer{
		samples: make(map[string][]time.Duration),
	}
}

func (t *OpTimer) Track(operation string, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples[operation] = append(t.samples[operation], duration)
}

// Time runs fn and records how long it took under the given operation name.
func (t *OpTimer) Time(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	t.Track(operation, time.Since(start))
	return err
}

func (t *OpTimer) Report() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := "Operation timings:\n"
	for op, durations := range t.samples {
		var total time.Duration
		for _, d := range durations {
			total += d
		}
		avg := total / time.Duration(len(durations))

		report += fmt.Sprintf("  %s: count=%d avg=%v total=%v\n", op, len(durations), avg, total)
	}

	return report
}
