package resilience

import "time"

// bucket holds outcome counters for one slice of the sliding window.
type bucket struct {
	successes int
	failures  int
}

// window is a time-bucketed record of recent call outcomes. It is a fixed
// ring of buckets covering a configurable duration; rotation is lazy and
// happens on the next record or snapshot after a bucket boundary elapses.
//
// A window is owned by exactly one CircuitBreaker and is mutated only while
// that breaker's mutex is held. It performs no synchronization of its own.
type window struct {
	buckets   []bucket
	bucketDur time.Duration
	head      int       // index of the current bucket
	headStart time.Time // start of the current bucket's interval
}

// newWindow creates a window spanning duration, split into count buckets.
func newWindow(duration time.Duration, count int, now time.Time) *window {
	if count <= 0 {
		count = 1
	}
	if duration <= 0 {
		duration = time.Second * time.Duration(count)
	}
	return &window{
		buckets:   make([]bucket, count),
		bucketDur: duration / time.Duration(count),
		headStart: now,
	}
}

// record adds one outcome to the current bucket, rotating first if one or
// more bucket boundaries have elapsed since the last call.
func (w *window) record(now time.Time, success bool) {
	w.rotate(now)
	if success {
		w.buckets[w.head].successes++
	} else {
		w.buckets[w.head].failures++
	}
}

// snapshot returns the total number of calls and the failure rate across the
// active window. Evicted buckets are excluded. The rate is 0 when the window
// is empty.
func (w *window) snapshot(now time.Time) (total int, failureRate float64) {
	w.rotate(now)

	failures := 0
	for _, b := range w.buckets {
		total += b.successes + b.failures
		failures += b.failures
	}
	if total == 0 {
		return 0, 0
	}
	return total, float64(failures) / float64(total)
}

// reset clears all recorded outcomes and restarts the window at now.
func (w *window) reset(now time.Time) {
	for i := range w.buckets {
		w.buckets[i] = bucket{}
	}
	w.head = 0
	w.headStart = now
}

// rotate advances the head past every bucket boundary that has elapsed,
// zeroing each bucket it claims. Each boundary is crossed exactly once, never
// retroactively. When the whole window has gone stale it is cleared in one
// step rather than stepping bucket by bucket.
func (w *window) rotate(now time.Time) {
	elapsed := now.Sub(w.headStart)
	if elapsed < w.bucketDur {
		return
	}

	steps := int(elapsed / w.bucketDur)
	if steps >= len(w.buckets) {
		w.reset(w.headStart.Add(w.bucketDur * time.Duration(steps)))
		return
	}

	for i := 0; i < steps; i++ {
		w.head = (w.head + 1) % len(w.buckets)
		w.buckets[w.head] = bucket{}
	}
	w.headStart = w.headStart.Add(w.bucketDur * time.Duration(steps))
}
