package cartolive

// CPSTracker keeps a fixed-size rolling window of per-tick chunk deltas.
// It is not safe for concurrent use; only the progress tick touches it.
type CPSTracker struct {
	samples []int64
	next    int
	count   int
	sum     int64
}

func NewCPSTracker(size int) *CPSTracker {
	if size <= 0 {
		size = 1
	}
	return &CPSTracker{samples: make([]int64, size)}
}

func (t *CPSTracker) Add(delta int64) {
	if delta < 0 {
		delta = 0
	}
	t.sum -= t.samples[t.next]
	t.samples[t.next] = delta
	t.sum += delta
	t.next = (t.next + 1) % len(t.samples)
	if t.count < len(t.samples) {
		t.count++
	}
}

// Average returns the mean delta over the samples recorded so far.
func (t *CPSTracker) Average() float64 {
	if t.count == 0 {
		return 0
	}
	return float64(t.sum) / float64(t.count)
}
