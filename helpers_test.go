package cartolive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Tnze/go-mc/save"
	"github.com/b1naryth1ef/cartolive/coord"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// manualExecutor records submitted tasks and timers so tests decide when they run.
type manualExecutor struct {
	mu     sync.Mutex
	tasks  []func()
	timers []*manualTimer
	calls  []string
}

func (e *manualExecutor) Submit(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, fn)
	e.calls = append(e.calls, "submit")
}

func (e *manualExecutor) Repeat(period time.Duration, fn func()) Timer {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := &manualTimer{period: period, fn: fn}
	e.timers = append(e.timers, t)
	e.calls = append(e.calls, "repeat")
	return t
}

// runTasks runs every queued task in submission order.
func (e *manualExecutor) runTasks() {
	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

func (e *manualExecutor) taskCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

func (e *manualExecutor) callLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *manualExecutor) timer(t *testing.T) *manualTimer {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.timers) != 1 {
		t.Fatalf("expected 1 timer, got %d", len(e.timers))
	}
	return e.timers[0]
}

type manualTimer struct {
	mu      sync.Mutex
	period  time.Duration
	fn      func()
	stopped bool
}

// fire runs one tick unless the timer was stopped.
func (t *manualTimer) fire() {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if !stopped {
		t.fn()
	}
}

func (t *manualTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// memStorage serves regions from memory. Every chunk of a listed region
// reads as an empty chunk unless it is in fail or panics.
type memStorage struct {
	files   []RegionFile
	listErr error
	regions map[coord.Region]bool
	fail    map[coord.Chunk]error
	panics  map[coord.Chunk]bool

	// entered is closed when RegionFiles is called; RegionFiles then waits on block.
	entered chan struct{}
	block   chan struct{}
}

func (s *memStorage) RegionFiles() ([]RegionFile, error) {
	if s.entered != nil {
		close(s.entered)
		<-s.block
	}
	return s.files, s.listErr
}

func (s *memStorage) OpenRegion(r coord.Region) (RegionReader, error) {
	if !s.regions[r] {
		return nil, fmt.Errorf("%v: %w", r, errors.New("no such file"))
	}
	return &memReader{storage: s}, nil
}

type memReader struct {
	storage *memStorage
}

func (m *memReader) ReadChunk(c coord.Chunk) (*save.Chunk, error) {
	if m.storage.panics[c] {
		panic("corrupt section data")
	}
	if err := m.storage.fail[c]; err != nil {
		return nil, err
	}
	return &save.Chunk{}, nil
}

func (m *memReader) Close() error { return nil }

type recordingTiles struct {
	mu        sync.Mutex
	rendered  []coord.Chunk
	flushed   []coord.Region
	discarded []coord.Region
	onRender  func(coord.Chunk)
}

func (r *recordingTiles) RenderChunk(pos coord.Chunk, chunk *save.Chunk) error {
	r.mu.Lock()
	r.rendered = append(r.rendered, pos)
	hook := r.onRender
	r.mu.Unlock()
	if hook != nil {
		hook(pos)
	}
	return nil
}

func (r *recordingTiles) FlushRegion(region coord.Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushed = append(r.flushed, region)
	return nil
}

func (r *recordingTiles) DiscardRegion(region coord.Region) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discarded = append(r.discarded, region)
}

type recordingSender struct {
	name string
	mu   sync.Mutex
	msgs []string
}

func (s *recordingSender) Name() string { return s.name }

func (s *recordingSender) Send(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSender) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

// count returns how many messages contain substr.
func (s *recordingSender) count(substr string) int {
	n := 0
	for _, m := range s.messages() {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

type recordingDisplay struct {
	mu       sync.Mutex
	updates  []Snapshot
	finishes []Snapshot
	hides    int
}

func (d *recordingDisplay) Update(snap Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, snap)
}

func (d *recordingDisplay) Finish(snap Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finishes = append(d.finishes, snap)
}

func (d *recordingDisplay) Hide() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hides++
}

type testWorld struct {
	world   *World
	exec    *manualExecutor
	storage *memStorage
	tiles   *recordingTiles
	console *recordingSender
	player  *recordingSender
	display *recordingDisplay
}

func newTestWorld(storage *memStorage, known ...coord.Region) *testWorld {
	if storage == nil {
		storage = &memStorage{}
	}
	tw := &testWorld{
		exec:    &manualExecutor{},
		storage: storage,
		tiles:   &recordingTiles{},
		console: &recordingSender{name: "console"},
		player:  &recordingSender{name: "player"},
		display: &recordingDisplay{},
	}
	tw.world = NewWorld(WorldConfig{
		Name:         "overworld",
		Storage:      tw.storage,
		Tiles:        tw.tiles,
		Executor:     tw.exec,
		Log:          discardLogger(),
		Console:      tw.console,
		Display:      tw.display,
		KnownRegions: known,
	})
	return tw
}

// newActiveJob registers a job as the world's active render without
// starting discovery.
func (tw *testWorld) newActiveJob(opts Options) *Job {
	job := newJob(tw.world, tw.player, opts)
	tw.world.mu.Lock()
	tw.world.active = job
	tw.world.mu.Unlock()
	return job
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
