package cartolive

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/b1naryth1ef/cartolive/coord"
)

var ErrRenderActive = errors.New("world already has an active render")

// RenderState is the per-world render bookkeeping the progress tracker
// consults and drives.
type RenderState interface {
	HasActiveRender() bool
	// FinishRender clears the active slot if job holds it and reports
	// whether it did.
	FinishRender(job *Job) bool
	CancelRender(force bool)
	IsPaused() bool
}

type WorldConfig struct {
	// Name identifies the world in notifications and logs.
	Name string
	// Storage gives access to the world's region files.
	Storage WorldStorage
	// Tiles receives every scanned chunk.
	Tiles TileRenderer
	// Executor runs scan tasks and progress ticks.
	Executor Executor
	// Log is the logger used for the world and its jobs. Defaults to slog.Default().
	Log *slog.Logger
	// Console is the operator sender that mirrors lifecycle notifications.
	// Defaults to a ConsoleSender on Log.
	Console Sender
	// Display is the persistent progress display. May be nil.
	Display StatusDisplay
	// Messages overrides the notification templates.
	Messages *Messages
	// Progress tunes the progress tracker.
	Progress ProgressConfig
	// KnownRegions seeds the region set used by full renders.
	KnownRegions []coord.Region
	// Listener overrides the lifecycle listener of jobs started on this world.
	Listener Listener
}

// World tracks the single active render of one world.
type World struct {
	name     string
	storage  WorldStorage
	tiles    TileRenderer
	exec     Executor
	log      *slog.Logger
	console  Sender
	display  StatusDisplay
	msgs     *Messages
	progress ProgressConfig
	listener Listener

	paused atomic.Bool

	mu     sync.Mutex
	active *Job
	known  []coord.Region
}

func NewWorld(cfg WorldConfig) *World {
	if cfg.Storage == nil {
		panic("cartolive: world requires storage")
	}
	if cfg.Tiles == nil {
		panic("cartolive: world requires a tile renderer")
	}
	if cfg.Executor == nil {
		panic("cartolive: world requires an executor")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Console == nil {
		cfg.Console = NewConsoleSender(cfg.Log)
	}
	if cfg.Messages == nil {
		cfg.Messages = DefaultMessages()
	}
	if cfg.Listener == nil {
		cfg.Listener = modeListener{}
	}
	return &World{
		name:     cfg.Name,
		storage:  cfg.Storage,
		tiles:    cfg.Tiles,
		exec:     cfg.Executor,
		log:      cfg.Log.With("world", cfg.Name),
		console:  cfg.Console,
		display:  cfg.Display,
		msgs:     cfg.Messages,
		progress: cfg.Progress.withDefaults(),
		listener: cfg.Listener,
		known:    append([]coord.Region(nil), cfg.KnownRegions...),
	}
}

func (w *World) Name() string {
	return w.name
}

// StartRender starts a render job for the world. It fails with
// ErrRenderActive if another job is still running.
func (w *World) StartRender(starter Sender, opts Options) (*Job, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if starter == nil {
		starter = w.console
	}

	w.mu.Lock()
	if w.active != nil {
		w.mu.Unlock()
		return nil, ErrRenderActive
	}
	job := newJob(w, starter, opts)
	w.active = job
	w.mu.Unlock()

	job.start()
	return job, nil
}

// ActiveRender returns the running job, or nil.
func (w *World) ActiveRender() *Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *World) HasActiveRender() bool {
	return w.ActiveRender() != nil
}

// FinishRender marks job as completed. It reports false, and leaves the
// slot alone, when job is no longer the active render.
func (w *World) FinishRender(job *Job) bool {
	if !w.release(job) {
		return false
	}
	w.log.Info("render finished", "job", job.ID, "chunks", job.progress.ProcessedChunks())
	return true
}

// CancelRender cancels the active render, if any. A forceful cancel also
// stops scan tasks that are already running.
func (w *World) CancelRender(force bool) {
	if job := w.ActiveRender(); job != nil {
		job.Cancel(force)
	}
}

// Pause suspends progress accounting; ticks become no-ops until Unpause.
func (w *World) Pause() {
	w.paused.Store(true)
}

func (w *World) Unpause() {
	w.paused.Store(false)
}

func (w *World) IsPaused() bool {
	return w.paused.Load()
}

// KnownRegions returns the region set used by full renders.
func (w *World) KnownRegions() []coord.Region {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]coord.Region(nil), w.known...)
}

func (w *World) setKnownRegions(regions []coord.Region) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.known = regions
}

// release clears the active slot if it still belongs to job.
func (w *World) release(job *Job) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active != job {
		return false
	}
	w.active = nil
	return true
}
