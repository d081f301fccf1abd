package cartolive

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrTotalsSet    = errors.New("progress totals are already set")
	errJobCancelled = errors.New("render job was cancelled")
)

type ProgressConfig struct {
	// Interval between progress ticks. Defaults to one second.
	Interval time.Duration
	// StallThreshold is the number of consecutive ticks without progress
	// tolerated before the render is cancelled. Defaults to 10.
	StallThreshold int
	// Window is the number of ticks averaged into the CPS figure. Defaults to 10.
	Window int
}

func (c ProgressConfig) withDefaults() ProgressConfig {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.StallThreshold <= 0 {
		c.StallThreshold = 10
	}
	if c.Window <= 0 {
		c.Window = 10
	}
	return c
}

type State int

const (
	StateRunning State = iota
	StateStalled
	StateFinished
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStalled:
		return "stalled"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s State) terminal() bool {
	return s == StateFinished || s == StateCancelled
}

// Snapshot is a point-in-time view of a job's progress.
type Snapshot struct {
	World            string
	State            State
	Percent          float64
	CPS              float64
	ETA              string
	ProcessedChunks  int64
	TotalChunks      int64
	ProcessedRegions int64
	TotalRegions     int64
}

func (s Snapshot) placeholders() []string {
	return []string{
		"world", s.World,
		"processed_chunks", strconv.FormatInt(s.ProcessedChunks, 10),
		"total_chunks", strconv.FormatInt(s.TotalChunks, 10),
		"processed_regions", strconv.FormatInt(s.ProcessedRegions, 10),
		"total_regions", strconv.FormatInt(s.TotalRegions, 10),
		"percent", fmt.Sprintf("%.2f", s.Percent),
		"cps", fmt.Sprintf("%.2f", s.CPS),
		"eta", s.ETA,
	}
}

// Progress accounts for a job's scanned chunks and decides when it ends.
// Scan tasks only increment the counters; everything else happens on the
// periodic tick.
type Progress struct {
	job   *Job
	state RenderState
	cfg   ProgressConfig
	msgs  *Messages
	log   *slog.Logger

	processedChunks  atomic.Int64
	processedRegions atomic.Int64

	mu            sync.Mutex
	st            State
	totalsSet     bool
	totalChunks   int64
	totalRegions  int64
	prevProcessed int64
	cps           *CPSTracker
	percent       float64
	cpsValue      float64
	eta           string
	stallCounter  int
	timer         Timer
	senders       map[string]Sender
}

func newProgress(job *Job) *Progress {
	w := job.world
	return &Progress{
		job:     job,
		state:   w,
		cfg:     w.progress,
		msgs:    w.msgs,
		log:     job.log,
		cps:     NewCPSTracker(w.progress.Window),
		eta:     w.msgs.ETAUnknown,
		senders: make(map[string]Sender),
	}
}

// ShowChat subscribes s to per-tick progress messages. Subscribing the same
// sender twice has no further effect.
func (p *Progress) ShowChat(s Sender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.senders[s.Name()] = s
}

// HideChat unsubscribes s and reports whether it was subscribed.
func (p *Progress) HideChat(s Sender) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.senders[s.Name()]; !ok {
		return false
	}
	delete(p.senders, s.Name())
	return true
}

func (p *Progress) ProcessedChunks() int64  { return p.processedChunks.Load() }
func (p *Progress) ProcessedRegions() int64 { return p.processedRegions.Load() }

func (p *Progress) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st
}

func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() Snapshot {
	return Snapshot{
		World:            p.job.world.Name(),
		State:            p.st,
		Percent:          p.percent,
		CPS:              p.cpsValue,
		ETA:              p.eta,
		ProcessedChunks:  p.processedChunks.Load(),
		TotalChunks:      p.totalChunks,
		ProcessedRegions: p.processedRegions.Load(),
		TotalRegions:     p.totalRegions,
	}
}

// setTotals publishes the job's size. It must happen before any scan task
// is submitted and can only happen once.
func (p *Progress) setTotals(chunks, regions int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.totalsSet {
		return ErrTotalsSet
	}
	if p.st.terminal() {
		return errJobCancelled
	}
	p.totalChunks = chunks
	p.totalRegions = regions
	p.totalsSet = true
	return nil
}

// start schedules the periodic tick.
func (p *Progress) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.st.terminal() || p.timer != nil {
		return
	}
	p.timer = p.job.world.exec.Repeat(p.cfg.Interval, p.run)
}

// run is the scheduled entry point; a failing tick is logged and skipped.
func (p *Progress) run() {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("progress tick failed", "panic", fmt.Sprint(r))
		}
	}()
	p.tick()
}

func (p *Progress) tick() {
	if p.state.IsPaused() {
		return
	}

	p.mu.Lock()
	if p.st != StateRunning || !p.totalsSet {
		p.mu.Unlock()
		return
	}

	processed := p.processedChunks.Load()
	p.cps.Add(processed - p.prevProcessed)
	p.prevProcessed = processed

	p.percent = percentOf(processed, p.totalChunks)
	p.cpsValue = p.cps.Average() / p.cfg.Interval.Seconds()
	if p.cpsValue > 0 {
		remaining := max(p.totalChunks-processed, 0)
		p.eta = FormatMilliseconds(int64(float64(remaining) / p.cpsValue * 1000))
		p.stallCounter = 0
	} else {
		p.eta = p.msgs.ETAUnknown
		p.stallCounter++
	}

	if p.stallCounter > p.cfg.StallThreshold {
		p.st = StateStalled
		timer := p.timer
		p.timer = nil
		p.mu.Unlock()

		if timer != nil {
			timer.Stop()
		}
		p.log.Warn("render stalled", "ticks", p.cfg.StallThreshold, "processed_chunks", processed)
		p.job.broadcast(p.msgs.Format(p.msgs.RenderStalled, "world", p.job.world.Name()))
		p.job.Cancel(false)
		return
	}

	snap := p.snapshotLocked()
	senders := make([]Sender, 0, len(p.senders))
	for _, s := range p.senders {
		senders = append(senders, s)
	}
	p.mu.Unlock()

	msg := p.msgs.chat(snap)
	for _, s := range senders {
		s.Send(msg)
	}
	if d := p.job.world.display; d != nil {
		d.Update(snap)
	}

	if snap.ProcessedRegions >= snap.TotalRegions {
		p.finish()
	}
}

// finish is the only normal completion path.
func (p *Progress) finish() {
	p.mu.Lock()
	if p.st.terminal() {
		p.mu.Unlock()
		return
	}
	p.st = StateFinished
	p.percent = percentOf(p.processedChunks.Load(), p.totalChunks)
	timer := p.timer
	p.timer = nil
	snap := p.snapshotLocked()
	p.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}

	display := p.job.world.display
	if p.state.FinishRender(p.job) {
		if display != nil {
			display.Finish(snap)
		}
	} else if display != nil {
		display.Hide()
	}
	p.job.terminate(EventFinish)
}

// cancel moves the tracker to Cancelled from Running or Stalled.
func (p *Progress) cancel() {
	p.mu.Lock()
	if p.st.terminal() {
		p.mu.Unlock()
		return
	}
	p.st = StateCancelled
	timer := p.timer
	p.timer = nil
	p.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if d := p.job.world.display; d != nil {
		d.Hide()
	}
	p.job.terminate(EventCancel)
}

func percentOf(processed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(processed) / float64(total) * 100
	return min(max(pct, 0), 100)
}
