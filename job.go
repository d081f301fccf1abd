package cartolive

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/b1naryth1ef/cartolive/coord"
	"github.com/b1naryth1ef/cartolive/spiral"
	"github.com/google/uuid"
)

var ErrInvalidRadius = errors.New("render radius must not be negative")

type Options struct {
	Mode Mode
	// Center is the block the spiral starts from.
	Center coord.Block
	// Radius bounds a ModeRadius render, in blocks.
	Radius int
	// Rescan makes a ModeFull render list the region directory instead of
	// using the world's known regions.
	Rescan bool
}

func (o Options) validate() error {
	switch o.Mode {
	case ModeRadius:
		if o.Radius < 0 {
			return ErrInvalidRadius
		}
	case ModeFull:
	default:
		return fmt.Errorf("unknown render mode %d", o.Mode)
	}
	return nil
}

// Job renders one world from a center point. It discovers the work, submits
// one scan task per region and owns the progress tracker that ends it.
type Job struct {
	ID uuid.UUID

	world    *World
	starter  Sender
	opts     Options
	listener Listener
	log      *slog.Logger
	progress *Progress
	started  time.Time

	ctx       context.Context
	cancelCtx context.CancelFunc
	cancelled atomic.Bool
	forced    atomic.Bool

	submitted atomic.Int64
	rendered  chan struct{}

	doneOnce sync.Once
	done     chan struct{}
}

func newJob(w *World, starter Sender, opts Options) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:        uuid.New(),
		world:     w,
		starter:   starter,
		opts:      opts,
		listener:  w.listener,
		started:   time.Now(),
		ctx:       ctx,
		cancelCtx: cancel,
		rendered:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	j.log = w.log.With("job", j.ID, "mode", opts.Mode)
	j.progress = newProgress(j)
	return j
}

func (j *Job) World() *World         { return j.world }
func (j *Job) Starter() Sender       { return j.starter }
func (j *Job) Options() Options      { return j.opts }
func (j *Job) Progress() *Progress   { return j.progress }
func (j *Job) Done() <-chan struct{} { return j.done }

func (j *Job) Elapsed() time.Duration {
	return time.Since(j.started)
}

// Cancelled reports whether cancellation has been requested.
func (j *Job) Cancelled() bool {
	return j.cancelled.Load()
}

// Cancel stops the job. A graceful cancel lets running scan tasks finish
// their region; a forceful one stops them at the next chunk. Calling Cancel
// again only escalates a graceful cancel to a forceful one.
func (j *Job) Cancel(force bool) {
	if force {
		j.forced.Store(true)
	}
	if !j.cancelled.CompareAndSwap(false, true) {
		return
	}
	j.log.Info("cancelling render", "force", force)
	j.cancelCtx()
	j.world.release(j)
	j.progress.cancel()
}

func (j *Job) start() {
	j.log.Info("starting render", "center_x", j.opts.Center.X, "center_z", j.opts.Center.Z, "radius", j.opts.Radius)
	j.listener.OnEvent(j, EventStart)
	go j.render()
}

// terminate delivers the final lifecycle event. Only the progress tracker calls it.
func (j *Job) terminate(ev Event) {
	j.doneOnce.Do(func() {
		j.cancelCtx()
		j.listener.OnEvent(j, ev)
		close(j.done)
	})
}

// broadcast sends msg to the starter and, when it is someone else, the console.
func (j *Job) broadcast(msg string) {
	j.starter.Send(msg)
	if console := j.world.console; console != nil && console.Name() != j.starter.Name() {
		console.Send(msg)
	}
}

func (j *Job) render() {
	defer close(j.rendered)

	msgs := j.world.msgs
	j.starter.Send(msgs.ObtainingChunks)

	candidates, err := j.candidates()
	if err != nil {
		if j.Cancelled() {
			return
		}
		j.log.Error("failed to discover regions", "err", err)
		j.broadcast(msgs.Format(msgs.DiscoveryFailed, "world", j.world.Name(), "error", err.Error()))
		j.Cancel(false)
		return
	}

	plan, ok := j.plan(candidates)
	if !ok {
		return
	}

	if err := j.progress.setTotals(plan.total, int64(len(plan.regions))); err != nil {
		j.log.Debug("not submitting scan tasks", "err", err)
		return
	}
	j.starter.Send(msgs.Format(msgs.FoundTotalChunks, "total", strconv.FormatInt(plan.total, 10)))
	j.log.Info("discovered render work", "chunks", plan.total, "regions", len(plan.regions))

	j.progress.start()

	for _, r := range plan.regions {
		if j.Cancelled() {
			return
		}
		task := newScanTask(j, r, plan.chunks[r])
		j.world.exec.Submit(task.run)
		j.submitted.Add(1)
	}
}

// candidates returns the regions the spiral is filtered against.
func (j *Job) candidates() (*RegionSet, error) {
	if j.opts.Mode == ModeFull && !j.opts.Rescan {
		if known := j.world.KnownRegions(); len(known) > 0 {
			return NewRegionSet(known...), nil
		}
	}

	regions, err := DiscoverRegions(j.ctx, j.world.storage)
	if err != nil {
		return nil, err
	}
	if j.opts.Mode == ModeFull {
		j.world.setKnownRegions(regions.Regions())
	}
	return regions, nil
}

type renderPlan struct {
	// regions in the order the spiral first reached them
	regions []coord.Region
	chunks  map[coord.Region][]int64
	total   int64
}

func newRenderPlan() *renderPlan {
	return &renderPlan{chunks: make(map[coord.Region][]int64)}
}

func (p *renderPlan) add(c coord.Chunk) {
	r := c.Region()
	list, ok := p.chunks[r]
	if !ok {
		p.regions = append(p.regions, r)
	}
	p.chunks[r] = append(list, c.Pack())
	p.total++
}

// plan orders the chunks of candidate regions by spiral position and groups
// them by region. It returns false if the job was cancelled part way.
func (j *Job) plan(candidates *RegionSet) (*renderPlan, bool) {
	center := j.opts.Center.Chunk()

	radius := coord.BlockToChunk(j.opts.Radius)
	if j.opts.Mode == ModeFull {
		radius = coveringRadius(center, candidates)
	}

	// walking the square costs its area; ranking costs the candidate chunks
	side := int64(2*radius + 1)
	if side*side <= int64(candidates.Len())*coord.RegionSize*coord.RegionSize {
		return j.walkPlan(center, radius, candidates)
	}
	return j.rankPlan(center, radius, candidates)
}

// walkPlan follows the spiral and stops once every candidate chunk is found.
func (j *Job) walkPlan(center coord.Chunk, radius int, candidates *RegionSet) (*renderPlan, bool) {
	limit := int64(candidates.Len()) * coord.RegionSize * coord.RegionSize

	p := newRenderPlan()
	it := spiral.New(center, radius)
	for it.HasNext() && p.total < limit {
		if j.Cancelled() {
			return nil, false
		}

		c, err := it.Next()
		if err != nil {
			break
		}
		if candidates.Contains(c.Region()) {
			p.add(c)
		}
	}
	return p, !j.Cancelled()
}

// rankPlan collects the chunks of each candidate region within radius and
// sorts them by spiral index, giving the same order as walkPlan.
func (j *Job) rankPlan(center coord.Chunk, radius int, candidates *RegionSet) (*renderPlan, bool) {
	type ranked struct {
		index int64
		chunk coord.Chunk
	}

	var found []ranked
	for _, r := range candidates.Regions() {
		if j.Cancelled() {
			return nil, false
		}
		corner := r.Chunk()
		for dz := 0; dz < coord.RegionSize; dz++ {
			for dx := 0; dx < coord.RegionSize; dx++ {
				c := coord.Chunk{X: corner.X + dx, Z: corner.Z + dz}
				if center.Chebyshev(c) > radius {
					continue
				}
				found = append(found, ranked{index: spiral.Index(center, c), chunk: c})
			}
		}
	}
	slices.SortFunc(found, func(a, b ranked) int {
		return cmp.Compare(a.index, b.index)
	})

	p := newRenderPlan()
	for _, f := range found {
		p.add(f.chunk)
	}
	return p, !j.Cancelled()
}

// coveringRadius is the smallest spiral radius around center that reaches
// every chunk of every region.
func coveringRadius(center coord.Chunk, regions *RegionSet) int {
	radius := 0
	for _, r := range regions.Regions() {
		corner := r.Chunk()
		far := coord.Chunk{X: corner.X + coord.RegionSize - 1, Z: corner.Z + coord.RegionSize - 1}
		radius = max(radius, center.Chebyshev(corner), center.Chebyshev(far))
	}
	return radius
}
