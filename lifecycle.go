package cartolive

// Mode selects how a render job picks its work.
type Mode int

const (
	// ModeRadius renders the chunks within a radius of the center.
	ModeRadius Mode = iota
	// ModeFull renders every chunk of every known region.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeRadius:
		return "radius"
	case ModeFull:
		return "full"
	default:
		return "unknown"
	}
}

// Event is a render job lifecycle transition.
type Event int

const (
	EventStart Event = iota
	EventFinish
	EventCancel
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventFinish:
		return "finish"
	case EventCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Listener receives lifecycle events synchronously, once per event.
type Listener interface {
	OnEvent(job *Job, ev Event)
}

type ListenerFunc func(job *Job, ev Event)

func (f ListenerFunc) OnEvent(job *Job, ev Event) { f(job, ev) }

// modeListener announces lifecycle events to the starter and the console.
type modeListener struct{}

func (modeListener) OnEvent(job *Job, ev Event) {
	msgs := job.world.msgs

	var tmpl string
	switch job.opts.Mode {
	case ModeFull:
		switch ev {
		case EventStart:
			tmpl = msgs.FullStarting
		case EventFinish:
			tmpl = msgs.FullFinished
		case EventCancel:
			tmpl = msgs.FullCancelled
		}
	default:
		switch ev {
		case EventStart:
			tmpl = msgs.RadiusStarting
		case EventFinish:
			tmpl = msgs.RadiusFinished
		case EventCancel:
			tmpl = msgs.RadiusCancelled
		}
	}
	if tmpl == "" {
		return
	}

	job.broadcast(msgs.Format(tmpl,
		"world", job.world.Name(),
		"elapsed", FormatDuration(job.Elapsed()),
	))
}
