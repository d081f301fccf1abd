package cartolive

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Sender receives one-line text notifications, e.g. a chat recipient.
type Sender interface {
	Name() string
	Send(msg string)
}

// ConsoleSender delivers notifications to the operator log.
type ConsoleSender struct {
	log *slog.Logger
}

func NewConsoleSender(log *slog.Logger) *ConsoleSender {
	if log == nil {
		log = slog.Default()
	}
	return &ConsoleSender{log: log}
}

func (c *ConsoleSender) Name() string { return "console" }

func (c *ConsoleSender) Send(msg string) {
	c.log.Info(msg)
}

// StatusDisplay is a persistent progress indicator that is updated in place.
type StatusDisplay interface {
	Update(snap Snapshot)
	// Finish shows the final state of a completed render.
	Finish(snap Snapshot)
	// Hide removes the display without a final state.
	Hide()
}

// MultiStatus fans updates out to several displays.
type MultiStatus []StatusDisplay

func (m MultiStatus) Update(snap Snapshot) {
	for _, d := range m {
		d.Update(snap)
	}
}

func (m MultiStatus) Finish(snap Snapshot) {
	for _, d := range m {
		d.Finish(snap)
	}
}

func (m MultiStatus) Hide() {
	for _, d := range m {
		d.Hide()
	}
}

// TerminalStatus rewrites a single status line on a terminal.
type TerminalStatus struct {
	mu     sync.Mutex
	w      io.Writer
	msgs   *Messages
	width  int
	active bool
}

func NewTerminalStatus(w io.Writer, msgs *Messages) *TerminalStatus {
	if msgs == nil {
		msgs = DefaultMessages()
	}
	return &TerminalStatus{w: w, msgs: msgs}
}

func (t *TerminalStatus) Update(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.write(t.msgs.status(snap))
	t.active = true
}

func (t *TerminalStatus) Finish(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.write(t.msgs.status(snap))
	fmt.Fprintln(t.w)
	t.active = false
	t.width = 0
}

func (t *TerminalStatus) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	fmt.Fprintf(t.w, "\r%s\r", strings.Repeat(" ", t.width))
	t.active = false
	t.width = 0
}

func (t *TerminalStatus) write(line string) {
	pad := ""
	if n := t.width - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(t.w, "\r%s%s", line, pad)
	t.width = len(line)
}

// Messages holds the notification templates. Placeholders are written as
// <name> and substituted by Format.
type Messages struct {
	ProgressChat     string
	ProgressStatus   string
	ETAUnknown       string
	RenderStalled    string
	DiscoveryFailed  string
	ObtainingChunks  string
	FoundTotalChunks string

	RadiusStarting  string
	RadiusFinished  string
	RadiusCancelled string
	FullStarting    string
	FullFinished    string
	FullCancelled   string
}

func DefaultMessages() *Messages {
	return &Messages{
		ProgressChat:     "[<world>] <processed_chunks>/<total_chunks> chunks (<percent>%) <cps> cps, eta <eta>",
		ProgressStatus:   "<world> <percent>% | <cps> cps | eta <eta>",
		ETAUnknown:       "unknown",
		RenderStalled:    "Render of <world> stalled, cancelling it",
		DiscoveryFailed:  "Could not list regions of <world>: <error>",
		ObtainingChunks:  "Obtaining chunks to render, please wait...",
		FoundTotalChunks: "Found <total> chunks to render",
		RadiusStarting:   "Radius render of <world> starting",
		RadiusFinished:   "Radius render of <world> finished in <elapsed>",
		RadiusCancelled:  "Radius render of <world> cancelled",
		FullStarting:     "Full render of <world> starting",
		FullFinished:     "Full render of <world> finished in <elapsed>",
		FullCancelled:    "Full render of <world> cancelled",
	}
}

// Format substitutes key/value placeholder pairs into tmpl.
func (m *Messages) Format(tmpl string, kv ...string) string {
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "<"+kv[i]+">", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func (m *Messages) chat(snap Snapshot) string {
	return m.Format(m.ProgressChat, snap.placeholders()...)
}

func (m *Messages) status(snap Snapshot) string {
	return m.Format(m.ProgressStatus, snap.placeholders()...)
}
