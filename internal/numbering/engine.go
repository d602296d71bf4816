// SPDX-License-Identifier: MPL-2.0

package numbering

import (
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/reqdoc/reqdoc/internal/kind"
)

// Disabled is the number assigned to units that are disabled in their
// document context.
const Disabled = "X"

type (
	// Item is a node of the document tree as seen by the engine.
	Item interface {
		Kind() kind.Kind
		// Extension is the lower-case file extension, used to keep one
		// counter per form type.
		Extension() string
		// DisabledInDocument reports whether the item or one of its
		// ancestors is disabled.
		DisabledInDocument() bool
		// Number is the positional number of a container.
		Number() string
		SetItemNumber(number string)
		// Items returns the document children in document order. Items that
		// are not loaded containers return nil.
		Items() []Item
	}

	// Stats summarizes one completed pass.
	Stats struct {
		Tables   int
		Images   int
		Forms    int
		Disabled int
		// Appendices is the number of independent appendix passes.
		Appendices int
	}

	// Listener is notified after a pass completes.
	Listener func(Stats)

	// Engine serializes numbering passes over one document tree.
	Engine struct {
		root   Item
		logger *log.Logger

		mu      sync.Mutex
		running bool
		pending bool

		listenersMu sync.Mutex
		listeners   map[int]Listener
		nextID      int

		passes atomic.Int64
		last   atomic.Pointer[Stats]
	}

	// Option configures an Engine.
	Option func(*Engine)

	counters struct {
		tables int
		images int
		forms  map[string]int
	}
)

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine for the tree rooted at root.
func New(root Item, opts ...Option) *Engine {
	e := &Engine{root: root, listeners: map[int]Listener{}}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// OnNumbered registers l and returns a function that removes it.
func (e *Engine) OnNumbered(l Listener) (remove func()) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = l
	return func() {
		e.listenersMu.Lock()
		defer e.listenersMu.Unlock()
		delete(e.listeners, id)
	}
}

// Renumber runs a full pass. When a pass is already running the request is
// folded into it: the running pass repeats once more before it finishes and
// Renumber returns false immediately. Listeners are notified once, after
// the last repetition.
func (e *Engine) Renumber() bool {
	e.mu.Lock()
	if e.running {
		e.pending = true
		e.mu.Unlock()
		return false
	}
	e.running = true
	e.mu.Unlock()

	for {
		st := e.pass()
		e.mu.Lock()
		if !e.pending {
			e.running = false
			e.mu.Unlock()
			e.notify(st)
			return true
		}
		e.pending = false
		e.mu.Unlock()
		e.logger.Debug("numbering request coalesced, repeating pass")
	}
}

// Passes returns the number of completed passes.
func (e *Engine) Passes() int64 {
	return e.passes.Load()
}

// Last returns the stats of the most recent pass.
func (e *Engine) Last() (Stats, bool) {
	st := e.last.Load()
	if st == nil {
		return Stats{}, false
	}
	return *st, true
}

func (e *Engine) pass() Stats {
	var st Stats
	walk(e.root, "", newCounters(), &st)
	e.passes.Add(1)
	e.last.Store(&st)
	e.logger.Debug("numbering pass complete",
		"tables", st.Tables, "images", st.Images, "forms", st.Forms, "disabled", st.Disabled, "appendices", st.Appendices)
	return st
}

func (e *Engine) notify(st Stats) {
	e.listenersMu.Lock()
	ls := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		ls = append(ls, l)
	}
	e.listenersMu.Unlock()
	for _, l := range ls {
		l(st)
	}
}

func newCounters() *counters {
	return &counters{forms: map[string]int{}}
}

func walk(container Item, prefix string, c *counters, st *Stats) {
	for _, it := range container.Items() {
		k := it.Kind()
		switch {
		case k == kind.Appendix:
			st.Appendices++
			walk(it, it.Number(), newCounters(), st)
		case k.IsContainer():
			walk(it, prefix, c, st)
		case k.IsNumberable():
			assign(it, prefix, c, st)
		case k.IsUnit():
			it.SetItemNumber("")
		}
	}
}

func assign(it Item, prefix string, c *counters, st *Stats) {
	if it.DisabledInDocument() {
		it.SetItemNumber(Disabled)
		st.Disabled++
		return
	}
	var n int
	switch it.Kind() {
	case kind.Table:
		c.tables++
		n = c.tables
		st.Tables++
	case kind.Image:
		c.images++
		n = c.images
		st.Images++
	default:
		ext := strings.ToLower(it.Extension())
		c.forms[ext]++
		n = c.forms[ext]
		st.Forms++
	}
	number := strconv.Itoa(n)
	if prefix != "" {
		number = prefix + "." + number
	}
	it.SetItemNumber(number)
}
