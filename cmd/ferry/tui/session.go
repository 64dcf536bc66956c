package tui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/jonboulle/clockwork"
)

// ErrClosed is returned by Session.Resolve once the session has ended.
var ErrClosed = errors.New("tui session closed")

// refreshInterval bounds how often one observer repaints.
const refreshInterval = 50 * time.Millisecond

type (
	openMsg struct {
		id   int64
		ctl  operation.Controller
		snap operation.Snapshot
	}
	updateMsg struct {
		id   int64
		snap operation.Snapshot
	}
	closeMsg struct{ id int64 }
	issueMsg struct {
		issue operation.Issue
		reply chan<- operation.Decision
	}
	// withdrawMsg drops the dialog answering on reply.
	withdrawMsg struct {
		reply chan<- operation.Decision
	}
	quitMsg struct{}
)

// Model is the Bubble Tea model of a session. It is empty until an
// operation opens its observer, so short operations never draw anything.
type Model struct {
	clock   clockwork.Clock
	width   int
	order   []int64
	views   map[int64]*progressView
	dialogs []*issueDialog
}

// NewModel returns an idle model.
func NewModel(clock clockwork.Clock) Model {
	return Model{
		clock: clock,
		width: 80,
		views: make(map[int64]*progressView),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		for _, v := range m.views {
			v.resize(m.width)
		}
		return m, nil

	case openMsg:
		v := newProgressView(msg.ctl, msg.snap, m.clock.Now())
		v.resize(m.width)
		m.views[msg.id] = v
		m.order = append(m.order, msg.id)
		return m, v.spinner.Tick

	case updateMsg:
		if v, ok := m.views[msg.id]; ok {
			v.snap = msg.snap
		}
		return m, nil

	case closeMsg:
		delete(m.views, msg.id)
		m.order = slices.DeleteFunc(m.order, func(id int64) bool { return id == msg.id })
		return m, nil

	case issueMsg:
		m.dialogs = append(m.dialogs, &issueDialog{issue: msg.issue, reply: msg.reply})
		return m, nil

	case withdrawMsg:
		m.dialogs = slices.DeleteFunc(m.dialogs, func(d *issueDialog) bool { return d.reply == msg.reply })
		return m, nil

	case quitMsg:
		m.abandonDialogs()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmds []tea.Cmd
		for _, v := range m.views {
			cmds = append(cmds, v.tick(msg))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.dialogs) > 0 {
		d := m.dialogs[0]
		answered := false
		switch key := msg.String(); key {
		case "left", "h", "shift+tab":
			d.move(-1)
		case "right", "l", "tab":
			d.move(1)
		case "enter":
			answered = d.answer(d.selected())
		case "esc", "ctrl+c":
			answered = d.answer(operation.Abort)
		default:
			if dec, ok := shortcuts[key]; ok {
				answered = d.answer(dec)
			}
		}
		if answered {
			m.dialogs = m.dialogs[1:]
		}
		return m, nil
	}

	v := m.active()
	if v == nil {
		if msg.String() == "ctrl+c" {
			return m, tea.Interrupt
		}
		return m, nil
	}
	switch msg.String() {
	case "a", "esc", "ctrl+c":
		v.ctl.Abort()
	case "p", " ":
		v.togglePause()
	}
	return m, nil
}

// active is the most recently opened view.
func (m Model) active() *progressView {
	if len(m.order) == 0 {
		return nil
	}
	return m.views[m.order[len(m.order)-1]]
}

// abandonDialogs answers every pending dialog with Abort.
func (m *Model) abandonDialogs() {
	for _, d := range m.dialogs {
		d.answer(operation.Abort)
	}
	m.dialogs = nil
}

// View implements tea.Model.
func (m Model) View() string {
	parts := make([]string, 0, len(m.order)+1)
	now := m.clock.Now()
	for _, id := range m.order {
		parts = append(parts, m.views[id].view(m.width, now))
	}
	if len(m.dialogs) > 0 {
		parts = append(parts, m.dialogs[0].view())
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n") + "\n"
}

// Session runs the terminal UI next to one or more operations. It provides
// their observer factory and, for interactive runs, their resolver.
type Session struct {
	program *tea.Program
	clock   clockwork.Clock
	cancel  context.CancelFunc
	done    chan struct{}
	nextID  atomic.Int64
}

// NewSession prepares a session. Run must be called for it to display
// anything.
func NewSession(clock clockwork.Clock, opts ...tea.ProgramOption) *Session {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	return &Session{
		program: tea.NewProgram(NewModel(clock), opts...),
		clock:   clock,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Run drives the UI until Quit is called.
func (s *Session) Run() error {
	defer close(s.done)
	defer s.cancel()
	_, err := s.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// Quit ends the session. Pending issue dialogs are answered with Abort.
func (s *Session) Quit() {
	s.send(quitMsg{})
}

func (s *Session) send(msg tea.Msg) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	s.program.Send(msg)
	return true
}

// Observer returns the factory operations use to open their progress view.
func (s *Session) Observer() operation.ObserverFactory {
	return func(ctl operation.Controller, initial operation.Snapshot) operation.Observer {
		id := s.nextID.Add(1)
		s.send(openMsg{id: id, ctl: ctl, snap: initial})
		return &observer{session: s, id: id, last: s.clock.Now()}
	}
}

// Resolve shows the issue in a dialog and waits for the answer.
func (s *Session) Resolve(ctx context.Context, issue operation.Issue) (operation.Decision, error) {
	reply := make(chan operation.Decision, 1)
	if !s.send(issueMsg{issue: issue, reply: reply}) {
		return operation.Abort, ErrClosed
	}
	select {
	case d := <-reply:
		return d, nil
	case <-ctx.Done():
		s.send(withdrawMsg{reply: reply})
		return operation.Abort, ctx.Err()
	case <-s.done:
		return operation.Abort, ErrClosed
	}
}

// observer forwards snapshots to the session, at most once per
// refreshInterval. Its methods run on the operation goroutine.
type observer struct {
	session *Session
	id      int64
	last    time.Time
}

func (o *observer) Update(snap operation.Snapshot) {
	now := o.session.clock.Now()
	if now.Sub(o.last) < refreshInterval {
		return
	}
	o.last = now
	o.session.send(updateMsg{id: o.id, snap: snap})
}

func (o *observer) Close() {
	o.session.send(closeMsg{id: o.id})
}

var (
	_ tea.Model          = Model{}
	_ operation.Resolver = (*Session)(nil)
	_ operation.Observer = (*observer)(nil)
)
