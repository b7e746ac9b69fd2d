package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emacsmirror/easky/internal/session"
)

// Dispatcher delivers supervisor callbacks through the program's event
// loop so they run on the same control flow as key handling.
func Dispatcher(p *tea.Program) session.Dispatcher {
	return func(fn func()) {
		p.Send(CallbackMsg(fn))
	}
}

// Notifier forwards supervisor notices to the program. Notices are raised
// from callbacks already running on the event loop, so they are sent
// asynchronously.
func Notifier(p *tea.Program) func(session.Notice) {
	return func(n session.Notice) {
		go p.Send(NoticeMsg(n))
	}
}

// NewProgram creates the program on the alternate screen and routes the
// supervisor's callbacks and notices through it.
func NewProgram(app *App, opts ...tea.ProgramOption) *tea.Program {
	p := tea.NewProgram(app, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	app.sup.SetDispatcher(Dispatcher(p))
	app.sup.SetNotify(Notifier(p))
	return p
}
