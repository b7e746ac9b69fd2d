// Package ui is the interactive controller: help-driven menus, argument
// prompts and the session output view.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emacsmirror/easky/internal/command"
	"github.com/emacsmirror/easky/internal/display"
	"github.com/emacsmirror/easky/internal/helpmenu"
	"github.com/emacsmirror/easky/internal/session"
	"github.com/emacsmirror/easky/internal/workspace"
)

const helpFetchTimeout = 15 * time.Second

// HelpSource fetches the options of a help menu. *helpmenu.Cache
// satisfies it.
type HelpSource interface {
	Get(ctx context.Context, helpLine string, tokenIndex int) ([]helpmenu.Option, error)
}

// CallbackMsg runs a supervisor callback on the program's event loop.
type CallbackMsg func()

// NoticeMsg carries a supervisor notice.
type NoticeMsg session.Notice

// DescriptorMsg reports a reloaded workspace descriptor.
type DescriptorMsg struct {
	Descriptor *workspace.Descriptor
	Err        error
}

type menuLoadedMsg struct {
	path    []string
	options []helpmenu.Option
	err     error
}

type state int

const (
	stateLoading state = iota
	stateMenu
	stateArgs
	stateConfirm
)

// Options configures the App.
type Options struct {
	Registry    *command.Registry
	Supervisor  *session.Supervisor
	Help        HelpSource
	Executable  string
	GlobalFlags []string
	// Path is the subcommand path of the first menu; empty is the top level.
	Path   []string
	Banner string
}

type level struct {
	path []string
	list list.Model
}

// App is the bubbletea model of the interactive controller.
type App struct {
	opts    Options
	sup     *session.Supervisor
	overlay *display.Overlay
	surface *display.Surface

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	output  viewport.Model

	state       state
	levels      []level
	loadingPath []string

	pending       command.Request
	pendingPrompt string

	confirmPrompt string
	onConfirm     func() tea.Cmd

	banner      string
	bannerError bool

	width, height int
	quitting      bool
}

// NewApp creates the controller model.
func NewApp(opts Options) *App {
	if opts.Registry == nil {
		opts.Registry = command.DefaultRegistry()
	}
	if opts.Executable == "" {
		opts.Executable = "eask"
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	in := textinput.New()
	in.Prompt = "> "

	a := &App{
		opts:    opts,
		sup:     opts.Supervisor,
		keys:    keys,
		help:    help.New(),
		spinner: sp,
		input:   in,
		output:  viewport.New(80, 10),
		state:   stateLoading,
		banner:  opts.Banner,
	}
	a.bannerError = opts.Banner != ""
	switch sink := opts.Supervisor.Sink().(type) {
	case *display.Overlay:
		a.overlay = sink
	case *display.Surface:
		a.surface = sink
	}
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadMenu(a.opts.Path))
}

// loadMenu fetches the help menu of path.
func (a *App) loadMenu(path []string) tea.Cmd {
	a.state = stateLoading
	a.loadingPath = path
	helpLine := command.HelpLine(a.opts.Executable, path...)
	tokenIndex := len(path) + 1
	src := a.opts.Help
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), helpFetchTimeout)
		defer cancel()
		opts, err := src.Get(ctx, helpLine, tokenIndex)
		return menuLoadedMsg{path: path, options: opts, err: err}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case CallbackMsg:
		msg()
		a.refreshOutput()
		return a, nil

	case NoticeMsg:
		a.setBanner(msg.Message, msg.Level >= slog.LevelWarn)
		return a, nil

	case DescriptorMsg:
		if msg.Err != nil {
			a.setBanner(describeError(msg.Err), true)
		} else if msg.Descriptor != nil {
			a.setBanner("Reloaded "+msg.Descriptor.Path, false)
		}
		return a, nil

	case menuLoadedMsg:
		return a, a.menuLoaded(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	if a.state == stateArgs {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	if l := a.current(); l != nil && a.state == stateMenu {
		var cmd tea.Cmd
		l.list, cmd = l.list.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) menuLoaded(msg menuLoadedMsg) tea.Cmd {
	a.state = stateMenu
	if msg.err != nil {
		a.setBanner(describeError(msg.err), true)
		return nil
	}
	title := "eask"
	if len(msg.path) > 0 {
		title = "eask " + strings.Join(msg.path, " ")
	}
	l := newMenuList(title, MenuItems(msg.options))
	if a.width > 0 {
		l.SetSize(a.width, a.menuHeight())
	}
	// Reloading a level replaces it in place.
	if n := len(a.levels); n > 0 && samePath(a.levels[n-1].path, msg.path) {
		a.levels[n-1] = level{path: msg.path, list: l}
	} else {
		a.levels = append(a.levels, level{path: msg.path, list: l})
	}
	return nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.Quit) {
		a.quitting = true
		return tea.Quit
	}

	if key.Matches(msg, a.keys.ScrollUp, a.keys.ScrollDown) {
		a.scroll(key.Matches(msg, a.keys.ScrollUp))
		return nil
	}
	if a.overlay != nil && a.overlay.FocusChanged() {
		a.refreshOutput()
	}

	switch a.state {
	case stateConfirm:
		switch {
		case key.Matches(msg, a.keys.Yes):
			fn := a.onConfirm
			a.state, a.onConfirm, a.confirmPrompt = stateMenu, nil, ""
			return fn()
		case key.Matches(msg, a.keys.No):
			a.state, a.onConfirm, a.confirmPrompt = stateMenu, nil, ""
			a.setBanner("Cancelled", false)
		}
		return nil

	case stateArgs:
		switch {
		case key.Matches(msg, a.keys.Enter):
			return a.submitArgs()
		case key.Matches(msg, a.keys.Back):
			a.state = stateMenu
			a.input.Blur()
			return nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return cmd

	case stateLoading:
		return nil
	}

	l := a.current()
	if l != nil && l.list.SettingFilter() {
		var cmd tea.Cmd
		l.list, cmd = l.list.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, a.keys.Stop):
		return a.stop()
	case key.Matches(msg, a.keys.Refresh):
		if invalidator, ok := a.opts.Help.(interface{ Invalidate() }); ok {
			invalidator.Invalidate()
		}
		path := a.opts.Path
		if l != nil {
			path = l.path
		}
		return a.loadMenu(path)
	case key.Matches(msg, a.keys.Back):
		if l != nil && l.list.FilterState() != list.Unfiltered {
			break
		}
		if len(a.levels) > 1 {
			a.levels = a.levels[:len(a.levels)-1]
		}
		return nil
	case key.Matches(msg, a.keys.Enter):
		if l == nil {
			return nil
		}
		if item, ok := l.list.SelectedItem().(MenuItem); ok {
			return a.choose(append(append([]string(nil), l.path...), item.Name))
		}
		return nil
	}

	if l == nil {
		return nil
	}
	var cmd tea.Cmd
	l.list, cmd = l.list.Update(msg)
	return cmd
}

// choose resolves a selected subcommand path.
func (a *App) choose(path []string) tea.Cmd {
	req := a.request(path)
	action, err := a.opts.Registry.Resolve(req)
	if err != nil {
		a.setBanner(describeError(err), true)
		return nil
	}

	switch action.Kind {
	case command.ActionMenu:
		return a.loadMenu(path)
	default:
		if action.Prompt != "" {
			a.pending = req
			a.pendingPrompt = action.Prompt
			a.state = stateArgs
			a.input.SetValue("")
			a.input.Placeholder = action.Prompt
			a.input.Focus()
			return textinput.Blink
		}
		return a.start(action.CommandLine)
	}
}

func (a *App) submitArgs() tea.Cmd {
	args, err := command.Split(a.input.Value())
	if err != nil {
		a.setBanner("Invalid arguments: "+err.Error(), true)
		return nil
	}
	a.input.Blur()
	a.state = stateMenu

	req := a.pending
	req.Args = args
	action, err := a.opts.Registry.Resolve(req)
	if err != nil {
		a.setBanner(describeError(err), true)
		return nil
	}
	return a.start(action.CommandLine)
}

func (a *App) request(path []string) command.Request {
	return command.Request{
		Path:       path,
		Executable: a.opts.Executable,
		Extra:      a.opts.GlobalFlags,
	}
}

// start runs line, asking first when another session is running.
func (a *App) start(line string) tea.Cmd {
	if a.sup.Running() {
		a.confirm(session.StopPrompt, func() tea.Cmd {
			return a.startNow(line, session.ConfirmAlways)
		})
		return nil
	}
	return a.startNow(line, nil)
}

func (a *App) startNow(line string, confirm session.Confirmer) tea.Cmd {
	if _, err := a.sup.Start(line, confirm); err != nil {
		a.setBanner(describeError(err), true)
		return nil
	}
	a.setBanner("Running: "+line, false)
	a.refreshOutput()
	return nil
}

func (a *App) stop() tea.Cmd {
	if !a.sup.Running() {
		a.setBanner("No eask process is running", false)
		return nil
	}
	a.confirm(session.StopPrompt, func() tea.Cmd {
		if _, err := a.sup.Stop(session.ConfirmAlways); err != nil {
			a.setBanner(describeError(err), true)
		} else {
			a.setBanner("Stopped", false)
		}
		a.refreshOutput()
		return nil
	})
	return nil
}

func (a *App) confirm(prompt string, fn func() tea.Cmd) {
	a.state = stateConfirm
	a.confirmPrompt = prompt
	a.onConfirm = fn
}

func (a *App) scroll(up bool) {
	delta := a.output.Height / 2
	if delta < 1 {
		delta = 1
	}
	if up {
		delta = -delta
	}
	if a.overlay != nil {
		a.overlay.Scroll(delta)
	} else if up {
		a.output.LineUp(-delta)
	} else {
		a.output.LineDown(delta)
	}
	a.refreshOutput()
}

func (a *App) setBanner(text string, isErr bool) {
	a.banner = text
	a.bannerError = isErr
}

func (a *App) current() *level {
	if len(a.levels) == 0 {
		return nil
	}
	return &a.levels[len(a.levels)-1]
}

func (a *App) menuHeight() int {
	h := a.height - a.output.Height - 6
	if h < 5 {
		h = 5
	}
	return h
}

func (a *App) resize(width, height int) {
	a.width, a.height = width, height
	outputHeight := height / 3
	if outputHeight < 3 {
		outputHeight = 3
	}
	a.output.Width = width - 4
	a.output.Height = outputHeight
	if a.overlay != nil {
		a.overlay.SetHeight(outputHeight)
	}
	for i := range a.levels {
		a.levels[i].list.SetSize(width, a.menuHeight())
	}
	a.help.Width = width
	a.refreshOutput()
}

// refreshOutput copies the sink state into the output viewport.
func (a *App) refreshOutput() {
	switch {
	case a.overlay != nil:
		a.output.SetContent(RenderDocument(a.overlay.Content()))
		a.output.SetYOffset(a.overlay.ScrollOffset())
	case a.surface != nil:
		atBottom := a.output.AtBottom()
		a.output.SetContent(RenderDocument(a.surface.Content()))
		if atBottom {
			a.output.GotoBottom()
		}
	}
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var sections []string
	sections = append(sections, headerStyle.Render("easky"))

	switch a.state {
	case stateLoading:
		sections = append(sections, promptStyle.Render(a.spinner.View()+" Loading "+command.HelpLine(a.opts.Executable, a.loadingPath...)))
	case stateArgs:
		sections = append(sections,
			promptStyle.Render(strings.Join(a.pending.Path, " ")+": "+a.pendingPrompt),
			promptStyle.Render(a.input.View()))
	case stateConfirm:
		sections = append(sections, confirmStyle.Render(a.confirmPrompt+" (y/n)"))
	default:
		if l := a.current(); l != nil {
			sections = append(sections, l.list.View())
		}
	}

	if a.banner != "" {
		style := bannerStyle
		if a.bannerError {
			style = bannerErrorStyle
		}
		sections = append(sections, style.Render(a.banner))
	}

	if out := a.outputView(); out != "" {
		sections = append(sections, out)
	}
	sections = append(sections, helpBarStyle.Render(a.help.View(a.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) outputView() string {
	switch {
	case a.overlay != nil:
		if !a.overlay.Visible() {
			return ""
		}
		var parts []string
		if tip := a.overlay.Tip(); tip != "" {
			parts = append(parts, tipStyle.Render(tip))
		}
		parts = append(parts, a.output.View())
		if status := a.overlay.Status(); status != "" {
			parts = append(parts, statusStyle.Render(status))
		} else if a.sup.Running() {
			parts = append(parts, a.spinner.View()+" running")
		}
		return overlayStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	case a.surface != nil:
		if a.surface.Content().IsEmpty() && a.surface.Status() == "" {
			return ""
		}
		status := a.surface.Status()
		if status == "" && a.sup.Running() {
			status = a.spinner.View() + " running"
		}
		return surfaceStyle.Render(lipgloss.JoinVertical(lipgloss.Left, a.output.View(), statusStyle.Render(status)))
	}
	return ""
}

// describeError renders errors the way the user should see them.
func describeError(err error) string {
	var loadErr *workspace.ConfigLoadError
	var parseErr *helpmenu.ParseError
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Banner()
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Could not read the command list of %q; is eask installed correctly?", parseErr.HelpLine)
	case errors.Is(err, command.ErrNotImplemented):
		return err.Error()
	case errors.Is(err, session.ErrStartRefused):
		return "Another eask process is still running"
	default:
		return "Error: " + err.Error()
	}
}

func samePath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
