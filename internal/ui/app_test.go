package ui

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emacsmirror/easky/internal/command"
	"github.com/emacsmirror/easky/internal/display"
	"github.com/emacsmirror/easky/internal/helpmenu"
	"github.com/emacsmirror/easky/internal/session"
	"github.com/emacsmirror/easky/internal/workspace"
)

type helpCall struct {
	line  string
	index int
}

type fakeHelp struct {
	mu          sync.Mutex
	calls       []helpCall
	menus       map[string][]helpmenu.Option
	invalidated int
}

func (f *fakeHelp) Get(_ context.Context, line string, index int) ([]helpmenu.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, helpCall{line, index})
	opts, ok := f.menus[line]
	if !ok {
		return nil, &helpmenu.ParseError{HelpLine: line, Output: "Usage: eask"}
	}
	return opts, nil
}

func (f *fakeHelp) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
}

func (f *fakeHelp) lastCall() helpCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// newTestApp builds an app whose "executable" is echo, so a leaf such as
// "lint package" runs "echo lint package".
func newTestApp(t *testing.T) (*App, *display.Overlay, *fakeHelp) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	reg := command.NewRegistry()
	require.NoError(t, reg.RegisterGroup("lint"))
	require.NoError(t, reg.RegisterLeaf("hello", "words"))
	require.NoError(t, reg.RegisterLeaf("lint package", ""))
	require.NoError(t, reg.Register("nap", func(command.Request) (command.Action, error) {
		return command.Action{Kind: command.ActionRun, CommandLine: "sleep 5"}, nil
	}))

	help := &fakeHelp{menus: map[string][]helpmenu.Option{
		"echo --help": {
			{ID: "hello", Description: "Say hello"},
			{ID: "lint", Description: "Run linters"},
			{ID: "nap", Description: "Sleep"},
			{ID: "missing", Description: "Not wired"},
		},
		"echo lint --help": {
			{ID: "package", Description: "Run package-lint"},
		},
	}}

	overlay := display.NewOverlay(1)
	sup := session.NewSupervisor(session.Options{Sink: overlay})
	t.Cleanup(sup.Shutdown)

	app := NewApp(Options{
		Registry:   reg,
		Supervisor: sup,
		Help:       help,
		Executable: "echo",
	})
	return app, overlay, help
}

func press(a *App, msgs ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = a.Update(msg)
	}
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	ctrlK = tea.KeyMsg{Type: tea.KeyCtrlK}
)

// deliver runs a command and feeds its message back into the app.
func deliver(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	a.Update(cmd())
}

func loadTop(t *testing.T, a *App) {
	t.Helper()
	deliver(t, a, a.loadMenu(nil))
	require.Equal(t, stateMenu, a.state)
}

func waitDone(t *testing.T, a *App) session.Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess, err := a.sup.Wait(ctx)
	require.NoError(t, err)
	return sess
}

func menuNames(a *App) []string {
	var names []string
	for _, item := range a.current().list.Items() {
		names = append(names, item.(MenuItem).Name)
	}
	return names
}

func TestApp_LoadsTopMenuInHelpOrder(t *testing.T) {
	a, _, help := newTestApp(t)
	loadTop(t, a)

	assert.Equal(t, helpCall{"echo --help", 1}, help.lastCall())
	assert.Equal(t, []string{"hello", "lint", "nap", "missing"}, menuNames(a))
	assert.Contains(t, a.View(), "hello")
}

func TestApp_ParseErrorShowsBanner(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.opts.Executable = "broken"

	deliver(t, a, a.loadMenu(nil))
	assert.Nil(t, a.current())
	assert.True(t, a.bannerError)
	assert.Contains(t, a.banner, "Could not read the command list")
	assert.Contains(t, a.View(), "Could not read the command list")
}

func TestApp_NestedMenuUsesDeeperTokenIndex(t *testing.T) {
	a, _, help := newTestApp(t)
	loadTop(t, a)

	cmd := press(a, down, enter)
	assert.Equal(t, stateLoading, a.state)
	deliver(t, a, cmd)

	assert.Equal(t, helpCall{"echo lint --help", 2}, help.lastCall())
	assert.Equal(t, []string{"package"}, menuNames(a))
	assert.Equal(t, []string{"lint"}, a.current().path)

	press(a, esc)
	assert.Equal(t, []string{"hello", "lint", "nap", "missing"}, menuNames(a))
}

func TestApp_LeafWithoutArgsStartsSession(t *testing.T) {
	a, overlay, _ := newTestApp(t)
	loadTop(t, a)
	deliver(t, a, press(a, down, enter))

	press(a, enter)
	sess := waitDone(t, a)
	assert.Equal(t, "echo lint package", sess.CommandLine)
	assert.Equal(t, session.StatusCompleted, sess.Status)
	assert.Equal(t, "lint package", overlay.Content().Plain())
	assert.Contains(t, a.banner, "Running: echo lint package")
}

func TestApp_LeafPromptsForArgs(t *testing.T) {
	a, overlay, _ := newTestApp(t)
	loadTop(t, a)

	press(a, enter)
	require.Equal(t, stateArgs, a.state)
	assert.Contains(t, a.View(), "words")

	press(a, runes(`a "b c"`), enter)
	assert.Equal(t, stateMenu, a.state)
	sess := waitDone(t, a)
	assert.Equal(t, "echo hello a 'b c'", sess.CommandLine)
	assert.Equal(t, "hello a b c", overlay.Content().Plain())
}

func TestApp_ArgsCancel(t *testing.T) {
	a, _, _ := newTestApp(t)
	loadTop(t, a)

	press(a, enter, esc)
	assert.Equal(t, stateMenu, a.state)
	_, started := a.sup.Last()
	assert.False(t, started)
}

func TestApp_UnregisteredCommand(t *testing.T) {
	a, _, _ := newTestApp(t)
	loadTop(t, a)

	press(a, down, down, down, enter)
	assert.True(t, a.bannerError)
	assert.Contains(t, a.banner, "not implemented yet")
}

func TestApp_StopAsksForConfirmation(t *testing.T) {
	a, overlay, _ := newTestApp(t)
	loadTop(t, a)

	press(a, down, down, enter)
	require.True(t, a.sup.Running())

	press(a, ctrlK)
	require.Equal(t, stateConfirm, a.state)
	assert.Contains(t, a.View(), session.StopPrompt)

	press(a, runes("n"))
	assert.Equal(t, stateMenu, a.state)
	assert.True(t, a.sup.Running())

	press(a, ctrlK, runes("y"))
	assert.False(t, a.sup.Running())
	assert.Equal(t, 1, overlay.Teardowns())
	assert.Equal(t, session.StatusSignaled, waitDone(t, a).Status)
}

func TestApp_StartWhileRunningAsks(t *testing.T) {
	a, _, _ := newTestApp(t)
	loadTop(t, a)

	press(a, down, down, enter)
	first, _ := a.sup.Current()

	press(a, enter)
	require.Equal(t, stateConfirm, a.state)
	press(a, runes("y"))

	cur, ok := a.sup.Current()
	require.True(t, ok)
	assert.NotEqual(t, first.ID, cur.ID)
	press(a, ctrlK, runes("y"))
}

func TestApp_StopWhenIdle(t *testing.T) {
	a, _, _ := newTestApp(t)
	loadTop(t, a)

	press(a, ctrlK)
	assert.Equal(t, stateMenu, a.state)
	assert.Equal(t, "No eask process is running", a.banner)
}

func TestApp_OverlayDismissOnFocusChange(t *testing.T) {
	a, overlay, _ := newTestApp(t)
	loadTop(t, a)
	deliver(t, a, press(a, down, enter))
	press(a, enter)
	waitDone(t, a)

	assert.Eventually(t, overlay.DismissArmed, time.Second, 10*time.Millisecond)
	press(a, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.True(t, overlay.Visible())

	press(a, down)
	assert.False(t, overlay.Visible())
	assert.Equal(t, 1, overlay.Teardowns())
}

func TestApp_CallbackMsgRunsOnLoop(t *testing.T) {
	a, _, _ := newTestApp(t)
	ran := false
	a.Update(CallbackMsg(func() { ran = true }))
	assert.True(t, ran)
}

func TestApp_NoticeAndDescriptorMessages(t *testing.T) {
	a, _, _ := newTestApp(t)

	a.Update(NoticeMsg{Level: slog.LevelWarn, Message: "eask: timed out"})
	assert.Equal(t, "eask: timed out", a.banner)
	assert.True(t, a.bannerError)

	a.Update(DescriptorMsg{Descriptor: &workspace.Descriptor{Path: "/p/Eask"}})
	assert.Equal(t, "Reloaded /p/Eask", a.banner)
	assert.False(t, a.bannerError)

	loadErr := &workspace.ConfigLoadError{Path: "/p/Eask", Err: errors.New("boom")}
	a.Update(DescriptorMsg{Err: loadErr})
	assert.Equal(t, loadErr.Banner(), a.banner)
}

func TestApp_RefreshInvalidatesHelp(t *testing.T) {
	a, _, help := newTestApp(t)
	loadTop(t, a)

	cmd := press(a, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, 1, help.invalidated)
	deliver(t, a, cmd)
	assert.Len(t, a.levels, 1)
}

func TestApp_Quit(t *testing.T) {
	a, _, _ := newTestApp(t)
	cmd := press(a, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, a.quitting)
	assert.NotNil(t, cmd)
	assert.Equal(t, "", a.View())
}
