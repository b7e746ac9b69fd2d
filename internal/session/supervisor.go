// Package session supervises the single active invocation of the external
// tool: it spawns the child process, streams its output through a
// stream.Processor into a display sink, and enforces the timeout watchdog.
//
// Output, exit and timeout callbacks are delivered through a Dispatcher so
// that they run on one control flow, one at a time, in the order the child
// produced them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/emacsmirror/easky/internal/display"
	"github.com/emacsmirror/easky/internal/stream"
)

const (
	// DefaultTimeout is how long a session may run before the watchdog
	// kills it.
	DefaultTimeout = 30 * time.Second

	defaultChunkSize        = 32 * 1024
	defaultEventLogLimit    = 1000
	defaultSubscriberBufCap = 100
	defaultDispatchQueue    = 256
	defaultShutdownTimeout  = 5 * time.Second
)

var (
	// ErrStartRefused is returned by Start when replacing the running
	// session was not confirmed.
	ErrStartRefused = errors.New("a session is already running")

	// ErrClosed is returned after Shutdown.
	ErrClosed = errors.New("supervisor is shut down")
)

// StopPrompt is the question asked before killing a running session.
const StopPrompt = "Kill the running eask process? It may be in the middle of changing files."

// Confirmer asks the user to confirm a destructive action.
type Confirmer func(prompt string) bool

// ConfirmAlways confirms without asking.
func ConfirmAlways(string) bool { return true }

// ConfirmNever declines without asking.
func ConfirmNever(string) bool { return false }

// Dispatcher runs fn on the controller's control flow. It must preserve
// the order of calls made from one goroutine.
type Dispatcher func(fn func())

// Notice is a user-facing status or warning message.
type Notice struct {
	SessionID string
	Level     slog.Level
	Message   string
}

// Options configures a Supervisor.
type Options struct {
	// Sink receives the processed output. Defaults to a detached Surface.
	Sink display.Sink
	// Timeout arms the watchdog of every session. Defaults to DefaultTimeout.
	Timeout time.Duration
	// StripHeader drops the Eask preamble from displayed output.
	StripHeader bool
	// Dir is the working directory of the child.
	Dir string
	// Env is the child environment. Nil inherits the parent's.
	Env []string
	// ExtraEnv is appended to Env, e.g. the color flag.
	ExtraEnv []string
	// Dispatch delivers callbacks. Defaults to an internal serial loop.
	Dispatch Dispatcher
	// Notify receives status messages and warnings.
	Notify func(Notice)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Supervisor owns the single execution slot.
type Supervisor struct {
	mu       sync.Mutex
	opts     Options
	sink     display.Sink
	logger   *slog.Logger
	dispatch Dispatcher

	active *run
	last   *run
	closed bool

	events      *EventLog
	subscribers map[string]chan Event
	subMu       sync.RWMutex

	queue chan func()
	quit  chan struct{}
}

// run is the supervisor-private state of one session.
type run struct {
	sess     Session
	cmd      *exec.Cmd
	proc     *stream.Processor
	watchdog *time.Timer
	done     chan struct{}
}

// NewSupervisor creates a supervisor.
func NewSupervisor(opts Options) *Supervisor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Sink == nil {
		opts.Sink = display.NewSurface(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Supervisor{
		opts:        opts,
		sink:        opts.Sink,
		logger:      logger,
		events:      NewEventLog(defaultEventLogLimit),
		subscribers: make(map[string]chan Event),
		queue:       make(chan func(), defaultDispatchQueue),
		quit:        make(chan struct{}),
	}
	s.dispatch = s.enqueue
	if opts.Dispatch != nil {
		s.dispatch = opts.Dispatch
	}
	go s.loop()
	return s
}

// SetDispatcher replaces the callback dispatcher. It must be called before
// the first Start.
func (s *Supervisor) SetDispatcher(d Dispatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d != nil {
		s.dispatch = d
	}
}

// SetNotify replaces the notice callback.
func (s *Supervisor) SetNotify(fn func(Notice)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Notify = fn
}

// SetTimeout changes the watchdog duration of sessions started from now on.
func (s *Supervisor) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Timeout = d
}

// Sink returns the display sink.
func (s *Supervisor) Sink() display.Sink { return s.sink }

func (s *Supervisor) loop() {
	for {
		select {
		case fn := <-s.queue:
			fn()
		case <-s.quit:
			return
		}
	}
}

func (s *Supervisor) enqueue(fn func()) {
	select {
	case s.queue <- fn:
	case <-s.quit:
	}
}

func (s *Supervisor) deliver(fn func()) {
	s.mu.Lock()
	d := s.dispatch
	s.mu.Unlock()
	d(fn)
}

// Start begins a new session running commandLine. A running session is
// stopped first, which requires confirm to agree; otherwise ErrStartRefused
// is returned and the running session is left alone.
func (s *Supervisor) Start(commandLine string, confirm Confirmer) (Session, error) {
	if s.Running() {
		stopped, err := s.Stop(confirm)
		if err != nil {
			return Session{}, err
		}
		if !stopped && s.Running() {
			return Session{}, ErrStartRefused
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Session{}, ErrClosed
	}
	if s.active != nil && s.active.sess.Status == StatusRunning {
		return Session{}, ErrStartRefused
	}

	s.sink.Reset()

	cmd := shellCommand(commandLine)
	cmd.Dir = s.opts.Dir
	if s.opts.Env != nil || len(s.opts.ExtraEnv) > 0 {
		env := s.opts.Env
		if env == nil {
			env = os.Environ()
		}
		cmd.Env = append(append([]string(nil), env...), s.opts.ExtraEnv...)
	}

	// stdout and stderr share one pipe so chunks keep the order the child
	// wrote them in.
	pr, pw, err := os.Pipe()
	if err != nil {
		return Session{}, fmt.Errorf("create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return Session{}, fmt.Errorf("start %q: %w", commandLine, err)
	}
	pw.Close()

	r := &run{
		sess: Session{
			ID:          uuid.New().String(),
			CommandLine: commandLine,
			Status:      StatusRunning,
			WorkDir:     s.opts.Dir,
			StartedAt:   time.Now().UTC(),
		},
		cmd:  cmd,
		proc: stream.NewProcessor(s.sink, s.opts.StripHeader),
		done: make(chan struct{}),
	}
	r.watchdog = time.AfterFunc(s.opts.Timeout, func() {
		s.deliver(func() { s.onTimeout(r) })
	})

	// A session that timed out but has not been reaped yet gives up the
	// slot here; its exit no longer touches the sink.
	s.active = r
	s.last = r
	s.record(r.sess.ID, EventStarted, commandLine)
	s.logger.Debug("session started", "session", r.sess.ID, "line", commandLine, "pid", cmd.Process.Pid)

	go s.pump(r, pr)

	return r.sess, nil
}

// pump reads the merged output until EOF, then reaps the child. Chunks
// and the exit are delivered in order through the dispatcher.
func (s *Supervisor) pump(r *run, pr *os.File) {
	buf := make([]byte, defaultChunkSize)
	for {
		n, err := pr.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			s.deliver(func() { s.onOutput(r, chunk) })
		}
		if err != nil {
			break
		}
	}
	pr.Close()

	waitErr := r.cmd.Wait()
	s.deliver(func() { s.onExit(r, waitErr) })
}

func (s *Supervisor) onOutput(r *run, chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != r {
		return
	}
	r.proc.Write(chunk)
	r.proc.Flush()
	s.record(r.sess.ID, EventOutput, string(chunk))
}

func (s *Supervisor) onTimeout(r *run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != r || r.sess.Status != StatusRunning {
		return
	}
	r.sess.Status = StatusTimedOut
	if err := killProcess(r.cmd); err != nil {
		s.logger.Error("failed to kill timed out session", "session", r.sess.ID, "error", err)
	}

	elapsed := time.Since(r.sess.StartedAt).Round(time.Millisecond)
	msg := fmt.Sprintf("eask: timed out after %s: %s", elapsed, r.sess.CommandLine)
	s.logger.Warn("session timed out", "session", r.sess.ID, "elapsed", elapsed, "line", r.sess.CommandLine)
	s.record(r.sess.ID, EventTimeout, msg)
	s.notify(r.sess.ID, slog.LevelWarn, msg)
}

func (s *Supervisor) onExit(r *run, waitErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(r.done)

	r.watchdog.Stop()

	code, signal := exitStatus(waitErr)
	r.sess.ExitCode = code
	r.sess.Signal = signal
	r.sess.EndedAt = time.Now().UTC()

	if r.sess.Status == StatusRunning {
		if signal != "" {
			r.sess.Status = StatusSignaled
		} else {
			r.sess.Status = StatusCompleted
		}
	}
	r.sess.Message = statusMessage(r.sess)

	s.record(r.sess.ID, EventExit, r.sess.Message)
	s.logger.Info("session ended", "session", r.sess.ID, "status", r.sess.Status, "code", code, "signal", signal)

	level := slog.LevelInfo
	if r.sess.Status != StatusCompleted || code != 0 {
		level = slog.LevelWarn
	}

	if s.active != r {
		// Stopped sessions already gave up the sink. A replaced one stays
		// quiet so its status does not cover the new session's.
		if s.active == nil {
			s.notify(r.sess.ID, level, r.sess.Message)
		}
		return
	}
	s.active = nil
	s.sink.Finish(r.sess.Message)
	s.notify(r.sess.ID, level, r.sess.Message)
}

// Stop kills the running session after confirm agrees. It reports whether
// a session was stopped; declining is not an error.
func (s *Supervisor) Stop(confirm Confirmer) (bool, error) {
	s.mu.Lock()
	r := s.active
	running := r != nil && r.sess.Status == StatusRunning
	s.mu.Unlock()

	if !running {
		return false, nil
	}
	if confirm != nil && !confirm(StopPrompt) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(r)
}

func (s *Supervisor) stopLocked(r *run) (bool, error) {
	if s.active != r || r.sess.Status != StatusRunning {
		return false, nil
	}
	r.sess.Status = StatusSignaled
	r.watchdog.Stop()
	s.active = nil
	s.sink.Teardown()

	s.record(r.sess.ID, EventStopped, r.sess.CommandLine)
	s.logger.Info("session stopped", "session", r.sess.ID)

	if err := killProcess(r.cmd); err != nil {
		return true, fmt.Errorf("kill session %s: %w", r.sess.ID, err)
	}
	return true, nil
}

// Running reports whether a session is running.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil && s.active.sess.Status == StatusRunning
}

// Current returns a snapshot of the active session.
func (s *Supervisor) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Session{}, false
	}
	return s.active.sess, true
}

// Last returns a snapshot of the most recently started session.
func (s *Supervisor) Last() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Session{}, false
	}
	return s.last.sess, true
}

// Wait blocks until the most recently started session has been reaped and
// returns its final snapshot.
func (s *Supervisor) Wait(ctx context.Context) (Session, error) {
	s.mu.Lock()
	r := s.last
	s.mu.Unlock()
	if r == nil {
		return Session{}, errors.New("no session started")
	}

	select {
	case <-r.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return r.sess, nil
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

// History returns the buffered events, oldest first.
func (s *Supervisor) History() []Event {
	return s.events.Events()
}

// Subscribe creates a channel that receives every future event. It also
// returns the buffered history and a subscription ID for Unsubscribe.
func (s *Supervisor) Subscribe() (string, <-chan Event, []Event) {
	subID := uuid.New().String()
	ch := make(chan Event, defaultSubscriberBufCap)

	// record appends to the event log under subMu, so the history and the
	// channel together see every event exactly once.
	s.subMu.Lock()
	history := s.events.Events()
	s.subscribers[subID] = ch
	s.subMu.Unlock()

	return subID, ch, history
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Supervisor) Unsubscribe(subID string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, exists := s.subscribers[subID]; exists {
		close(ch)
		delete(s.subscribers, subID)
	}
}

// Shutdown kills the running session without confirmation, waits briefly
// for it to be reaped and stops the internal dispatcher. Callbacks are moved
// back to the internal loop first, since an external control flow may
// already be gone.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	s.dispatch = s.enqueue
	if r := s.active; r != nil && r.sess.Status == StatusRunning {
		s.stopLocked(r)
	}
	r := s.last
	s.closed = true
	s.mu.Unlock()

	if r != nil {
		select {
		case <-r.done:
		case <-time.After(defaultShutdownTimeout):
			s.logger.Warn("session not reaped before shutdown")
		}
	}

	s.subMu.Lock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.subMu.Unlock()

	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
}

// record stores an event and fans it out to all subscribers.
func (s *Supervisor) record(sessionID string, typ EventType, data string) {
	event := Event{
		SessionID: sessionID,
		Type:      typ,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	s.events.Append(event)
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber channel full, drop the event.
		}
	}
}

func (s *Supervisor) notify(sessionID string, level slog.Level, msg string) {
	if s.opts.Notify != nil {
		s.opts.Notify(Notice{SessionID: sessionID, Level: level, Message: msg})
	}
}

func shellCommand(line string) *exec.Cmd {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/C", line)
	} else {
		cmd = exec.Command("sh", "-c", line)
	}
	configureProcAttr(cmd)
	return cmd
}

// exitStatus extracts the exit code and, for signal deaths, the signal name.
func exitStatus(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1, ""
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return exitErr.ExitCode(), ws.Signal().String()
	}
	return exitErr.ExitCode(), ""
}

func statusMessage(sess Session) string {
	switch sess.Status {
	case StatusTimedOut:
		return fmt.Sprintf("eask timed out after %s", sess.Elapsed().Round(time.Millisecond))
	case StatusSignaled:
		if sess.Signal != "" {
			return "eask killed by signal: " + sess.Signal
		}
		return "eask killed"
	default:
		if sess.ExitCode == 0 {
			return "eask finished"
		}
		return fmt.Sprintf("eask exited abnormally with code %d", sess.ExitCode)
	}
}
