package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotImplemented is returned by the fallback handler for ids that
	// have no registered handler.
	ErrNotImplemented = errors.New("not implemented yet")

	// ErrInvalidHandler is returned by Register for malformed registrations.
	ErrInvalidHandler = errors.New("invalid handler registration")
)

// ActionKind tells the caller what to do with a resolved selection.
type ActionKind int

const (
	// ActionRun starts a session with Action.CommandLine.
	ActionRun ActionKind = iota
	// ActionMenu opens a nested help menu described by Action.HelpLine.
	ActionMenu
)

func (k ActionKind) String() string {
	switch k {
	case ActionRun:
		return "run"
	case ActionMenu:
		return "menu"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Request carries a menu selection to its handler.
type Request struct {
	// Path is the selected id path, e.g. ["lint", "package"].
	Path []string
	// Args are the positional arguments gathered for a leaf command.
	Args []*string
	// Executable is the Eask binary name or path.
	Executable string
	// Extra are the global flags appended to every command line.
	Extra []string
}

// ID returns the registry key of the request path.
func (r Request) ID() string {
	return strings.Join(r.Path, " ")
}

// Action is the outcome of a handler.
type Action struct {
	Kind        ActionKind
	CommandLine string
	HelpLine    string
	// TokenIndex is the 1-based position of the subcommand name in the
	// nested help listing.
	TokenIndex int
	// Prompt is the hint shown when collecting arguments for a leaf.
	Prompt string
}

// Handler resolves a selection into an Action.
type Handler func(req Request) (Action, error)

// Registry maps subcommand ids to statically registered handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]entry
}

type entry struct {
	handler Handler
	prompt  string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]entry)}
}

// Register binds id to h. The id is a space separated subcommand path.
func (r *Registry) Register(id string, h Handler) error {
	return r.register(id, h, "")
}

func (r *Registry) register(id string, h Handler, prompt string) error {
	key := normalizeID(id)
	if key == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidHandler)
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrInvalidHandler, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("%w: %q already registered", ErrInvalidHandler, key)
	}
	r.handlers[key] = entry{handler: h, prompt: prompt}
	return nil
}

// RegisterLeaf registers a command that runs directly, collecting optional
// positional arguments described by prompt.
func (r *Registry) RegisterLeaf(id, prompt string) error {
	return r.register(id, Leaf(prompt), prompt)
}

// RegisterGroup registers a command whose subcommands are listed by its
// own help output.
func (r *Registry) RegisterGroup(id string) error {
	return r.register(id, Group(), "")
}

// Lookup returns the handler for id, or the not-implemented fallback.
func (r *Registry) Lookup(id string) Handler {
	r.mu.RLock()
	e, ok := r.handlers[normalizeID(id)]
	r.mu.RUnlock()
	if !ok {
		return notImplemented
	}
	return e.handler
}

// Has reports whether id has a registered handler.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[normalizeID(id)]
	return ok
}

// Prompt returns the argument hint registered for a leaf id.
func (r *Registry) Prompt(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[normalizeID(id)].prompt
}

// IDs returns the registered ids in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve looks up the handler for req and runs it.
func (r *Registry) Resolve(req Request) (Action, error) {
	return r.Lookup(req.ID())(req)
}

// Leaf returns a handler that formats "<exe> <path...> <args...> <extra...>".
func Leaf(prompt string) Handler {
	return func(req Request) (Action, error) {
		return Action{
			Kind:        ActionRun,
			CommandLine: Format(verbLine(req), req.Args, req.Extra),
			Prompt:      prompt,
		}, nil
	}
}

// Group returns a handler that opens the nested help menu of the path.
func Group() Handler {
	return func(req Request) (Action, error) {
		return Action{
			Kind:       ActionMenu,
			HelpLine:   HelpLine(req.Executable, req.Path...),
			TokenIndex: len(req.Path) + 1,
		}, nil
	}
}

// HelpLine returns the help invocation for a subcommand path.
func HelpLine(executable string, path ...string) string {
	return Format(strings.Join(append([]string{executable}, path...), " "), nil, []string{"--help"})
}

func notImplemented(req Request) (Action, error) {
	return Action{}, fmt.Errorf("%s: %w", req.ID(), ErrNotImplemented)
}

func verbLine(req Request) string {
	return strings.Join(append([]string{req.Executable}, req.Path...), " ")
}

func normalizeID(id string) string {
	return strings.Join(strings.Fields(id), " ")
}
