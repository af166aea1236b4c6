// Package command sequences structural edits of the diagram graph. Handlers
// are registered per command name; interceptors hook into the phases of
// every execution and revert. Commands executed from inside another command
// join its atomic operation: they are undone and redone together and rolled
// back together when any part fails.
package command

import (
	"errors"
	"log/slog"
	"slices"
	"sort"

	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// Handler applies and inverts one command.
type Handler interface {
	Execute(ctx *Context) ([]*diagram.Element, error)
	Revert(ctx *Context) ([]*diagram.Element, error)
}

// PreExecuter is implemented by handlers that issue nested commands before
// their own execution.
type PreExecuter interface {
	PreExecute(ctx *Context) error
}

// PostExecuter is implemented by handlers that issue nested commands after
// their own execution.
type PostExecuter interface {
	PostExecute(ctx *Context) error
}

// CanExecuter is implemented by handlers with their own precondition. It is
// only consulted when no guard decided.
type CanExecuter interface {
	CanExecute(ctx *Context) bool
}

// Phase names a point in a command's lifecycle.
type Phase string

const (
	PhasePreExecute   Phase = "preExecute"
	PhasePreExecuted  Phase = "preExecuted"
	PhaseExecute      Phase = "execute"
	PhaseExecuted     Phase = "executed"
	PhasePostExecute  Phase = "postExecute"
	PhasePostExecuted Phase = "postExecuted"
	PhaseRevert       Phase = "revert"
	PhaseReverted     Phase = "reverted"
)

// DefaultPriority is the priority of interceptors registered without one.
const DefaultPriority = 1000

// Event is passed to interceptors and guards.
type Event struct {
	Command string
	Context *Context
	Stack   *Stack
}

// Interceptor reacts to a phase of a command. A returned error aborts the
// running operation.
type Interceptor func(ev *Event) error

// Verdict is a guard's answer.
type Verdict int

const (
	Abstain Verdict = iota
	Allow
	Deny
)

// Guard decides whether a command may execute.
type Guard func(ev *Event) Verdict

// Trigger tells change listeners what produced a change.
type Trigger string

const (
	TriggerExecute Trigger = "execute"
	TriggerUndo    Trigger = "undo"
	TriggerRedo    Trigger = "redo"
	TriggerClear   Trigger = "clear"
)

// Change is delivered to listeners after each completed operation.
type Change struct {
	Trigger  Trigger
	Command  string
	Elements []*diagram.Element
}

// ChangeListener observes completed operations.
type ChangeListener func(Change)

type registration struct {
	commands map[string]bool
	priority int
	seq      int
	fn       Interceptor
}

type guardRegistration struct {
	commands map[string]bool
	priority int
	seq      int
	fn       Guard
}

type action struct {
	command string
	ctx     *Context
	id      int
}

type execution struct {
	trigger Trigger
	command string
	id      int
	dirty   []*diagram.Element
}

// Stack is the command stack. It is not safe for concurrent use; the owner
// serializes access.
type Stack struct {
	handlers     map[string]Handler
	interceptors map[Phase][]registration
	guards       []guardRegistration
	listeners    []ChangeListener

	actions []*action
	done    int
	nextID  int
	seq     int
	current *execution

	logger *slog.Logger
}

// NewStack creates an empty command stack.
func NewStack(logger *slog.Logger) *Stack {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stack{
		handlers:     make(map[string]Handler),
		interceptors: make(map[Phase][]registration),
		logger:       logger,
	}
}

// Register binds a handler to a command name.
func (s *Stack) Register(command string, h Handler) error {
	if _, ok := s.handlers[command]; ok {
		return schema.NewErrorf(schema.ErrCodeConflict, "handler for %s already registered", command)
	}
	s.handlers[command] = h
	return nil
}

// Handler returns the handler registered for command.
func (s *Stack) Handler(command string) (Handler, bool) {
	h, ok := s.handlers[command]
	return h, ok
}

// On registers fn for phase on the given commands; no commands means all.
// Higher priorities run first, equal priorities in registration order.
func (s *Stack) On(phase Phase, commands []string, priority int, fn Interceptor) {
	s.seq++
	s.interceptors[phase] = append(s.interceptors[phase], registration{
		commands: commandSet(commands),
		priority: priority,
		seq:      s.seq,
		fn:       fn,
	})
	regs := s.interceptors[phase]
	sort.SliceStable(regs, func(i, j int) bool { return regs[i].priority > regs[j].priority })
}

// Guard registers a precondition for the given commands.
func (s *Stack) Guard(commands []string, priority int, fn Guard) {
	s.seq++
	s.guards = append(s.guards, guardRegistration{
		commands: commandSet(commands),
		priority: priority,
		seq:      s.seq,
		fn:       fn,
	})
	sort.SliceStable(s.guards, func(i, j int) bool { return s.guards[i].priority > s.guards[j].priority })
}

// OnChange registers a listener for completed operations.
func (s *Stack) OnChange(fn ChangeListener) {
	s.listeners = append(s.listeners, fn)
}

func commandSet(commands []string) map[string]bool {
	if len(commands) == 0 {
		return nil
	}
	m := make(map[string]bool, len(commands))
	for _, c := range commands {
		m[c] = true
	}
	return m
}

func matches(set map[string]bool, command string) bool {
	return set == nil || set[command]
}

// CanExecute asks the guards, then the handler, whether command may run.
func (s *Stack) CanExecute(command string, ctx *Context) bool {
	h, ok := s.handlers[command]
	if !ok {
		return false
	}
	ev := &Event{Command: command, Context: ctx, Stack: s}
	for _, g := range s.guards {
		if !matches(g.commands, command) {
			continue
		}
		switch g.fn(ev) {
		case Allow:
			return true
		case Deny:
			return false
		}
	}
	if ce, ok := h.(CanExecuter); ok {
		return ce.CanExecute(ctx)
	}
	return true
}

// Execute runs command. Called from an interceptor or a handler hook, the
// command joins the running operation.
func (s *Stack) Execute(command string, ctx *Context) error {
	if ctx == nil {
		ctx = NewContext()
	}
	if _, ok := s.handlers[command]; !ok {
		return schema.NewErrorf(schema.ErrCodeUnknownCommand, "no handler for command %s", command)
	}
	if !s.CanExecute(command, ctx) {
		err := schema.NewErrorf(schema.ErrCodeRuleRejected, "command %s rejected", command)
		if el := ctx.Element(); el != nil {
			err = err.WithElement(el.ID)
		}
		return err
	}

	if s.current != nil {
		return s.internalExecute(&action{command: command, ctx: ctx, id: s.current.id}, false)
	}

	if s.done < len(s.actions) {
		s.actions = s.actions[:s.done]
	}
	s.nextID++
	exec := &execution{trigger: TriggerExecute, command: command, id: s.nextID}
	s.current = exec
	startIndex := s.done

	err := s.internalExecute(&action{command: command, ctx: ctx, id: exec.id}, false)
	s.current = nil
	if err != nil {
		s.rollback(startIndex)
		s.logger.Debug("command rolled back", "command", command, "error", err)
		return err
	}
	s.logger.Debug("command executed", "command", command, "actions", s.done-startIndex)
	s.notify(exec)
	return nil
}

func (s *Stack) internalExecute(a *action, redo bool) error {
	h := s.handlers[a.command]
	if !redo {
		if err := s.fire(PhasePreExecute, a); err != nil {
			return err
		}
		if pre, ok := h.(PreExecuter); ok {
			if err := pre.PreExecute(a.ctx); err != nil {
				return err
			}
		}
		if err := s.fire(PhasePreExecuted, a); err != nil {
			return err
		}
	}

	if err := s.fire(PhaseExecute, a); err != nil {
		return err
	}
	elements, err := h.Execute(a.ctx)
	if err != nil {
		return err
	}
	s.markDirty(elements)
	if !redo {
		s.actions = append(s.actions[:s.done], a)
	}
	s.done++
	if err := s.fire(PhaseExecuted, a); err != nil {
		return err
	}

	if !redo {
		if err := s.fire(PhasePostExecute, a); err != nil {
			return err
		}
		if post, ok := h.(PostExecuter); ok {
			if err := post.PostExecute(a.ctx); err != nil {
				return err
			}
		}
		if err := s.fire(PhasePostExecuted, a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stack) internalUndo(a *action) error {
	h := s.handlers[a.command]
	if err := s.fire(PhaseRevert, a); err != nil {
		return err
	}
	elements, err := h.Revert(a.ctx)
	if err != nil {
		return err
	}
	s.markDirty(elements)
	return s.fire(PhaseReverted, a)
}

// rollback reverts every action applied since startIndex and drops them.
func (s *Stack) rollback(startIndex int) {
	s.current = &execution{trigger: TriggerUndo}
	var errs []error
	for s.done > startIndex {
		a := s.actions[s.done-1]
		if err := s.internalUndo(a); err != nil {
			errs = append(errs, err)
		}
		s.done--
	}
	s.actions = s.actions[:startIndex]
	s.current = nil
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("rollback incomplete", "error", err)
	}
}

func (s *Stack) fire(phase Phase, a *action) error {
	regs := s.interceptors[phase]
	if len(regs) == 0 {
		return nil
	}
	ev := &Event{Command: a.command, Context: a.ctx, Stack: s}
	for _, r := range regs {
		if !matches(r.commands, a.command) {
			continue
		}
		if err := r.fn(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stack) markDirty(elements []*diagram.Element) {
	if s.current == nil {
		return
	}
	for _, e := range elements {
		if e != nil && !slices.Contains(s.current.dirty, e) {
			s.current.dirty = append(s.current.dirty, e)
		}
	}
}

func (s *Stack) notify(exec *execution) {
	ch := Change{Trigger: exec.trigger, Command: exec.command, Elements: exec.dirty}
	for _, l := range s.listeners {
		l(ch)
	}
}

// CanUndo reports whether there is an operation to undo.
func (s *Stack) CanUndo() bool {
	return s.current == nil && s.done > 0
}

// CanRedo reports whether there is an operation to redo.
func (s *Stack) CanRedo() bool {
	return s.current == nil && s.done < len(s.actions)
}

// Undo reverts the last operation. It reports false when there was nothing
// to undo.
func (s *Stack) Undo() (bool, error) {
	if s.current != nil {
		return false, schema.NewError(schema.ErrCodeConflict, "cannot undo while a command is executing")
	}
	if s.done == 0 {
		return false, nil
	}
	id := s.actions[s.done-1].id
	exec := &execution{trigger: TriggerUndo, command: s.actions[s.done-1].command}
	s.current = exec
	defer func() { s.current = nil }()
	for s.done > 0 && s.actions[s.done-1].id == id {
		a := s.actions[s.done-1]
		exec.command = a.command
		if err := s.internalUndo(a); err != nil {
			return false, err
		}
		s.done--
	}
	s.current = nil
	s.logger.Debug("command undone", "command", exec.command)
	s.notify(exec)
	return true, nil
}

// Redo re-applies the last undone operation. It reports false when there
// was nothing to redo.
func (s *Stack) Redo() (bool, error) {
	if s.current != nil {
		return false, schema.NewError(schema.ErrCodeConflict, "cannot redo while a command is executing")
	}
	if s.done >= len(s.actions) {
		return false, nil
	}
	id := s.actions[s.done].id
	exec := &execution{trigger: TriggerRedo, command: s.actions[s.done].command}
	s.current = exec
	defer func() { s.current = nil }()
	for s.done < len(s.actions) && s.actions[s.done].id == id {
		if err := s.internalExecute(s.actions[s.done], true); err != nil {
			return false, err
		}
	}
	s.current = nil
	s.logger.Debug("command redone", "command", exec.command)
	s.notify(exec)
	return true, nil
}

// Clear drops the history.
func (s *Stack) Clear() {
	s.actions = nil
	s.done = 0
	s.current = nil
	for _, l := range s.listeners {
		l(Change{Trigger: TriggerClear})
	}
}

// Executing reports whether an operation is in progress.
func (s *Stack) Executing() bool {
	return s.current != nil
}

// Len returns the number of applied actions.
func (s *Stack) Len() int {
	return s.done
}
