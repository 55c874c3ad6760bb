// Package trap runs code that may execute an instruction the CPU does not
// implement, and reports the illegal-instruction fault as an outcome instead
// of letting it terminate the harness.
//
// The Go runtime treats a synchronous SIGILL as fatal: no handler can resume
// the faulting goroutine. Trap therefore runs each guarded call in a
// re-executed copy of the current binary (the probe child). The child looks
// the op up in a Registry built from the same configuration, runs it once
// and reports the result on stdout. A child that dies on an illegal
// instruction is the escape back to the recovery point; the parent observes
// it and returns Outcome{Trapped: true}.
//
// The child dies at the first fault, so each call sees at most one fault and
// no handler state survives into the next call.
package trap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Outcome is the result of a guarded call.
type Outcome struct {
	// Trapped is set when the op executed an illegal instruction.
	Trapped bool

	// Value is the op's result. Zero when Trapped.
	Value float64
}

// Completed reports whether the op ran to completion.
func (o Outcome) Completed() bool {
	return !o.Trapped
}

func (o Outcome) String() string {
	if o.Trapped {
		return "trapped"
	}

	return fmt.Sprintf("completed(%g)", o.Value)
}

// Guard runs registered ops under the trap.
type Guard interface {
	Call(ctx context.Context, name string) (Outcome, error)
}

// mode is how Call executes an op.
type mode int

const (
	inProcess mode = iota
	isolated
)

// Trap is the process-wide trap state. Calls are serialised: there is one
// escape slot and it holds at most one op at a time.
type Trap struct {
	mu sync.Mutex

	reg    *Registry
	logger *log.Logger

	mode  mode
	prior mode // restored by Uninstall

	exe  string
	args []string

	// active names the op occupying the escape slot, empty between calls.
	active string
}

// Option configures a Trap.
type Option func(*Trap)

// WithLogger sets the logger for installation and child diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(t *Trap) {
		t.logger = l
	}
}

// WithArgs overrides the arguments passed to the probe child. By default the
// child receives the parent's own arguments so it rebuilds the same registry.
func WithArgs(args []string) Option {
	return func(t *Trap) {
		t.args = args
	}
}

// New returns a trap over reg. Until Install succeeds, Call runs ops
// in-process with no protection against illegal instructions.
func New(reg *Registry, opts ...Option) *Trap {
	t := &Trap{
		reg:    reg,
		logger: log.New(io.Discard, "", 0),
		mode:   inProcess,
		args:   os.Args[1:],
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Install arms the trap. It fails silently: when the running executable
// cannot be located, guarded calls keep running in-process and an illegal
// instruction will terminate the program.
func (t *Trap) Install() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode == isolated {
		return
	}

	exe, err := os.Executable()
	if err != nil {
		t.logger.Printf("fault trap unavailable, running probes unprotected: %v", err)
		return
	}

	t.prior = t.mode
	t.exe = exe
	t.mode = isolated
	t.logger.Printf("fault trap installed (probe child %s)", exe)
}

// Uninstall restores the mode that was in place before Install.
func (t *Trap) Uninstall() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = t.prior
}

// Installed reports whether guarded calls are isolated.
func (t *Trap) Installed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.mode == isolated
}

// activeOp returns the op currently occupying the escape slot.
func (t *Trap) activeOp() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.active
}

// scope is one guarded call. Only its outcome escapes.
type scope struct {
	t    *Trap
	name string
}

// enter takes the escape slot. The caller holds t.mu for the whole call.
func (t *Trap) enter(name string) *scope {
	t.active = name
	return &scope{t: t, name: name}
}

func (s *scope) exit() {
	s.t.active = ""
}

// Call runs the op registered under name. A trapped op is reported through
// the Outcome, not as an error; errors are reserved for ops that fail in
// other ways and for trap malfunctions.
func (t *Trap) Call(ctx context.Context, name string) (Outcome, error) {
	fn, ok := t.reg.Lookup(name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownOp, name)
	}

	if _, child := ChildOp(); child {
		return Outcome{}, fmt.Errorf("%w: %q", ErrNested, name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.enter(name)
	defer s.exit()

	if t.mode == isolated {
		return t.callIsolated(ctx, name)
	}

	return callInProcess(name, fn)
}

// callInProcess runs fn with no fault protection. Go panics are recovered and
// reported as errors; they are never mistaken for a trap.
func callInProcess(name string, fn Func) (out Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			out = Outcome{}
			err = fmt.Errorf("%w: %s: %v", ErrPanic, name, p)
		}
	}()

	v, err := fn()
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Value: v}, nil
}

// stderrExcerpt bounds how much child stderr ends up in an error message.
const stderrExcerpt = 512

func (t *Trap) callIsolated(ctx context.Context, name string) (Outcome, error) {
	cmd := exec.CommandContext(ctx, t.exe, t.args...)
	cmd.Env = append(os.Environ(), EnvOp+"="+name, "GOTRACEBACK=none")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && illegalInstruction(exitErr, stderr.Bytes()) {
			t.logger.Printf("%s: illegal instruction", name)
			return Outcome{Trapped: true}, nil
		}

		return Outcome{}, fmt.Errorf("%w: %s: %v: %s", ErrChildFailed, name, err, excerpt(stderr.String()))
	}

	var res result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v", ErrProtocol, name, err)
	}

	if res.Error != "" {
		return Outcome{}, fmt.Errorf("%w: %s: %s", ErrOpFailed, name, res.Error)
	}

	return Outcome{Value: res.value()}, nil
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrExcerpt {
		s = s[:stderrExcerpt] + "..."
	}

	return s
}
