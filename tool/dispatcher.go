package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elbchat/elbchat/core"
	"github.com/elbchat/elbchat/internal/util"
	"github.com/elbchat/elbchat/logging"
)

// State tracks a dispatch through its lifecycle:
// Requested -> Validating -> Executing -> Succeeded | Failed.
type State string

// Dispatch states.
const (
	StateRequested  State = "Requested"
	StateValidating State = "Validating"
	StateExecuting  State = "Executing"
	StateSucceeded  State = "Succeeded"
	StateFailed     State = "Failed"
)

// Result is the terminal outcome of one dispatch. Text always holds content
// fit for a tool-result message: the handler payload on success, a short
// user-facing fallback on failure. The orchestration loop treats both
// uniformly and continues the conversation.
type Result struct {
	State    State
	Text     string
	Err      *DispatchError // nil on success
	Duration time.Duration
}

// Succeeded reports whether the dispatch reached StateSucceeded.
func (r Result) Succeeded() bool { return r.State == StateSucceeded }

// DispatcherOptions configure a Dispatcher.
type DispatcherOptions struct {
	// Timeout bounds handler execution. Zero falls back to DefaultTimeout.
	Timeout time.Duration
	Logger  logging.Logger
}

// DefaultTimeout bounds a single tool handler invocation.
const DefaultTimeout = 15 * time.Second

// Dispatcher validates and executes model-issued tool calls against a
// registry. Handler errors, panics and timeouts are contained and converted
// into Failed results; nothing escapes the dispatcher as a crash.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	logger   logging.Logger
}

// NewDispatcher constructs a Dispatcher over the given registry.
func NewDispatcher(registry *Registry, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{Timeout: DefaultTimeout, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Dispatcher{registry: registry, timeout: opts.Timeout, logger: opts.Logger}
}

// Dispatch runs one tool call to a terminal state.
func (d *Dispatcher) Dispatch(ctx context.Context, call core.ToolCall) Result {
	start := time.Now()
	d.logger.Debug("tool.dispatch.start", "tool", call.Name, "call_id", call.ID)

	t, err := d.registry.Resolve(call.Name)
	if err != nil {
		return d.fail(call, start, FailUnknownTool, "not registered",
			fmt.Sprintf("Sorry, I don't have a tool named %q available.", call.Name))
	}

	// Validating
	if err := util.ValidateParameters(call.Arguments, t.Parameters()); err != nil {
		return d.fail(call, start, FailInvalidArguments, err.Error(),
			fmt.Sprintf("Sorry, I couldn't run %s: the arguments were invalid.", call.Name))
	}

	// Executing
	text, err := d.execute(ctx, t, call.Arguments)
	dur := time.Since(start)
	if err != nil {
		kind := FailExecution
		if errors.Is(err, context.DeadlineExceeded) {
			kind = FailTimeout
		}
		fallback := fmt.Sprintf("Sorry, the %s tool failed, please try again later.", call.Name)
		if kind == FailTimeout {
			fallback = fmt.Sprintf("Sorry, the %s tool took too long to respond.", call.Name)
		}
		return d.fail(call, start, kind, err.Error(), fallback)
	}

	logging.LogToolCall(d.logger, call.Name, dur, nil)
	return Result{State: StateSucceeded, Text: text, Duration: dur}
}

// execute runs the handler under the dispatch timeout with panic recovery.
// The handler goroutine is handed a cancellable context; if it ignores
// cancellation it is abandoned, not waited on.
func (d *Dispatcher) execute(ctx context.Context, t Tool, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		text, err := t.Call(ctx, args)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case out := <-done:
		return out.text, out.err
	}
}

func (d *Dispatcher) fail(call core.ToolCall, start time.Time, kind FailureKind, msg, fallback string) Result {
	err := &DispatchError{Tool: call.Name, Kind: kind, Message: msg}
	dur := time.Since(start)
	logging.LogToolCall(d.logger, call.Name, dur, err)
	return Result{State: StateFailed, Text: fallback, Err: err, Duration: dur}
}
