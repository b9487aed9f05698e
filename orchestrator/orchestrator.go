package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/elbchat/elbchat/core"
	"github.com/elbchat/elbchat/internal/metrics"
	"github.com/elbchat/elbchat/logging"
	"github.com/elbchat/elbchat/model"
	"github.com/elbchat/elbchat/retrieval"
	"github.com/elbchat/elbchat/session"
	"github.com/elbchat/elbchat/tool"
)

// Defaults for the turn loop.
const (
	DefaultMaxToolIterations = 5
	DefaultModelTimeout      = 60 * time.Second
)

// Options configure an Orchestrator.
type Options struct {
	// MaxToolIterations bounds how many tool rounds one turn may run before
	// the model is forced to answer. Zero falls back to the default.
	MaxToolIterations int
	// ModelTimeout bounds each individual model call.
	ModelTimeout time.Duration
	// SystemPrompt overrides the built-in persona prompt.
	SystemPrompt string
	Logger       logging.Logger
	Metrics      *metrics.Metrics
}

// Orchestrator runs conversation turns against one model, one session store
// and one tool registry. Safe for concurrent use; turns for the same session
// serialize on the session's turn lock, turns for different sessions run in
// parallel.
type Orchestrator struct {
	mdl        model.Model
	sessions   *session.Store
	registry   *tool.Registry
	dispatcher *tool.Dispatcher
	engine     *retrieval.Engine

	maxIterations int
	modelTimeout  time.Duration
	systemPrompt  string
	logger        logging.Logger
	metrics       *metrics.Metrics
}

// New constructs an Orchestrator. The retrieval engine is optional; without
// one, completed turns are not indexed into conversation history.
func New(mdl model.Model, sessions *session.Store, registry *tool.Registry,
	dispatcher *tool.Dispatcher, engine *retrieval.Engine, optFns ...func(o *Options)) *Orchestrator {

	opts := Options{
		MaxToolIterations: DefaultMaxToolIterations,
		ModelTimeout:      DefaultModelTimeout,
		SystemPrompt:      SystemPrompt,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxToolIterations <= 0 {
		opts.MaxToolIterations = DefaultMaxToolIterations
	}
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = DefaultModelTimeout
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = SystemPrompt
	}
	return &Orchestrator{
		mdl:           mdl,
		sessions:      sessions,
		registry:      registry,
		dispatcher:    dispatcher,
		engine:        engine,
		maxIterations: opts.MaxToolIterations,
		modelTimeout:  opts.ModelTimeout,
		systemPrompt:  opts.SystemPrompt,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}
}

// RunTurn executes one complete turn and returns the final assistant text.
// On any error nothing is committed to the session's memory.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID, userText string) (string, error) {
	return o.run(ctx, sessionID, userText, nil)
}

// StreamTurn executes one turn, forwarding text fragments through onToken.
// Only fragments from the answering model call are forwarded; any text a
// tool-call round produces stays out of the stream, so the concatenation of
// the forwarded fragments always equals the returned final text. Cancelling
// ctx aborts the model call and commits nothing.
func (o *Orchestrator) StreamTurn(ctx context.Context, sessionID, userText string, onToken func(string)) (string, error) {
	if onToken == nil {
		onToken = func(string) {}
	}
	return o.run(ctx, sessionID, userText, onToken)
}

// ClearSession drops the session's memory. Unknown identifiers are a no-op.
func (o *Orchestrator) ClearSession(sessionID string) {
	o.sessions.Clear(sessionID)
	o.metrics.SetActiveSessions(o.sessions.Len())
}

func (o *Orchestrator) run(ctx context.Context, sessionID, userText string, onToken func(string)) (reply string, err error) {
	start := time.Now()
	defer func() { o.metrics.ObserveTurn(time.Since(start), err) }()

	sess := o.sessions.GetOrCreate(sessionID)
	o.metrics.SetActiveSessions(o.sessions.Len())
	sess.TurnLock()
	defer sess.TurnUnlock()

	userMsg := core.NewUserMessage(userText)
	messages := append(sess.Window.Snapshot(), userMsg)
	tools := o.toolDefinitions()

	var final model.Response
	for iteration := 0; ; iteration++ {
		req := model.Request{
			System:   o.systemPrompt,
			Messages: messages,
			Tools:    tools,
			Stream:   onToken != nil,
			Metadata: map[string]string{"session_id": sessionID},
		}
		if iteration >= o.maxIterations {
			// Tool budget spent: force a plain-text answer.
			o.logger.Warn("turn.tool_budget_exhausted", "session_id", sessionID, "iterations", iteration)
			req.Tools = nil
		}

		final, err = o.generate(ctx, req, onToken)
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}
		if len(final.ToolCalls) == 0 || iteration >= o.maxIterations {
			break
		}

		messages = append(messages, core.NewToolCallMessage(final.Text, final.ToolCalls))
		for _, call := range final.ToolCalls {
			result := o.dispatcher.Dispatch(ctx, call)
			o.metrics.CountToolDispatch(call.Name, string(result.State))
			messages = append(messages, core.NewToolResultMessage(call.ID, call.Name, result.Text))
		}
	}

	reply = final.Text
	sess.Window.Append(userMsg)
	sess.Window.Append(core.NewAssistantMessage(reply))
	sess.Touch()

	o.indexTurnAsync(sessionID, userText, reply)
	o.logger.Info("turn.completed",
		"session_id", sessionID, "duration_ms", time.Since(start).Milliseconds())
	return reply, nil
}

// generate runs one model call under the model timeout and drains its
// channels. Partial responses are buffered and replayed through onToken in
// generation order only when the call finishes without tool calls; fragments
// from a tool-call round are discarded so the forwarded tokens always
// concatenate to the final assistant text. An error from the model, including
// cancellation, aborts the call.
func (o *Orchestrator) generate(ctx context.Context, req model.Request, onToken func(string)) (model.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, o.modelTimeout)
	defer cancel()

	start := time.Now()
	respCh, errCh := o.mdl.Generate(ctx, req)

	var final model.Response
	var fragments []string
	haveFinal := false
	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				if onToken != nil {
					fragments = append(fragments, resp.Text)
				}
				continue
			}
			final = resp
			haveFinal = true
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return model.Response{}, err
			}
		}
	}
	logging.LogModelCall(o.logger, o.mdl.Info().Name, time.Since(start), nil)
	o.metrics.ObserveModelCall(time.Since(start))
	if !haveFinal {
		return model.Response{}, fmt.Errorf("model closed stream without a final response")
	}
	if onToken != nil && len(final.ToolCalls) == 0 {
		for _, frag := range fragments {
			onToken(frag)
		}
	}
	return final, nil
}

func (o *Orchestrator) toolDefinitions() []model.ToolDefinition {
	listed := o.registry.List()
	if len(listed) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(listed))
	for _, t := range listed {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// indexTurnAsync feeds the completed exchange to the history index in the
// background. Indexing failures are logged and never affect the turn.
func (o *Orchestrator) indexTurnAsync(sessionID, userText, reply string) {
	if o.engine == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := o.engine.IndexTurn(ctx, sessionID, userText, reply); err != nil {
			o.logger.Warn("turn.index_failed", "session_id", sessionID, "error", err)
		}
	}()
}
