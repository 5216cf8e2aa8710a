package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mediaiq/miq/internal/config"
)

// ErrInvalidInput is returned by Runtime.Run when the agent's precondition
// check rejects the input. The invocation is not counted as a processed task.
var ErrInvalidInput = errors.New("invalid input")

// Runtime enforces the dual-mode contract around each agent invocation:
// validation, mode selection, production→demo fallback, panic containment,
// and timing. It never panics and never returns a nil result for a valid
// input.
type Runtime struct {
	settings *config.Settings
	tracer   trace.Tracer
}

// NewRuntime creates the shared invocation wrapper.
func NewRuntime(settings *config.Settings) *Runtime {
	return &Runtime{
		settings: settings,
		tracer:   otel.Tracer("github.com/mediaiq/miq/internal/agent"),
	}
}

// Run executes one agent invocation and returns the normalized envelope and
// its duration. The only non-nil error is ErrInvalidInput.
func (rt *Runtime) Run(ctx context.Context, a Agent, input any) (*Result, time.Duration, error) {
	ctx, span := rt.tracer.Start(ctx, "agent.invoke",
		trace.WithAttributes(attribute.String("agent.key", a.Key())))
	defer span.End()

	if !a.Validate(input) {
		span.SetAttributes(attribute.Bool("agent.invalid_input", true))
		return Failure(a.Name(), "Invalid input", ModeDemo), 0, ErrInvalidInput
	}

	start := time.Now()
	mode := rt.selectMode(a)
	span.SetAttributes(attribute.String("agent.mode", string(mode)))

	var (
		data map[string]any
		err  error
	)
	if mode == ModeProduction {
		data, err = rt.callBranch(ctx, a, ModeProduction, input)
		if err != nil {
			var perm *PermanentError
			if errors.As(err, &perm) {
				dur := time.Since(start)
				return Failure(a.Name(), perm.Error(), ModeProduction), dur, nil
			}
			reason := "production_fallback"
			if errors.Is(err, ErrProductionNotReady) {
				reason = "production_not_ready"
			}
			slog.Warn(reason, "agent", a.Key(), "error", err)
			mode = ModeDemo
			data, err = rt.callBranch(ctx, a, ModeDemo, input)
		}
	} else {
		data, err = rt.callBranch(ctx, a, ModeDemo, input)
	}

	dur := time.Since(start)
	if err != nil {
		span.SetAttributes(attribute.String("agent.error", err.Error()))
		return Failure(a.Name(), err.Error(), mode), dur, nil
	}

	return &Result{
		Success:   true,
		Agent:     a.Name(),
		Timestamp: time.Now().UTC(),
		Data:      data,
		Mode:      mode,
		Metadata:  map[string]any{"duration_ms": dur.Milliseconds()},
	}, dur, nil
}

// selectMode picks production only when the master switch is on and every
// required integration has credentials. Otherwise the run is demo, with the
// missing keys logged once per invocation at debug level.
func (rt *Runtime) selectMode(a Agent) Mode {
	if !rt.settings.ProductionMode {
		return ModeDemo
	}
	if missing := rt.settings.MissingIntegrations(a.RequiredIntegrations()); len(missing) > 0 {
		slog.Debug("production_not_ready", "agent", a.Key(), "missing", missing)
		return ModeDemo
	}
	return ModeProduction
}

// callBranch invokes one branch with panic containment. A panic inside an
// agent becomes an ordinary error on the envelope; it must not kill the
// task-worker.
func (rt *Runtime) callBranch(ctx context.Context, a Agent, mode Mode, input any) (data map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent %s panicked: %v", a.Key(), r)
			slog.Error("agent panic recovered", "agent", a.Key(), "mode", mode, "panic", r)
		}
	}()
	if mode == ModeProduction {
		return a.ProductionProcess(ctx, input)
	}
	return a.DemoProcess(ctx, input)
}
