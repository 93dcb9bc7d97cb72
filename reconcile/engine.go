package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/icingautil/icinga-reconcile/metrics"
)

// Sender performs one HTTPS exchange against the target API. Implemented
// by the icinga package; mocked in tests.
type Sender interface {
	Send(ctx context.Context, call Call) (*Response, error)
}

type Engine interface {
	Run(ctx context.Context, req Request) Outcome
}

type engine struct {
	api     Sender
	metrics *metrics.Metrics
	dryRun  bool
}

func NewEngine(api Sender, metrics *metrics.Metrics, dryRun bool) *engine {
	return &engine{
		api:     api,
		metrics: metrics,
		dryRun:  dryRun,
	}
}

// Run performs one reconciliation: build the call, send it, report the
// outcome. Strictly linear, no retries, no state kept between runs.
func (e *engine) Run(ctx context.Context, req Request) Outcome {
	start := time.Now()
	defer func() {
		e.metrics.SetReconcileDuration(time.Since(start))
	}()

	call, err := BuildCall(req)
	if err != nil {
		e.metrics.IncReconcileRun(false)
		return Outcome{Failed: true, Msg: err.Error()}
	}

	slog.Info("Reconciling object",
		"endpoint", req.Endpoint,
		"family", req.Family,
		"object", req.ObjectName,
		"state", req.State,
		"method", call.Method,
		"path", call.Path)

	if e.dryRun {
		slog.Info("Dry run mode - not sending request", "method", call.Method, "path", call.Path)
		e.metrics.IncReconcileRun(true)
		return Outcome{Changed: call.Mutating()}
	}

	resp, err := e.api.Send(ctx, call)
	if err != nil {
		slog.Error("Request failed", "method", call.Method, "path", call.Path, "error", err)
	}

	outcome := Report(call, resp, err)
	e.metrics.IncReconcileRun(!outcome.Failed)

	slog.Info("Reconciliation complete",
		"changed", outcome.Changed,
		"failed", outcome.Failed,
		"status", outcome.Status,
		"duration", time.Since(start))
	return outcome
}
