package release

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"release-radar/internal/observability/metrics"
)

// Scanner runs a single scan. *Service implements it.
type Scanner interface {
	Scan(ctx context.Context, req ScanRequest) (*ScanStats, error)
}

// Runner allows at most one in-flight scan per recipient.
type Runner struct {
	scanner Scanner
	timeout time.Duration

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu     sync.Mutex
	runs   map[string]*activeRun
	states map[string]RunState
	closed bool
	wg     sync.WaitGroup
}

type activeRun struct {
	cancel context.CancelFunc
	stop   func() bool
}

// NewRunner creates a runner. timeout bounds each run; zero means no limit.
func NewRunner(scanner Scanner, timeout time.Duration) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		scanner:    scanner,
		timeout:    timeout,
		baseCtx:    ctx,
		baseCancel: cancel,
		runs:       make(map[string]*activeRun),
		states:     make(map[string]RunState),
	}
}

// Start launches a scan in the background. It returns ErrRunInProgress if
// the recipient already has one running.
func (r *Runner) Start(req ScanRequest) error {
	ctx, run, err := r.begin(r.baseCtx, req)
	if err != nil {
		return err
	}

	go func() {
		defer r.wg.Done()
		stats, err := r.run(ctx, run, req)
		logScanResult(req, stats, err)
	}()
	return nil
}

// RunOnce runs a scan synchronously under the same exclusivity as Start.
func (r *Runner) RunOnce(ctx context.Context, req ScanRequest) (*ScanStats, error) {
	ctx, run, err := r.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	defer r.wg.Done()
	return r.run(ctx, run, req)
}

// Cancel stops the recipient's in-flight scan. It reports whether one was running.
func (r *Runner) Cancel(chatID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[chatID]
	if !ok {
		return false
	}
	run.cancel()
	return true
}

// State returns the recipient's current or last run state.
func (r *Runner) State(chatID string) RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[chatID]
}

// Running reports whether the recipient has a scan in flight.
func (r *Runner) Running(chatID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.runs[chatID]
	return ok
}

// Shutdown cancels every run and waits for them to return or ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.baseCancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin registers a run for the recipient and derives its context, which is
// also cancelled by Shutdown.
func (r *Runner) begin(parent context.Context, req ScanRequest) (context.Context, *activeRun, error) {
	chatID := req.Recipient.ChatID

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, nil, ErrRunnerClosed
	}
	if _, ok := r.runs[chatID]; ok {
		return nil, nil, ErrRunInProgress
	}

	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(r.baseCtx, cancel)
	if r.timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, r.timeout)
		parentCancel := cancel
		cancel = func() {
			timeoutCancel()
			parentCancel()
		}
	}

	run := &activeRun{cancel: cancel, stop: stop}
	r.runs[chatID] = run
	r.wg.Add(1)
	r.setState(chatID, StateIdle)
	return ctx, run, nil
}

func (r *Runner) run(ctx context.Context, run *activeRun, req ScanRequest) (*ScanStats, error) {
	chatID := req.Recipient.ChatID
	userProgress := req.Progress
	req.Progress = func(s RunState) {
		r.mu.Lock()
		r.setState(chatID, s)
		r.mu.Unlock()
		if userProgress != nil {
			userProgress(s)
		}
	}

	defer func() {
		run.stop()
		run.cancel()
		r.mu.Lock()
		if r.runs[chatID] == run {
			delete(r.runs, chatID)
		}
		r.setState(chatID, StateDone)
		r.mu.Unlock()
	}()

	return r.scanner.Scan(ctx, req)
}

// setState must be called with r.mu held.
func (r *Runner) setState(chatID string, s RunState) {
	r.states[chatID] = s
	metrics.SetScanState(chatID, int(s))
}

func logScanResult(req ScanRequest, stats *ScanStats, err error) {
	attrs := []any{
		slog.String("chat_id", req.Recipient.ChatID),
		slog.String("trigger", req.Trigger),
	}
	if stats != nil {
		attrs = append(attrs,
			slog.String("run_id", stats.RunID),
			slog.Int64("delivered", stats.Delivered),
			slog.Bool("cancelled", stats.Cancelled))
	}
	switch {
	case err == nil:
		slog.Info("background scan finished", attrs...)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		slog.Info("background scan stopped", append(attrs, slog.Any("reason", err))...)
	default:
		slog.Error("background scan failed", append(attrs, slog.Any("error", err))...)
	}
}
