// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/config"
	"github.com/jeranaias/slashcmd/internal/output"
	"github.com/jeranaias/slashcmd/internal/snapshots"
)

// =============================================================================
// RUNNER OPTIONS
// =============================================================================

// Options configures a Runner.
type Options struct {
	// MaxConcurrent is the number of invocations allowed to run at once
	MaxConcurrent int

	// Timeout bounds each invocation (0 = no timeout)
	Timeout time.Duration

	// RatePerSecond limits invocation starts (0 = unlimited)
	RatePerSecond float64

	// Burst is the rate limiter burst size
	Burst int

	// HistorySize is the number of finished invocations kept
	HistorySize int

	// Cache receives completed outputs. May be nil.
	Cache *snapshots.Cache

	Logger zerolog.Logger
}

// OptionsFromConfig maps the runner section of the configuration.
func OptionsFromConfig(cfg config.RunnerConfig) Options {
	return Options{
		MaxConcurrent: cfg.MaxConcurrent,
		Timeout:       cfg.Timeout(),
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
		HistorySize:   100,
		Logger:        zerolog.Nop(),
	}
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes command invocations with bounded concurrency, a
// per-invocation timeout and a start rate limit.
type Runner struct {
	semaphore chan struct{}
	timeout   time.Duration
	limiter   *rate.Limiter
	cache     *snapshots.Cache
	history   *History
	log       zerolog.Logger

	wg      sync.WaitGroup
	stopped atomic.Bool
}

// NewRunner creates a runner. MaxConcurrent defaults to 4.
func NewRunner(opts Options) *Runner {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = opts.MaxConcurrent
	}
	return &Runner{
		semaphore: make(chan struct{}, opts.MaxConcurrent),
		timeout:   opts.Timeout,
		limiter:   rate.NewLimiter(limit, burst),
		cache:     opts.Cache,
		history:   NewHistory(opts.HistorySize),
		log:       opts.Logger,
	}
}

// History returns the runner's invocation history.
func (r *Runner) History() *History {
	return r.history
}

// Stop refuses new invocations and waits for running ones to finish.
func (r *Runner) Stop() {
	r.stopped.Store(true)
	r.wg.Wait()
}

// Start begins an invocation and returns its event stream. The stream
// must be drained or closed; until then it holds a concurrency slot.
//
// Reaching EOF marks the invocation Completed and stores the output in the
// cache. A stream error marks it Failed. Closing early, cancelling ctx or
// hitting the timeout marks it Cancelled.
func (r *Runner) Start(ctx context.Context, cmd commands.Command, line string, req commands.RunRequest) (*Invocation, output.EventStream, error) {
	if r.stopped.Load() {
		return nil, nil, ErrRunnerStopped
	}

	inv := NewInvocation(cmd.Name(), line, req.Arguments)
	r.history.Add(inv)

	if err := r.acquire(ctx); err != nil {
		_ = inv.finish(StatusCancelled, err)
		return inv, nil, err
	}
	r.wg.Add(1)

	var runCtx context.Context
	var cancel context.CancelFunc
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeoutCause(ctx, r.timeout, ErrTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	_ = inv.SetStatus(StatusRunning)
	r.log.Debug().Str("id", inv.ID).Str("command", inv.Command).Strs("args", inv.Args).Msg("invocation started")

	stream, err := commands.Invoke(runCtx, cmd, req)
	if err != nil {
		cancel()
		r.release()
		_ = inv.finish(StatusFailed, err)
		r.log.Warn().Str("id", inv.ID).Str("command", inv.Command).Err(err).Msg("invocation failed to start")
		return inv, nil, err
	}

	return inv, &trackedStream{
		runner: r,
		inv:    inv,
		inner:  stream,
		runCtx: runCtx,
		cancel: cancel,
	}, nil
}

// Run starts an invocation and drains it into an Output.
func (r *Runner) Run(ctx context.Context, cmd commands.Command, line string, req commands.RunRequest) (*Invocation, output.Output, error) {
	inv, stream, err := r.Start(ctx, cmd, line, req)
	if err != nil {
		return inv, output.Output{}, err
	}
	out, err := output.FromEventStream(ctx, stream)
	return inv, out, err
}

// Job is one entry of a RunAll batch.
type Job struct {
	Command commands.Command
	Line    string
	Request commands.RunRequest
}

// Result is the outcome of one Job.
type Result struct {
	Invocation *Invocation
	Output     output.Output
	Err        error
}

// RunAll runs jobs concurrently. The first failure cancels the remaining
// jobs and is returned; results are indexed like jobs.
func (r *Runner) RunAll(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cap(r.semaphore))

	for i, job := range jobs {
		g.Go(func() error {
			inv, out, err := r.Run(gctx, job.Command, job.Line, job.Request)
			results[i] = Result{Invocation: inv, Output: out, Err: err}
			if err != nil {
				return fmt.Errorf("/%s: %w", job.Command.Name(), err)
			}
			return nil
		})
	}
	return results, g.Wait()
}

func (r *Runner) acquire(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	select {
	case r.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) release() {
	<-r.semaphore
	r.wg.Done()
}

// =============================================================================
// TRACKED STREAM
// =============================================================================

// trackedStream mirrors events into a Builder and drives the invocation
// status from what the consumer observes.
type trackedStream struct {
	runner *Runner
	inv    *Invocation
	inner  output.EventStream
	runCtx context.Context
	cancel context.CancelFunc

	builder output.Builder
	once    sync.Once
	final   error
}

func (s *trackedStream) Next(ctx context.Context) (output.Event, error) {
	if s.inv.Done() {
		return nil, s.final
	}

	// Either the caller's ctx or the run's own context ends the wait.
	waitCtx, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(s.runCtx, func() { cancel(context.Cause(s.runCtx)) })
	ev, err := s.inner.Next(waitCtx)
	stop()
	cancel(nil)

	if s.runCtx.Err() != nil {
		err = context.Cause(s.runCtx)
	}
	switch {
	case err == nil:
		s.builder.Push(ev)
		s.inv.recordEvent()
		return ev, nil
	case errors.Is(err, io.EOF):
		s.end(StatusCompleted, nil)
		return nil, io.EOF
	case errors.Is(err, ErrTimeout):
		s.end(StatusCancelled, fmt.Errorf("%w after %v", ErrTimeout, s.runner.timeout))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.end(StatusCancelled, err)
	default:
		s.end(StatusFailed, err)
	}
	return nil, s.final
}

func (s *trackedStream) Close() error {
	s.end(StatusCancelled, output.ErrStreamClosed)
	return s.inner.Close()
}

func (s *trackedStream) end(status Status, err error) {
	s.once.Do(func() {
		s.final = err
		if s.final == nil {
			s.final = io.EOF
		}
		_ = s.inv.finish(status, err)
		s.cancel()
		if status != StatusCompleted {
			_ = s.inner.Close()
		}
		s.runner.release()

		logEvent := s.runner.log.Debug()
		if status != StatusCompleted {
			logEvent = s.runner.log.Warn().Err(err)
		}
		logEvent.Str("id", s.inv.ID).
			Str("command", s.inv.Command).
			Str("status", status.String()).
			Int("events", s.inv.Events()).
			Dur("duration", s.inv.Duration()).
			Msg("invocation finished")

		if status == StatusCompleted && s.runner.cache != nil {
			s.runner.cache.Put(snapshots.Entry{
				ID:      s.inv.ID,
				Command: s.inv.Command,
				Line:    s.inv.Line,
				Output:  s.builder.Finish(),
			})
		}
	})
}
