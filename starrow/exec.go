// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow

import (
	"log/slog"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	// DefaultMaxSteps bounds the Starlark computation budget per run.
	DefaultMaxSteps = uint64(10_000_000)
	// DefaultTimeout bounds wall-clock time per run.
	DefaultTimeout = 30 * time.Second
)

// RunOptions configures script execution.
type RunOptions struct {
	// MaxSteps bounds the Starlark computation steps. Zero means
	// DefaultMaxSteps.
	MaxSteps uint64
	// Timeout bounds wall-clock execution time. Zero means DefaultTimeout;
	// negative disables the timeout.
	Timeout time.Duration
	// Predeclared adds extra predeclared names next to the arrow module.
	Predeclared starlark.StringDict
	// Print handles Starlark print() output. Defaults to the Starlark
	// runtime's stderr behavior.
	Print func(thread *starlark.Thread, msg string)
}

func (o *RunOptions) maxSteps() uint64 {
	if o == nil || o.MaxSteps == 0 {
		return DefaultMaxSteps
	}
	return o.MaxSteps
}

func (o *RunOptions) timeout() time.Duration {
	if o == nil || o.Timeout == 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (s *Session) predeclared(opts *RunOptions) starlark.StringDict {
	env := starlark.StringDict{ModuleName: s.Module()}
	if opts != nil {
		for k, v := range opts.Predeclared {
			env[k] = v
		}
	}
	return env
}

func (s *Session) thread(name string, opts *RunOptions) *starlark.Thread {
	thread := &starlark.Thread{Name: name}
	thread.SetMaxExecutionSteps(opts.maxSteps())
	if opts != nil && opts.Print != nil {
		thread.Print = opts.Print
	}
	return thread
}

// Run executes a Starlark file with the arrow module predeclared and
// returns its globals. src may be nil (read from filename), a string, or a
// byte slice.
func (s *Session) Run(filename string, src any, opts *RunOptions) (starlark.StringDict, error) {
	thread := s.thread("starrow-run", opts)
	var globals starlark.StringDict
	err := runWithTimeout(thread, opts.timeout(), func() error {
		g, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, filename, src, s.predeclared(opts))
		if err != nil {
			return err
		}
		globals = g
		return nil
	})
	return globals, err
}

// Eval evaluates a single Starlark expression with the arrow module
// predeclared.
func (s *Session) Eval(expr string, opts *RunOptions) (starlark.Value, error) {
	thread := s.thread("starrow-eval", opts)
	var result starlark.Value
	err := runWithTimeout(thread, opts.timeout(), func() error {
		v, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, "<expr>", expr, s.predeclared(opts))
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// runWithTimeout runs fn, cancelling the thread if the timeout elapses
// first.
func runWithTimeout(thread *starlark.Thread, timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		return fn()
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		slog.Debug("cancelling thread", "thread", thread.Name, "timeout", timeout)
		thread.Cancel("execution timed out")
		err := <-done
		if err != nil {
			return valueErrorf("execution timed out after %s: %v", timeout, err)
		}
		return valueErrorf("execution timed out after %s", timeout)
	}
}
