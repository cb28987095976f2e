package executor

import (
	"context"

	"github.com/google/uuid"

	"github.com/SiddhanthNB/simple-orm/query/ast"
	"github.com/SiddhanthNB/simple-orm/query/compiler"
)

// Future is a non-blocking execution in flight. Each future runs on its own
// borrowed connection, so several may be in flight on one pool at once and
// complete in any order. Cancelling one future never affects another.
type Future struct {
	id     uuid.UUID
	done   chan struct{}
	rows   *Rows
	err    error
	cancel context.CancelFunc
}

// QueryAsync compiles the tree and starts it without blocking the caller.
// Compile errors resolve the future immediately; they are never retried.
func (e *Executor) QueryAsync(ctx context.Context, t ast.Tree) *Future {
	q, err := e.compileSelect(t)
	if err != nil {
		return resolvedFuture(err)
	}
	return e.AsyncCompiled(ctx, q)
}

// AsyncCompiled starts a compiled query without blocking the caller.
func (e *Executor) AsyncCompiled(ctx context.Context, q *compiler.CompiledQuery) *Future {
	cctx, cancel := context.WithCancel(ctx)
	f := &Future{
		id:     uuid.New(),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(f.done)
		f.rows, f.err = e.QueryCompiled(cctx, q)
	}()
	return f
}

// Wait suspends until the execution completes, the future is cancelled, or
// ctx expires. It returns the same row-sequence shape as the blocking path.
func (f *Future) Wait(ctx context.Context) (*Rows, error) {
	select {
	case <-f.done:
		return f.rows, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel aborts the execution if it has not completed. The borrowed
// connection is discarded rather than returned, since a cancelled statement
// leaves its session state in doubt.
func (f *Future) Cancel() { f.cancel() }

// Done is closed when the execution has completed or been cancelled.
func (f *Future) Done() <-chan struct{} { return f.done }

// ID identifies this execution in logs.
func (f *Future) ID() uuid.UUID { return f.id }

func resolvedFuture(err error) *Future {
	f := &Future{
		id:     uuid.New(),
		done:   make(chan struct{}),
		cancel: func() {},
		err:    err,
	}
	close(f.done)
	return f
}
