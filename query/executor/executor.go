// Package executor runs compiled queries against pooled connections.
//
// The executor borrows a handle per execution and guarantees it is returned
// to the pool, or discarded when a cancelled execution leaves its state in
// doubt. It never owns pool lifecycle. Parameter binding always goes through
// the driver's parameter API; no value ever reaches SQL text.
package executor

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SiddhanthNB/simple-orm/query/ast"
	"github.com/SiddhanthNB/simple-orm/query/cache"
	"github.com/SiddhanthNB/simple-orm/query/compiler"
	"github.com/SiddhanthNB/simple-orm/query/operators"
)

// Session is the borrowed-handle surface the executor needs. *sql.DB,
// *sql.Conn, and *sql.Tx all satisfy it.
type Session interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Executor compiles and executes queries for one dialect over one pool.
type Executor struct {
	db    *sql.DB
	comp  compiler.Compiler
	plans *cache.PlanCache
	log   zerolog.Logger

	stmtMu sync.RWMutex
	stmts  map[string]*sql.Stmt
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the structured logger. The default logger discards
// everything.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// WithPlanCache enables compiled-plan caching for tree queries.
func WithPlanCache(c *cache.PlanCache) Option {
	return func(e *Executor) { e.plans = c }
}

// New creates an executor over an externally owned pool.
func New(db *sql.DB, dialect operators.Dialect, opts ...Option) (*Executor, error) {
	comp, err := compiler.New(dialect)
	if err != nil {
		return nil, err
	}
	e := &Executor{
		db:    db,
		comp:  comp,
		log:   zerolog.Nop(),
		stmts: make(map[string]*sql.Stmt),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Dialect returns the executor's dialect.
func (e *Executor) Dialect() operators.Dialect { return e.comp.Dialect() }

// Compiler exposes the dialect compiler for callers that want compiled
// queries without executing them.
func (e *Executor) Compiler() compiler.Compiler { return e.comp }

// Raw wraps a hand-written statement for execution, bypassing the builder.
func Raw(sqlText string, values ...interface{}) *compiler.CompiledQuery {
	return compiler.Raw(sqlText, values...)
}

func (e *Executor) compileSelect(t ast.Tree) (*compiler.CompiledQuery, error) {
	if e.plans != nil {
		return e.plans.CompileSelect(e.comp, t)
	}
	return e.comp.CompileSelect(t)
}

// Query compiles the tree and runs it on a freshly borrowed connection.
// Closing the returned rows releases the connection back to the pool.
func (e *Executor) Query(ctx context.Context, t ast.Tree) (*Rows, error) {
	q, err := e.compileSelect(t)
	if err != nil {
		return nil, err
	}
	return e.QueryCompiled(ctx, q)
}

// QueryOn runs the tree on a caller-supplied handle. Releasing the handle
// stays with the caller.
func (e *Executor) QueryOn(ctx context.Context, s Session, t ast.Tree) (*Rows, error) {
	q, err := e.compileSelect(t)
	if err != nil {
		return nil, err
	}
	return e.QueryCompiledOn(ctx, s, q)
}

// QueryCompiled runs a compiled query on a freshly borrowed connection.
func (e *Executor) QueryCompiled(ctx context.Context, q *compiler.CompiledQuery) (*Rows, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	rows, err := e.run(ctx, conn, q)
	if err != nil {
		releaseConn(conn, ctx.Err() != nil)
		return nil, err
	}
	rows.conn = conn
	return rows, nil
}

// QueryCompiledOn runs a compiled query on a caller-supplied handle.
func (e *Executor) QueryCompiledOn(ctx context.Context, s Session, q *compiler.CompiledQuery) (*Rows, error) {
	return e.run(ctx, s, q)
}

// QueryRaw runs a hand-written statement on a freshly borrowed connection.
func (e *Executor) QueryRaw(ctx context.Context, sqlText string, values ...interface{}) (*Rows, error) {
	return e.QueryCompiled(ctx, Raw(sqlText, values...))
}

func (e *Executor) run(ctx context.Context, s Session, q *compiler.CompiledQuery) (*Rows, error) {
	id := uuid.New()
	start := time.Now()
	rows, err := s.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		e.log.Error().Str("query_id", id.String()).Str("dialect", string(e.Dialect())).
			Str("sql", q.SQL).Err(err).Msg("query failed")
		return nil, e.execErr(q.SQL, err)
	}
	e.log.Debug().Str("query_id", id.String()).Str("dialect", string(e.Dialect())).
		Dur("elapsed", time.Since(start)).Msg("query executed")
	return &Rows{id: id, rows: rows}, nil
}

// Count compiles and runs SELECT COUNT(*) for the tree.
func (e *Executor) Count(ctx context.Context, t ast.Tree) (int64, error) {
	q, err := e.comp.CompileCount(t)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := e.db.QueryRowContext(ctx, q.SQL, q.Args...).Scan(&n); err != nil {
		return 0, e.execErr(q.SQL, err)
	}
	return n, nil
}

// Exec runs a statement that returns no rows, through the prepared-statement
// cache.
func (e *Executor) Exec(ctx context.Context, q *compiler.CompiledQuery) (sql.Result, error) {
	stmt, err := e.stmt(ctx, q.SQL)
	if err != nil {
		return nil, e.execErr(q.SQL, err)
	}
	res, err := stmt.ExecContext(ctx, q.Args...)
	if err != nil {
		return nil, e.execErr(q.SQL, err)
	}
	return res, nil
}

// ExecOn runs a statement on a caller-supplied handle.
func (e *Executor) ExecOn(ctx context.Context, s Session, q *compiler.CompiledQuery) (sql.Result, error) {
	res, err := s.ExecContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, e.execErr(q.SQL, err)
	}
	return res, nil
}

// stmt returns a cached prepared statement, preparing it on first use.
func (e *Executor) stmt(ctx context.Context, sqlText string) (*sql.Stmt, error) {
	e.stmtMu.RLock()
	stmt, ok := e.stmts[sqlText]
	e.stmtMu.RUnlock()
	if ok {
		return stmt, nil
	}

	stmt, err := e.db.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}

	e.stmtMu.Lock()
	if prev, ok := e.stmts[sqlText]; ok {
		// Lost the race; keep the earlier statement.
		e.stmtMu.Unlock()
		stmt.Close()
		return prev, nil
	}
	e.stmts[sqlText] = stmt
	e.stmtMu.Unlock()
	return stmt, nil
}

// ClearStmtCache closes and drops every cached prepared statement.
func (e *Executor) ClearStmtCache() {
	e.stmtMu.Lock()
	defer e.stmtMu.Unlock()
	for _, stmt := range e.stmts {
		stmt.Close()
	}
	e.stmts = make(map[string]*sql.Stmt)
}

func (e *Executor) execErr(sqlText string, err error) error {
	return &ExecutionError{Dialect: e.Dialect(), SQL: sqlText, Err: err}
}

// releaseConn returns a borrowed connection to the pool. When discard is set
// the connection's session state is in doubt (cancelled mid-statement) and
// the pool must drop it instead of reusing it.
func releaseConn(conn *sql.Conn, discard bool) {
	if conn == nil {
		return
	}
	if discard {
		_ = conn.Raw(func(interface{}) error { return driver.ErrBadConn })
	}
	_ = conn.Close()
}
