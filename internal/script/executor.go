// Package script runs user transformation scripts with the yaegi Go
// interpreter. A script is a Go source file in package main that defines
//
//	func Transform(data map[string][]map[string]any) ([]map[string]any, error)
//
// where data maps dataset name to records. Only whitelisted standard library
// packages may be imported.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"dashcore/pkg/domain"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// EntryPoint is the function every script must define.
const EntryPoint = "Transform"

// DefaultTimeout bounds a single script run when no timeout is configured.
const DefaultTimeout = 5 * time.Second

var (
	// ErrForbiddenImport reports an import outside the whitelist.
	ErrForbiddenImport = errors.New("forbidden import")
	// ErrBadEntryPoint reports a missing or mistyped Transform function.
	ErrBadEntryPoint = errors.New("invalid script entry point")
)

var defaultAllowed = []string{
	"bytes",
	"encoding/json",
	"fmt",
	"math",
	"regexp",
	"sort",
	"strconv",
	"strings",
	"time",
	"unicode",
}

// Executor implements domain.ScriptExecutor. It is safe for concurrent use;
// every run gets a fresh interpreter.
type Executor struct {
	allowed map[string]bool
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithAllowedImports adds packages to the import whitelist.
func WithAllowedImports(pkgs ...string) Option {
	return func(e *Executor) {
		for _, p := range pkgs {
			e.allowed[p] = true
		}
	}
}

// WithLogger sets the executor logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor returns a yaegi-backed executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		allowed: make(map[string]bool, len(defaultAllowed)),
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, p := range defaultAllowed {
		e.allowed[p] = true
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AllowedImports returns the whitelist in sorted order.
func (e *Executor) AllowedImports() []string {
	return slices.Sorted(maps.Keys(e.allowed))
}

// Execute interprets source and calls its Transform function with data.
// Console output written through fmt.Print* is returned in the result even
// when Transform fails.
func (e *Executor) Execute(ctx context.Context, source string, data map[string][]map[string]any) (domain.ScriptResult, error) {
	if err := e.validateImports(source); err != nil {
		return domain.ScriptResult{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	console := &syncBuffer{}
	i := interp.New(interp.Options{Stdout: console, Stderr: console})
	if err := i.Use(stdlib.Symbols); err != nil {
		return domain.ScriptResult{}, fmt.Errorf("load stdlib symbols: %w", err)
	}
	if _, err := i.EvalWithContext(ctx, wrap(source)); err != nil {
		return domain.ScriptResult{Console: console.String()}, fmt.Errorf("evaluate script: %w", err)
	}
	fn, err := i.Eval("main." + EntryPoint)
	if err != nil {
		return domain.ScriptResult{}, fmt.Errorf("%w: %s not defined", ErrBadEntryPoint, EntryPoint)
	}
	transform, ok := fn.Interface().(func(map[string][]map[string]any) ([]map[string]any, error))
	if !ok {
		return domain.ScriptResult{}, fmt.Errorf("%w: %s has type %s", ErrBadEntryPoint, EntryPoint, fn.Type())
	}

	type outcome struct {
		rows []map[string]any
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("script panicked: %v", r)}
			}
		}()
		rows, err := transform(data)
		done <- outcome{rows: rows, err: err}
	}()

	select {
	case out := <-done:
		res := domain.ScriptResult{Console: console.String()}
		if out.err != nil {
			return res, fmt.Errorf("transform: %w", out.err)
		}
		res.Records = make([]domain.Record, len(out.rows))
		for idx, row := range out.rows {
			res.Records[idx] = domain.Record(row)
		}
		e.logger.Debug("script finished", zap.Int("records", len(res.Records)))
		return res, nil
	case <-ctx.Done():
		// yaegi cannot preempt a running function; the goroutine is abandoned.
		e.logger.Warn("script timed out", zap.Duration("timeout", e.timeout))
		return domain.ScriptResult{Console: console.String()}, fmt.Errorf("script timed out: %w", ctx.Err())
	}
}

// validateImports parses the import section and rejects anything outside
// the whitelist.
func (e *Executor) validateImports(source string) error {
	file, err := parser.ParseFile(token.NewFileSet(), "script.go", wrap(source), parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("parse script: %w", err)
	}
	var forbidden []string
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return fmt.Errorf("parse import %s: %w", imp.Path.Value, err)
		}
		if !e.allowed[path] {
			forbidden = append(forbidden, path)
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("%w: %s", ErrForbiddenImport, strings.Join(forbidden, ", "))
	}
	return nil
}

// wrap adds a package clause to bare function sources.
func wrap(source string) string {
	file, err := parser.ParseFile(token.NewFileSet(), "", source, parser.PackageClauseOnly)
	if err == nil && file.Name != nil {
		return source
	}
	return "package main\n\n" + source
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
