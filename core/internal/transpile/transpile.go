// Package transpile is the complex conversion path. An Engine does the
// parse and regenerate work and the Adapter around it makes sure a failing,
// slow or crashing engine never takes a statement down with it.
package transpile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dosco/sqlbridge/core/internal/dialect"
	"github.com/dosco/sqlbridge/core/internal/split"
	"go.uber.org/zap"
)

// Engine converts a single statement, without its terminator, between dialects
type Engine interface {
	Name() string
	Transpile(ctx context.Context, stmt string, from, to dialect.ID) (string, error)
}

var (
	ErrNoEngine    = errors.New("no transpiler engine")
	ErrUnsupported = errors.New("unsupported statement")
)

var newlines = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

const fallbackFmt = "-- sqlbridge: complex transpile failed (%s), statement kept unchanged\n%s"

// Outcome is the result of running a statement through the adapter
type Outcome struct {
	Text     string
	Fallback bool
	Reason   string
}

type Adapter struct {
	engine  Engine
	timeout time.Duration
	log     *zap.Logger
}

// NewAdapter wraps engine. A zero timeout means no per statement limit.
func NewAdapter(engine Engine, timeout time.Duration, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{engine: engine, timeout: timeout, log: log}
}

func (a *Adapter) EngineName() string {
	if a.engine == nil {
		return "none"
	}
	return a.engine.Name()
}

// Rewrite converts stmt with the engine. It never fails: when the engine
// errors, times out or panics the original statement is returned behind a
// comment that explains why.
func (a *Adapter) Rewrite(ctx context.Context, stmt string, from, to dialect.ID) Outcome {
	comments, body := split.LeadingComments(stmt)
	body = split.TrimTerminator(body, split.Terminator)

	out, err := a.run(ctx, body, from, to)
	if err != nil {
		// the reason goes into a line comment
		reason := newlines.Replace(err.Error())
		a.log.Warn("complex transpile failed",
			zap.String("engine", a.EngineName()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))

		return Outcome{
			Text:     fmt.Sprintf(fallbackFmt, reason, stmt),
			Fallback: true,
			Reason:   reason,
		}
	}

	if comments != "" {
		out = comments + "\n" + out
	}
	return Outcome{Text: out}
}

type result struct {
	out string
	err error
}

func (a *Adapter) run(ctx context.Context, stmt string, from, to dialect.ID) (string, error) {
	if a.engine == nil {
		return "", ErrNoEngine
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	// buffered, the engine may finish after nobody is waiting
	ch := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("engine panic: %v", r)}
			}
		}()
		out, err := a.engine.Transpile(ctx, stmt, from, to)
		ch <- result{out: out, err: err}
	}()

	select {
	case res := <-ch:
		if res.err == nil && res.out == "" {
			res.err = ErrUnsupported
		}
		return res.out, res.err

	case <-ctx.Done():
		if a.timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out after %s", a.timeout)
		}
		return "", ctx.Err()
	}
}
