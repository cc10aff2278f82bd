package transpile

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dosco/sqlbridge/core/internal/dialect"
)

// Stub is a scripted Engine. With no Output set it echoes the statement
// upper cased.
type Stub struct {
	Output string
	Err    error
	Delay  time.Duration
	Panic  string

	calls atomic.Int64
}

func (s *Stub) Name() string { return "stub" }

func (s *Stub) Calls() int { return int(s.calls.Load()) }

func (s *Stub) Transpile(ctx context.Context, stmt string, from, to dialect.ID) (string, error) {
	s.calls.Add(1)

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if s.Panic != "" {
		panic(s.Panic)
	}
	if s.Err != nil {
		return "", s.Err
	}
	if s.Output != "" {
		return s.Output, nil
	}
	return strings.ToUpper(stmt), nil
}
