package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dosco/sqlbridge/core/internal/classify"
	"github.com/dosco/sqlbridge/core/internal/dialect"
	"github.com/dosco/sqlbridge/core/internal/postproc"
	"github.com/dosco/sqlbridge/core/internal/rewrite"
	"github.com/dosco/sqlbridge/core/internal/split"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const columnIndent = "    "

// Convert rewrites script from one dialect into another. An empty from
// uses the configured source dialect.
//
// Only an unknown dialect, blank input or a cancelled context fail the call.
// A statement that cannot be converted shows up in the result as a
// fallback, the rest of the script is converted regardless.
func (sb *Bridge) Convert(ctx context.Context, script, from, to string) (*Result, error) {
	if from == "" {
		from = sb.conf.SourceDialect
	}
	fromID, err := parseDialect(from)
	if err != nil {
		return nil, err
	}
	toID, err := parseDialect(to)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyInput
	}

	st := time.Now()
	p := dialect.Get(toID)
	stmts := split.Split(script, split.Terminator)

	res := &Result{
		From:       string(fromID),
		To:         string(toID),
		Statements: make([]Statement, len(stmts)),
		Total:      len(stmts),
		Features:   sb.classifier.Classify(script),
		Note:       p.Note,
		Warnings:   []string{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sb.conf.Workers)

	for i, raw := range stmts {
		g.Go(func() error {
			s := sb.convertStatement(gctx, raw, fromID, toID, p)
			s.Index = i
			res.Statements[i] = s
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, s := range res.Statements {
		switch {
		case s.Dropped:
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("statement %d dropped: %s has no equivalent", s.Index+1, p.DisplayName))
			continue
		case s.Strategy == StrategyComplex:
			res.Tally.Complex++
		default:
			res.Tally.Simple++
		}
		if s.Fallback {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("statement %d kept unchanged: %s", s.Index+1, s.Reason))
		}
	}

	res.Primary = StrategySimple
	if res.Tally.Complex > res.Tally.Simple {
		res.Primary = StrategyComplex
	}
	res.Script = assemble(res.Statements, p)

	sb.log.Debug("converted",
		zap.String("from", res.From),
		zap.String("to", res.To),
		zap.Int("statements", res.Total),
		zap.Int("simple", res.Tally.Simple),
		zap.Int("complex", res.Tally.Complex),
		zap.Duration("took", time.Since(st)))

	return res, nil
}

func (sb *Bridge) convertStatement(ctx context.Context,
	raw string,
	from, to dialect.ID,
	p *dialect.Profile,
) Statement {
	key := sb.cacheKey(raw, from, to)
	if s, ok := sb.cache.Get(ctx, key); ok {
		return s
	}

	s := Statement{
		Raw:      raw,
		Kind:     classify.Kind(raw),
		Features: sb.classifier.Classify(raw),
		Strategy: StrategySimple,
	}

	switch {
	case rewrite.Drops(raw, p):
		s.Dropped = true

	case s.Features.IsComplex():
		s.Strategy = StrategyComplex
		o := sb.adapter.Rewrite(ctx, raw, from, to)

		text := o.Text
		if o.Fallback {
			s.Fallback, s.Reason = true, o.Reason
			if !*sb.conf.MarkComplex {
				text = raw
			}
		} else if sb.conf.Pretty {
			text = prettify(text)
		}
		s.Rewritten = postproc.Process(text, p)

	default:
		text := rewrite.Apply(raw, p)
		if text == "" {
			s.Dropped = true
			break
		}
		text = postproc.Process(text, p)
		if sb.conf.Pretty {
			text = postproc.FormatCreateTable(text, columnIndent)
		}
		s.Rewritten = text
	}

	// a fallback caused by cancellation says nothing about the statement
	if !s.Fallback || ctx.Err() == nil {
		sb.cache.Set(ctx, key, s)
	}
	return s
}

// assemble joins the converted statements in input order, each ending with
// the terminator, separated by a blank line
func assemble(stmts []Statement, p *dialect.Profile) string {
	parts := make([]string, 0, len(stmts)+1)
	var fk bool

	for _, s := range stmts {
		if s.Dropped || strings.TrimSpace(s.Rewritten) == "" {
			continue
		}
		parts = append(parts, terminate(s.Rewritten))
		fk = fk || rewrite.HasForeignKey(s.Rewritten)
	}

	script := strings.Join(parts, "\n\n")

	if p.ForeignKeys == dialect.FKPragma && fk && !strings.Contains(script, p.FKComment) {
		script = p.FKComment + "\n\n" + script
	}
	return script
}

// terminate puts the terminator after the last code in s unless it is
// already there. Text holding only comments is returned as is.
func terminate(s string) string {
	segs := split.Segments(s)

	for i := len(segs) - 1; i >= 0; i-- {
		seg := segs[i]

		switch seg.Kind {
		case split.SegComment:
			continue

		case split.SegCode:
			code := strings.TrimRight(seg.Text, " \t\r\n")
			if code == "" {
				continue
			}
			if code[len(code)-1] == split.Terminator {
				return s
			}
			end := seg.Start + len(code)
			return s[:end] + string(split.Terminator) + s[end:]

		default:
			return s[:seg.End] + string(split.Terminator) + s[seg.End:]
		}
	}
	return s
}
