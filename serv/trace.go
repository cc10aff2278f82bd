package serv

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const tracerName = "github.com/dosco/sqlbridge/serv"

// tracing owns the tracer provider created for enable_tracing
type tracing struct {
	tp  *sdktrace.TracerProvider
	log *zap.Logger
}

// initTracing sets up the request tracer. A tracer set with
// OptionSetTracerProvider wins over the config.
func (s *service) initTracing() error {
	if s.tracer != nil {
		return nil
	}

	if !s.conf.EnableTracing {
		s.tracer = noop.NewTracerProvider().Tracer(tracerName)
		return nil
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithSpanProcessor(spanLogger{s.zlog}))

	s.tracing = &tracing{tp: tp, log: s.zlog}
	s.tracer = tp.Tracer(tracerName)
	s.tp = tp
	return nil
}

// spanLogger writes every ended span to the log
type spanLogger struct {
	log *zap.Logger
}

func (sl spanLogger) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (sl spanLogger) OnEnd(sp sdktrace.ReadOnlySpan) {
	fields := []zap.Field{
		zap.String("trace-id", sp.SpanContext().TraceID().String()),
		zap.String("span-id", sp.SpanContext().SpanID().String()),
		zap.Duration("duration", sp.EndTime().Sub(sp.StartTime())),
	}
	for _, kv := range sp.Attributes() {
		fields = append(fields, zap.String(string(kv.Key), kv.Value.Emit()))
	}
	if st := sp.Status(); st.Code == codes.Error {
		fields = append(fields, zap.String("error", st.Description))
	}
	sl.log.Info(sp.Name(), fields...)
}

func (sl spanLogger) Shutdown(context.Context) error {
	sl.log.Sync() //nolint:errcheck
	return nil
}

func (sl spanLogger) ForceFlush(context.Context) error {
	return nil
}

func (t *tracing) shutdown(ctx context.Context) {
	if err := t.tp.Shutdown(ctx); err != nil {
		t.log.Warn("tracer shutdown", zap.Error(err))
	}
}
