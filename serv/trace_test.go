package serv

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func spanAttr(sp sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range sp.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// spansNamed returns the ended spans with the given name
func spansNamed(sr *tracetest.SpanRecorder, name string) []sdktrace.ReadOnlySpan {
	var spans []sdktrace.ReadOnlySpan
	for _, sp := range sr.Ended() {
		if sp.Name() == name {
			spans = append(spans, sp)
		}
	}
	return spans
}

func TestTranspileSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	_, ts := newTestServer(t, nil, OptionSetTracerProvider(tp))

	resp := postJSON(t, ts.URL+routeSQL, SQLRequest{
		SQL: createTable + "\nSELECT a FROM t PIVOT (SUM(x) FOR y IN (1, 2));",
		To:  "mssql",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	spans := spansNamed(sr, "sqlbridge.transpile")
	require.Len(t, spans, 1)
	sp := spans[0]

	v, ok := spanAttr(sp, "sql.to_dialect")
	require.True(t, ok)
	assert.Equal(t, "mssql", v.AsString())

	v, ok = spanAttr(sp, "sql.statements")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())

	v, ok = spanAttr(sp, "http.request_id")
	require.True(t, ok)
	assert.Equal(t, resp.Header.Get(requestIDHeader), v.AsString())

	// the pivot cannot be parsed and falls back
	require.Len(t, sp.Events(), 1)
	assert.Equal(t, "fallback", sp.Events()[0].Name)

	// the conversion span is a child of the HTTP server span
	require.Eventually(t, func() bool {
		return len(spansNamed(sr, "sqlbridge.http")) == 1
	}, time.Second, 10*time.Millisecond)

	hs := spansNamed(sr, "sqlbridge.http")[0]
	assert.Equal(t, hs.SpanContext().SpanID(), sp.Parent().SpanID())
	assert.Equal(t, hs.SpanContext().TraceID(), sp.SpanContext().TraceID())
}

func TestTranspileSpanError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	_, ts := newTestServer(t, nil, OptionSetTracerProvider(tp))

	resp := postJSON(t, ts.URL+routeSQL, SQLRequest{SQL: "SELECT 1", To: "cobol"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	spans := spansNamed(sr, "sqlbridge.transpile")
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTracingFromConfig(t *testing.T) {
	conf := newTestConfig(t, "enable_tracing: true\n")
	s1, _ := newTestServer(t, conf)

	s := s1.Load().(*service)
	require.NotNil(t, s.tracing)
	assert.NotNil(t, s.tracer)

	conf = newTestConfig(t, "enable_tracing: false\n")
	s1, _ = newTestServer(t, conf)
	assert.Nil(t, s1.Load().(*service).tracing)
}
