package serv

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dosco/sqlbridge/core"
	"github.com/go-http-utils/headers"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTargetDialect = "postgres"

	actionTranspile = "transpile"
	actionAnalyze   = "analyze"
	actionDialects  = "supported_dialects"
)

// SQLRequest is the body of a conversion request
type SQLRequest struct {
	Action string `json:"action,omitempty"`
	SQL    string `json:"sql"`
	From   string `json:"from_dialect,omitempty"`
	To     string `json:"to_dialect,omitempty"`
	Detail bool   `json:"detail,omitempty"`
}

// TranspileResponse is the reply to a transpile request
type TranspileResponse struct {
	Success    bool             `json:"success"`
	Transpiled []string         `json:"transpiled"`
	From       string           `json:"from_dialect"`
	To         string           `json:"to_dialect"`
	Features   core.FeatureSet  `json:"features_detected"`
	Methods    core.Tally       `json:"methods_used"`
	Primary    core.Strategy    `json:"primary_method"`
	Total      int              `json:"total_statements"`
	Statements []core.Statement `json:"statements,omitempty"`
	Warnings   []string         `json:"warnings"`
	Note       string           `json:"note"`
}

// AnalyzeResponse is the reply to an analyze request
type AnalyzeResponse struct {
	Success bool `json:"success"`
	core.Analysis
}

// DialectsResponse lists the supported dialects
type DialectsResponse struct {
	Success  bool               `json:"success"`
	Dialects []core.DialectInfo `json:"dialects"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON encodes data as JSON and writes to response, handling errors
func writeJSON(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}

// writeJSONError writes a JSON error response with proper header ordering
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set(headers.ContentType, "application/json")
	w.WriteHeader(status)
	writeJSON(w, errorResponse{Error: message})
}

// writeJSONOK writes a JSON response with status 200
func writeJSONOK(w http.ResponseWriter, data interface{}) {
	w.Header().Set(headers.ContentType, "application/json")
	w.Header().Set(headers.CacheControl, "no-store")
	writeJSON(w, data)
}

// decodeRequest reads a SQLRequest from the body, replying with an error
// when it cannot
func decodeRequest(w http.ResponseWriter, r *http.Request) (req SQLRequest, ok bool) {
	err := json.NewDecoder(r.Body).Decode(&req)

	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		writeJSONError(w, http.StatusBadRequest, "request body is empty")
	case err != nil:
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
	default:
		ok = true
	}
	return
}

// sqlHandler serves every action of the SQL API
// POST /api/v1/sql
func (s1 *HttpService) sqlHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}

		s := s1.Load().(*service)

		switch req.Action {
		case "", actionTranspile:
			ctx, cancel := s.requestContext(r)
			defer cancel()

			res, status, err := s.transpile(ctx, req)
			if err != nil {
				writeJSONError(w, status, err.Error())
				return
			}
			writeJSONOK(w, res)

		case actionAnalyze:
			writeJSONOK(w, s.analyze(r.Context(), req))

		case actionDialects:
			writeJSONOK(w, supportedDialects())

		default:
			writeJSONError(w, http.StatusBadRequest, "unknown action: "+req.Action)
		}
	})
}

// analyzeHandler reports what a script contains
// POST /api/v1/sql/analyze
func (s1 *HttpService) analyzeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}

		s := s1.Load().(*service)
		writeJSONOK(w, s.analyze(r.Context(), req))
	})
}

// dialectsHandler lists the supported dialects
// GET /api/v1/sql/dialects
func dialectsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSONOK(w, supportedDialects())
	})
}

// schemaHandler returns the JSON schema of the config file
// GET /api/v1/config/schema
func schemaHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		b, err := ConfigSchema()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set(headers.ContentType, "application/schema+json")
		w.Write(b) //nolint:errcheck
	})
}

// healthCheckHandler reports whether the service is up
// GET /health
func healthCheckHandler(s1 *HttpService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := s1.Load().(*service)

		if s.sb == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "converter not initialized")
			return
		}
		writeJSONOK(w, map[string]interface{}{
			"status":    "ok",
			"listening": s.state.Load() == servListening,
		})
	})
}

// transpile converts the request script. The status is the HTTP status
// to reply with when err is set.
func (s *service) transpile(ctx context.Context, req SQLRequest) (*TranspileResponse, int, error) {
	from, to := req.From, req.To
	if to == "" {
		to = defaultTargetDialect
	}

	ctx, span := s.tracer.Start(ctx, "sqlbridge.transpile",
		trace.WithAttributes(
			attribute.String("sql.from_dialect", from),
			attribute.String("sql.to_dialect", to),
			attribute.Int("sql.size", len(req.SQL))))
	defer span.End()
	span.SetAttributes(requestAttrs(ctx)...)

	res, err := s.sb.Convert(ctx, req.SQL, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, convertStatus(err), err
	}

	span.SetAttributes(
		attribute.Int("sql.statements", res.Total),
		attribute.Int("sql.simple", res.Tally.Simple),
		attribute.Int("sql.complex", res.Tally.Complex),
		attribute.String("sql.primary_method", string(res.Primary)))

	for _, st := range res.Statements {
		if st.Fallback {
			span.AddEvent("fallback", trace.WithAttributes(
				attribute.Int("sql.index", st.Index),
				attribute.String("sql.reason", st.Reason)))
		}
	}

	if s.logLevel >= logLevelDebug {
		s.log.Debugw("transpiled", "from", res.From, "to", res.To,
			"statements", res.Total, "primary", res.Primary,
			"request_id", requestIDFrom(ctx))
	}

	out := &TranspileResponse{
		Success:    true,
		Transpiled: []string{res.Script},
		From:       res.From,
		To:         res.To,
		Features:   res.Features,
		Methods:    res.Tally,
		Primary:    res.Primary,
		Total:      res.Total,
		Warnings:   res.Warnings,
		Note:       res.Note,
	}
	if req.Detail {
		out.Statements = res.Statements
	}
	return out, http.StatusOK, nil
}

// analyze reports what the request script contains
func (s *service) analyze(ctx context.Context, req SQLRequest) AnalyzeResponse {
	ctx, span := s.tracer.Start(ctx, "sqlbridge.analyze",
		trace.WithAttributes(attribute.Int("sql.size", len(req.SQL))))
	defer span.End()
	span.SetAttributes(requestAttrs(ctx)...)

	a := s.sb.Analyze(req.SQL)
	span.SetAttributes(attribute.Int("sql.statements", a.Statements))

	return AnalyzeResponse{Success: true, Analysis: a}
}

// requestAttrs describes who sent the request
func requestAttrs(ctx context.Context) []attribute.KeyValue {
	var kv []attribute.KeyValue
	if id := requestIDFrom(ctx); id != "" {
		kv = append(kv, attribute.String("http.request_id", id))
	}
	if sub := subjectFrom(ctx); sub != "" {
		kv = append(kv, attribute.String("enduser.id", sub))
	}
	return kv
}

func convertStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownDialect), errors.Is(err, core.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func supportedDialects() DialectsResponse {
	return DialectsResponse{Success: true, Dialects: core.SupportedDialects()}
}
