package serv

import (
	"context"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/xid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// apiV1 wraps an API handler with request ids, tracing, rate limiting,
// CORS, authentication, compression and the request body limit
func (s1 *HttpService) apiV1(h http.Handler) http.Handler {
	s := s1.Load().(*service)

	h = limitBody(s1, h)

	if s.conf.HTTPGZip {
		h = gzhttp.GzipHandler(h)
	}

	h = s1.authHandler(h)
	h = corsHandler(s, h)
	h = s1.rateLimit(h)

	if s.tp != nil {
		h = otelhttp.NewHandler(h, "sqlbridge.http", otelhttp.WithTracerProvider(s.tp))
	}
	return requestID(h)
}

// requestID keeps the request id sent by the client or creates one, and
// echoes it in the response
func requestID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = xid.New().String()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// corsHandler applies the configured CORS policy
func corsHandler(s *service, h http.Handler) http.Handler {
	if len(s.conf.AllowedOrigins) == 0 {
		return h
	}

	opts := cors.Options{
		AllowedOrigins:   s.conf.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   s.conf.AllowedHeaders,
		AllowCredentials: true,
		Debug:            s.conf.DebugCORS,
	}

	if s.conf.DebugCORS {
		opts.Logger = corsLogger{s.log}
	}
	return cors.New(opts).Handler(h)
}

type corsLogger struct {
	log *zap.SugaredLogger
}

func (l corsLogger) Printf(format string, v ...interface{}) {
	l.log.Debugf(format, v...)
}

// limitBody caps the request body at max_request_bytes
func limitBody(s1 *HttpService, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := s1.Load().(*service)

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.conf.MaxRequestBytes)
		}
		h.ServeHTTP(w, r)
	})
}

// requestContext bounds a conversion by request_timeout
func (s *service) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.conf.RequestTimeout)
}
