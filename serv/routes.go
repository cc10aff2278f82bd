package serv

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	routeSQL      = "/api/v1/sql"
	routeAnalyze  = "/api/v1/sql/analyze"
	routeDialects = "/api/v1/sql/dialects"
	routeSQLWS    = "/api/v1/sql/ws"
	routeSchema   = "/api/v1/config/schema"
	healthRoute   = "/health"
)

type Mux interface {
	Handle(string, http.Handler)
	ServeHTTP(http.ResponseWriter, *http.Request)
}

func newMux() Mux {
	return chi.NewRouter()
}

// routesHandler is the main handler for all routes
func routesHandler(s1 *HttpService, mux Mux) (http.Handler, error) {
	// Healthcheck API
	mux.Handle(healthRoute, healthCheckHandler(s1))

	// SQL conversion API
	mux.Handle(routeSQL, s1.apiV1(s1.sqlHandler()))
	mux.Handle(routeAnalyze, s1.apiV1(s1.analyzeHandler()))
	mux.Handle(routeDialects, s1.apiV1(dialectsHandler()))
	mux.Handle(routeSchema, s1.apiV1(schemaHandler()))

	// Streaming conversions, not compressed
	mux.Handle(routeSQLWS, requestID(s1.rateLimit(s1.authHandler(s1.wsHandler()))))

	return setServerHeader(mux), nil
}
