package serv

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-http-utils/headers"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version string

const (
	serverName = "sqlbridge"
	defaultHP  = "0.0.0.0:8080"
)

// Start the HTTP server
func startHTTP(s1 *HttpService) {
	s := s1.Load().(*service)

	routes, err := routesHandler(s1, newMux())
	if err != nil {
		s.log.Fatalf("error setting up routes: %s", err)
	}

	s.srv = &http.Server{
		Addr:              s.conf.hostPort,
		Handler:           routes,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.conf.RequestTimeout + 10*time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		if err := s.srv.Shutdown(context.Background()); err != nil {
			s.log.Warn("shutdown signal received")
		}
		close(idleConnsClosed)
	}()

	s.srv.RegisterOnShutdown(func() {
		// the service may have been swapped by a config reload
		cur := s1.Load().(*service)
		s1.Close()
		if cur.closeFn != nil {
			cur.closeFn()
		}
		cur.close()
		cur.log.Info("shutdown complete")
	})

	ver := version

	if ver == "" {
		ver = "not-set"
	}

	fields := []zapcore.Field{
		zap.String("version", ver),
		zap.String("host-port", s.conf.hostPort),
		zap.String("app-name", s.conf.AppName),
		zap.String("env", os.Getenv("GO_ENV")),
		zap.Bool("production", s.conf.Production),
		zap.String("source-dialect", s.conf.SourceDialect),
		zap.Int("workers", s.conf.Workers),
	}

	s.zlog.Info("sqlbridge started", fields...)
	printDevModeInfo(s)

	l, err := net.Listen("tcp", s.conf.hostPort)
	if err != nil {
		s.log.Fatalf("failed to init port: %s", err)
	}

	// signal we are open for business.
	s.state.Store(servListening)

	if err := s.srv.Serve(l); err != http.ErrServerClosed {
		s.log.Fatalf("failed to start: %s", err)
	}
	<-idleConnsClosed
}

// Set the server header
func setServerHeader(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headers.Server, serverName)
		h.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// printDevModeInfo prints useful development information on startup
func printDevModeInfo(s *service) {
	if s.conf.Production {
		return
	}

	// Convert 0.0.0.0 to localhost for display
	hostPort := s.conf.hostPort
	displayHost := hostPort
	if strings.HasPrefix(hostPort, "0.0.0.0:") {
		displayHost = "localhost" + hostPort[7:]
	}

	fmt.Println()
	fmt.Println("Development Server URLs")
	fmt.Println("───────────────────────")
	fmt.Printf("  Convert:     http://%s%s\n", displayHost, routeSQL)
	fmt.Printf("  Analyze:     http://%s%s\n", displayHost, routeAnalyze)
	fmt.Printf("  Dialects:    http://%s%s\n", displayHost, routeDialects)
	fmt.Printf("  WebSocket:   ws://%s%s\n", displayHost, routeSQLWS)
	fmt.Printf("  Schema:      http://%s%s\n", displayHost, routeSchema)
	fmt.Println()
}
