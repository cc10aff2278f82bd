package serv

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dosco/sqlbridge/core"
	"github.com/dosco/sqlbridge/serv/internal/util"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	logLevelNone int = iota
	logLevelInfo
	logLevelWarn
	logLevelError
	logLevelDebug
)

const (
	servStarting int32 = iota
	servListening
)

const (
	envPrefix              = "SB_"
	defaultMaxRequestBytes = 1 << 20
	defaultRequestTimeout  = 30 * time.Second
)

// HttpService holds the running service. The service is swapped atomically
// when the configuration is reloaded so handlers always load it per request.
type HttpService struct {
	atomic.Value
	done     chan struct{}
	doneOnce sync.Once
}

type service struct {
	log      *zap.SugaredLogger   // sugared logger
	zlog     *zap.Logger          // faster logger
	logLevel int                  // log level
	conf     *Config              // parsed config
	sb       *core.Bridge         // converter
	srv      *http.Server         // http server
	limiter  *rateLimiter         // per client rate limiter
	tracer   trace.Tracer         // request tracer
	tp       trace.TracerProvider // provider of a real tracer
	tracing  *tracing             // owned tracer provider
	auth     *authenticator       // token verification
	shared   sharedCache          // cache shared between instances
	coreOpts []core.Option        // options passed to the converter
	state    atomic.Int32         // server state
	closeFn  func()               // called on shutdown
}

type Option func(*service) error

// NewService creates a new sqlbridge service
func NewService(conf *Config, options ...Option) (*HttpService, error) {
	s1 := HttpService{done: make(chan struct{})}

	s, err := newService(conf, options...)
	if err != nil {
		return nil, err
	}

	s1.Store(s)

	if s.conf.WatchAndReload {
		initConfigWatcher(&s1)
	}

	return &s1, nil
}

// newService creates a new service
func newService(conf *Config, options ...Option) (*service, error) {
	if conf == nil {
		return nil, errors.New("config is nil")
	}

	zlog := util.NewLogger(conf.ShouldUseJSONLogs())

	s := &service{
		conf: conf,
		zlog: zlog,
		log:  zlog.Sugar(),
	}

	for _, op := range options {
		if err := op(s); err != nil {
			return nil, err
		}
	}

	if err := s.init(); err != nil {
		s.close()
		return nil, err
	}

	return s, nil
}

// init initializes the service from its config
func (s *service) init() (err error) {
	initLogLevel(s)

	if err = s.initConfig(); err != nil {
		return
	}

	if err = s.initTracing(); err != nil {
		return
	}

	if s.conf.rateLimiterEnable() {
		if s.limiter, err = newRateLimiter(s.conf.RateLimiter); err != nil {
			return errors.Wrap(err, "rate limiter")
		}
	}

	if s.auth, err = newAuthenticator(s.conf); err != nil {
		return errors.Wrap(err, "auth")
	}

	opts := append([]core.Option{core.OptionSetLogger(s.zlog)}, s.coreOpts...)

	if s.conf.Cache.Type != "" {
		if s.shared, err = newSharedCache(s.conf.Cache); err != nil {
			return errors.Wrap(err, "shared cache")
		}
		opts = append(opts, core.OptionSetSharedCache(s.shared))
	}

	if s.sb, err = core.New(&s.conf.Core, opts...); err != nil {
		return errors.Wrap(err, "failed to initialize converter")
	}
	return
}

// OptionSetZapLogger sets the logger used by the service and the converter
func OptionSetZapLogger(zlog *zap.Logger) Option {
	return func(s *service) error {
		if zlog == nil {
			return errors.New("logger is nil")
		}
		s.zlog = zlog
		s.log = zlog.Sugar()
		return nil
	}
}

// OptionSetCoreOptions passes options through to the converter core
func OptionSetCoreOptions(opts ...core.Option) Option {
	return func(s *service) error {
		s.coreOpts = append(s.coreOpts, opts...)
		return nil
	}
}

// OptionSetTracerProvider sets the provider used to trace requests. It
// enables tracing regardless of the enable_tracing setting
func OptionSetTracerProvider(tp trace.TracerProvider) Option {
	return func(s *service) error {
		if tp == nil {
			return errors.New("tracer provider is nil")
		}
		s.tracer = tp.Tracer(tracerName)
		s.tp = tp
		return nil
	}
}

// Start the sqlbridge service
func (s1 *HttpService) Start() error {
	startHTTP(s1)
	return nil
}

// Close stops the background work of the service such as the config
// watcher. It does not stop the HTTP server.
func (s1 *HttpService) Close() {
	s1.doneOnce.Do(func() { close(s1.done) })
}

// Handler returns the HTTP handler serving all routes, for use with an
// existing http.Server
func (s1 *HttpService) Handler() (http.Handler, error) {
	return routesHandler(s1, newMux())
}

// Bridge returns the converter used by the service
func (s1 *HttpService) Bridge() *core.Bridge {
	return s1.Load().(*service).sb
}

// Reload re-reads the config file the service was started with and swaps
// in a service built from it
func (s1 *HttpService) Reload() error {
	s := s1.Load().(*service)

	cf := s.conf.ConfigFileUsed()
	if cf == "" {
		return errors.New("service was not started from a config file")
	}

	conf, err := ReadInConfig(cf)
	if err != nil {
		return errors.Wrapf(err, "reading %s", cf)
	}

	if conf.HostPort != s.conf.HostPort || conf.Host != s.conf.Host || conf.Port != s.conf.Port {
		s.log.Warn("host and port changes need a restart to take effect")
	}

	ns, err := newService(conf, OptionSetZapLogger(s.zlog), OptionSetCoreOptions(s.coreOpts...))
	if err != nil {
		return err
	}
	if s.tracing == nil && s.tracer != nil && ns.tracing == nil {
		ns.tracer, ns.tp = s.tracer, s.tp
	}
	ns.srv = s.srv
	ns.state.Store(s.state.Load())

	s1.Store(ns)
	s.close()

	s.log.Infof("reloaded config: %s", cf)
	return nil
}

// close releases what the service owns, the HTTP server excepted
func (s *service) close() {
	if s.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.tracing.shutdown(ctx)
	}
	if s.shared != nil {
		if err := s.shared.Close(); err != nil {
			s.log.Warnf("shared cache: %s", err)
		}
	}
}
