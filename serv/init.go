package serv

import (
	"fmt"
	"strings"
)

// initLogLevel initializes the log level
func initLogLevel(s *service) {
	switch s.conf.LogLevel {
	case "debug":
		s.logLevel = logLevelDebug
	case "error":
		s.logLevel = logLevelError
	case "warn":
		s.logLevel = logLevelWarn
	case "info":
		s.logLevel = logLevelInfo
	default:
		s.logLevel = logLevelNone
	}
}

// initConfig initializes the configuration
func (s *service) initConfig() error {
	c := s.conf

	if err := c.Core.Validate(); err != nil {
		return err
	}

	if err := validateServ(&c.Serv); err != nil {
		return err
	}

	if c.MaxRequestBytes <= 0 {
		c.MaxRequestBytes = defaultMaxRequestBytes
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}

	if c.AppName == "" {
		c.AppName = serverName
	}

	hp := strings.SplitN(c.HostPort, ":", 2)

	if len(hp) == 2 {
		if c.Host != "" {
			hp[0] = c.Host
		}

		if c.Port != "" {
			hp[1] = c.Port
		}

		c.hostPort = fmt.Sprintf("%s:%s", hp[0], hp[1])
	}

	if c.hostPort == "" {
		c.hostPort = defaultHP
	}

	if c.Production && c.WatchAndReload {
		s.log.Warn("reload_on_config_change is disabled in production")
		c.WatchAndReload = false
	}
	return nil
}
