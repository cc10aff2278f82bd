package serv

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	conf, err := NewConfig("app_name: demo\n", "")
	require.NoError(t, err)

	assert.Equal(t, "demo", conf.AppName)
	assert.Equal(t, defaultHP, conf.HostPort)
	assert.Equal(t, "info", conf.LogLevel)
	assert.Equal(t, "auto", conf.LogFormat)
	assert.True(t, conf.HTTPGZip)
	assert.Equal(t, int64(defaultMaxRequestBytes), conf.MaxRequestBytes)
	assert.Equal(t, defaultRequestTimeout, conf.RequestTimeout)

	assert.Equal(t, "mysql", conf.SourceDialect)
	assert.Equal(t, 1, conf.Workers)
	require.NotNil(t, conf.MarkComplex)
	assert.True(t, *conf.MarkComplex)
}

func TestNewConfigValues(t *testing.T) {
	conf, err := NewConfig(`
source_dialect: postgres
workers: 4
transpile_timeout: 2s
pretty: true
host_port: 127.0.0.1:9000
request_timeout: 5s
rate_limiter:
  rate: 10
  bucket: 20
  ip_header: X-Real-IP
cors_allowed_origins:
  - https://a.example.com
`, "yaml")
	require.NoError(t, err)

	assert.Equal(t, "postgres", conf.SourceDialect)
	assert.Equal(t, 4, conf.Workers)
	assert.Equal(t, 2*time.Second, conf.TranspileTimeout)
	assert.True(t, conf.Pretty)
	assert.Equal(t, "127.0.0.1:9000", conf.HostPort)
	assert.Equal(t, 5*time.Second, conf.RequestTimeout)
	assert.Equal(t, RateLimiter{Rate: 10, Bucket: 20, IPHeader: "X-Real-IP"}, conf.RateLimiter)
	assert.True(t, conf.rateLimiterEnable())
	assert.Equal(t, []string{"https://a.example.com"}, conf.AllowedOrigins)
}

func TestReadInConfigFS(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/config/base.yml", []byte(
		"workers: 2\nlog_level: warn\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/config/dev.yml", []byte(
		"inherits: base\nlog_level: debug\n"), 0o644))

	t.Setenv("SB_SOURCE_DIALECT", "oracle")

	conf, err := ReadInConfigFS("/config/dev.yml", fs)
	require.NoError(t, err)

	assert.Equal(t, 2, conf.Workers)
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, "oracle", conf.SourceDialect)
	assert.Equal(t, "/config", conf.ConfigPath)
	assert.Equal(t, "/config/sql/a.sql", conf.AbsolutePath("sql/a.sql"))
	assert.Equal(t, "/tmp/a.sql", conf.AbsolutePath("/tmp/a.sql"))
}

func TestReadInConfigNestedInherit(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/config/a.yml", []byte("inherits: b\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/config/b.yml", []byte("inherits: c\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/config/c.yml", []byte("workers: 1\n"), 0o644))

	_, err := ReadInConfigFS("/config/a.yml", fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot itself inherit")
}

func TestShouldUseJSONLogs(t *testing.T) {
	tests := []struct {
		format     string
		production bool
		want       bool
	}{
		{"json", false, true},
		{"auto", true, true},
		{"auto", false, false},
		{"simple", true, false},
	}

	for _, tt := range tests {
		c := &Config{Serv: Serv{LogFormat: tt.format, Production: tt.production}}
		assert.Equal(t, tt.want, c.ShouldUseJSONLogs(), "%s/%v", tt.format, tt.production)
	}
}

func TestGetConfigName(t *testing.T) {
	tests := map[string]string{
		"":            "dev",
		"production":  "prod",
		"STAGING":     "stage",
		"test":        "test",
		"development": "dev",
		"qa":          "qa",
	}

	for env, want := range tests {
		t.Setenv("GO_ENV", env)
		assert.Equal(t, want, GetConfigName(), env)
	}
}

func TestInitConfigHostPort(t *testing.T) {
	conf := newTestConfig(t, "host_port: 0.0.0.0:8080\nport: \"9090\"\n")
	s1, _ := newTestServer(t, conf)

	s := s1.Load().(*service)
	assert.Equal(t, "0.0.0.0:9090", s.conf.hostPort)
	assert.Equal(t, serverName, s.conf.AppName)
}

func TestInitConfigInvalid(t *testing.T) {
	conf := newTestConfig(t, "source_dialect: cobol\n")

	_, err := NewService(conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source_dialect")
}

func TestValidateServ(t *testing.T) {
	tests := []struct {
		yaml string
		msg  string
	}{
		{"log_format: xml\n", "log_format must be one of: auto json simple"},
		{"log_level: trace\n", "log_level must be one of"},
		{"rate_limiter:\n  rate: -1\n", "rate_limiter.rate must be at least 0"},
		{"auth:\n  jwt:\n    public_key_type: dsa\n", "auth.jwt.public_key_type must be one of"},
		{"shared_cache:\n  type: redis\n", "shared_cache.url is required"},
		{"shared_cache:\n  ttl: -1s\n", "shared_cache.ttl must be at least 0"},
	}

	for _, tt := range tests {
		err := validateServ(&newTestConfig(t, tt.yaml).Serv)
		require.Error(t, err, tt.yaml)
		assert.Contains(t, err.Error(), tt.msg)
	}

	assert.NoError(t, validateServ(&newTestConfig(t, "log_level: none\n").Serv))
}

func TestConfigSchema(t *testing.T) {
	b, err := ConfigSchema()
	require.NoError(t, err)

	var schema struct {
		Title      string                            `json:"title"`
		Properties map[string]map[string]interface{} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(b, &schema))

	assert.Equal(t, "sqlbridge configuration", schema.Title)
	assert.Equal(t, "Log Level", schema.Properties["log_level"]["title"])
	assert.Contains(t, schema.Properties, "workers")
	assert.Contains(t, schema.Properties, "transpile_timeout")
	assert.NotContains(t, schema.Properties, "hostPort")
}
