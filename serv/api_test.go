package serv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const createTable = "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(50));"

func newTestConfig(t *testing.T, yaml string) *Config {
	conf, err := NewConfig(yaml, "yaml")
	require.NoError(t, err)
	return conf
}

func newTestServer(t *testing.T, conf *Config, opts ...Option) (*HttpService, *httptest.Server) {
	if conf == nil {
		conf = newTestConfig(t, "app_name: test\n")
	}
	opts = append([]Option{OptionSetZapLogger(zaptest.NewLogger(t))}, opts...)

	s1, err := NewService(conf, opts...)
	require.NoError(t, err)
	t.Cleanup(s1.Close)

	h, err := s1.Handler()
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return s1, ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	b, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", strings.NewReader(string(b)))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestTranspileEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+routeSQL, SQLRequest{
		SQL:  createTable,
		From: "mysql",
		To:   "postgres",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, serverName, resp.Header.Get("Server"))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var res TranspileResponse
	decodeBody(t, resp, &res)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"CREATE TABLE t (id INTEGER PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY, name VARCHAR(50));"},
		res.Transpiled)
	assert.Equal(t, "mysql", res.From)
	assert.Equal(t, "postgres", res.To)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Methods.Simple)
	assert.Equal(t, "simple", string(res.Primary))
	assert.NotEmpty(t, res.Note)
	assert.NotNil(t, res.Warnings)
	assert.Empty(t, res.Statements)
}

func TestTranspileResponseShape(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+routeSQL, map[string]interface{}{
		"sql":          "WITH RECURSIVE h AS (SELECT 1 AS n) SELECT n FROM h",
		"from_dialect": "mysql",
		"to_dialect":   "postgres",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw struct {
		Transpiled []string        `json:"transpiled"`
		Features   map[string]bool `json:"features_detected"`
	}
	decodeBody(t, resp, &raw)

	require.Len(t, raw.Transpiled, 1)
	assert.Contains(t, strings.ToLower(raw.Transpiled[0]), "with recursive h as")
	assert.True(t, raw.Features["has_cte"])
	assert.True(t, raw.Features["has_recursive_cte"])
	assert.False(t, raw.Features["has_pivot"])
	assert.True(t, raw.Features["is_complex"])
	assert.Contains(t, raw.Features, "has_window_functions")
}

func TestTranspileEndpointDefaults(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+routeSQL, map[string]interface{}{
		"sql":    "SELECT id, ROW_NUMBER() OVER (ORDER BY id) AS rn FROM a",
		"detail": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res TranspileResponse
	decodeBody(t, resp, &res)

	assert.Equal(t, "mysql", res.From)
	assert.Equal(t, "postgres", res.To)
	assert.Equal(t, 1, res.Methods.Complex)
	assert.Equal(t, "complex", string(res.Primary))
	assert.True(t, res.Features.WindowFunctions)
	assert.True(t, res.Features.IsComplex())
	require.Len(t, res.Statements, 1)
	assert.Equal(t, "complex", string(res.Statements[0].Strategy))
}

func TestSQLEndpointErrors(t *testing.T) {
	_, ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   interface{}
		status int
		msg    string
	}{
		{"unknown dialect", SQLRequest{SQL: "SELECT 1", To: "cobol"}, http.StatusBadRequest, "unknown dialect"},
		{"empty sql", SQLRequest{SQL: "  "}, http.StatusBadRequest, "no sql to convert"},
		{"unknown action", SQLRequest{Action: "explain", SQL: "SELECT 1"}, http.StatusBadRequest, "unknown action"},
		{"bad json", "{", http.StatusBadRequest, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if s, ok := tt.body.(string); ok {
				r, err := http.Post(ts.URL+routeSQL, "application/json", strings.NewReader(s))
				require.NoError(t, err)
				defer r.Body.Close()
				resp = r
			} else {
				resp = postJSON(t, ts.URL+routeSQL, tt.body)
			}

			assert.Equal(t, tt.status, resp.StatusCode)

			var res errorResponse
			decodeBody(t, resp, &res)
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, tt.msg)
		})
	}
}

func TestSQLEndpointMethod(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + routeSQL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAnalyzeEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)

	script := "SELECT 1;\nWITH x AS (SELECT 1) SELECT * FROM x;"

	for _, req := range []struct {
		route string
		body  SQLRequest
	}{
		{routeAnalyze, SQLRequest{SQL: script}},
		{routeSQL, SQLRequest{Action: actionAnalyze, SQL: script}},
	} {
		resp := postJSON(t, ts.URL+req.route, req.body)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res AnalyzeResponse
		decodeBody(t, resp, &res)

		assert.True(t, res.Success)
		assert.Equal(t, 2, res.Statements)
		assert.Equal(t, 2, res.Lines)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "simple", string(res.Items[0].Strategy))
		assert.Equal(t, "complex", string(res.Items[1].Strategy))
	}
}

func TestDialectsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + routeDialects)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res DialectsResponse
	decodeBody(t, resp, &res)

	assert.True(t, res.Success)
	require.Len(t, res.Dialects, 8)

	var names []string
	for _, d := range res.Dialects {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.DisplayName)
	}
	assert.Contains(t, names, "mysql")
	assert.Contains(t, names, "bigquery")

	// the action form answers the same
	resp2 := postJSON(t, ts.URL+routeSQL, SQLRequest{Action: actionDialects})
	var res2 DialectsResponse
	decodeBody(t, resp2, &res2)
	assert.Equal(t, res, res2)
}

func TestSchemaEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + routeSchema)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var schema struct {
		Properties map[string]interface{} `json:"properties"`
	}
	decodeBody(t, resp, &schema)
	assert.Contains(t, schema.Properties, "source_dialect")
	assert.Contains(t, schema.Properties, "host_port")
	assert.Contains(t, schema.Properties, "rate_limiter")
}

func TestHealthCheck(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + healthRoute)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res map[string]interface{}
	decodeBody(t, resp, &res)
	assert.Equal(t, "ok", res["status"])
}

func TestRequestBodyLimit(t *testing.T) {
	conf := newTestConfig(t, "max_request_bytes: 64\n")
	_, ts := newTestServer(t, conf)

	resp := postJSON(t, ts.URL+routeSQL, SQLRequest{SQL: strings.Repeat("SELECT 1; ", 20)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestCompression(t *testing.T) {
	_, ts := newTestServer(t, nil)

	body, err := json.Marshal(SQLRequest{SQL: strings.Repeat(createTable+"\n", 50)})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+routeSQL, strings.NewReader(string(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	// a transport that does not decompress on its own
	resp, err := (&http.Transport{DisableCompression: true}).RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestCORS(t *testing.T) {
	conf := newTestConfig(t, "cors_allowed_origins: [\"http://app.example.com\"]\n")
	_, ts := newTestServer(t, conf)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+routeSQL, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestConvertStatus(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, convertStatus(context.DeadlineExceeded))
	assert.Equal(t, http.StatusServiceUnavailable, convertStatus(context.Canceled))
}

func TestRequestID(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+routeSQL, SQLRequest{SQL: "SELECT 1"})
	id := resp.Header.Get(requestIDHeader)
	assert.Len(t, id, 20)

	req, err := http.NewRequest(http.MethodGet, ts.URL+routeDialects, nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}
