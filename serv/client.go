package serv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Client talks to a running sqlbridge service
type Client struct {
	rc *resty.Client
}

// NewClient creates a client for the service at baseURL, for example
// http://localhost:8080
func NewClient(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	return &Client{rc: rc}
}

// Transpile converts a script on the service
func (c *Client) Transpile(ctx context.Context, req SQLRequest) (*TranspileResponse, error) {
	req.Action = actionTranspile

	var res TranspileResponse
	if err := c.post(ctx, routeSQL, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Analyze asks the service what a script contains
func (c *Client) Analyze(ctx context.Context, req SQLRequest) (*AnalyzeResponse, error) {
	var res AnalyzeResponse
	if err := c.post(ctx, routeAnalyze, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Dialects lists the dialects the service supports
func (c *Client) Dialects(ctx context.Context) (*DialectsResponse, error) {
	var res DialectsResponse
	var apiErr errorResponse

	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&res).
		SetError(&apiErr).
		Get(routeDialects)
	if err := checkResponse(resp, err, apiErr); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, route string, body, result interface{}) error {
	var apiErr errorResponse

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(route)
	return checkResponse(resp, err, apiErr)
}

func checkResponse(resp *resty.Response, err error, apiErr errorResponse) error {
	if err != nil {
		return errors.Wrap(err, "sqlbridge service")
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return fmt.Errorf("sqlbridge service: %s: %s", resp.Status(), msg)
	}
	return nil
}
