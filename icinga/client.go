package icinga

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/icingautil/icinga-reconcile/metrics"
	"github.com/icingautil/icinga-reconcile/reconcile"
)

const defaultUserAgent = "icinga-reconcile"

type Httper interface {
	Do(req *http.Request) (*http.Response, error)
}

// client is the HTTPS transport for one invocation. It implements
// reconcile.Sender: exactly one request per Send, basic auth, no retries.
type client struct {
	baseURL  string
	username string
	password string
	http     Httper
	metrics  *metrics.Metrics
}

// New builds a client from the validated request. The TLS policy is
// scoped to this client's own transport, never to process-wide state.
func New(req reconcile.Request, timeout time.Duration, metrics *metrics.Metrics) reconcile.Sender {
	transport := cleanhttp.DefaultTransport()
	if !req.ValidateCerts {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &client{
		baseURL:  req.BaseURL,
		username: req.Username,
		password: req.Password,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		metrics: metrics,
	}
}

func (c *client) Send(ctx context.Context, call reconcile.Call) (*reconcile.Response, error) {
	var body io.Reader
	if len(call.Body) > 0 {
		body = bytes.NewReader(call.Body)
	}

	url := call.URL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, call.Method, url, body)
	if err != nil {
		c.metrics.IncAPIRequest(call.Method, 0)
		return nil, fmt.Errorf("build request, err=%w", err)
	}

	for k, v := range call.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", defaultUserAgent)
	}
	if len(call.Body) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.username, c.password)

	slog.Debug("Sending API request", "method", call.Method, "url", url)
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.IncAPIRequest(call.Method, 0)
		return nil, fmt.Errorf("api request, err=%w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncAPIRequest(call.Method, resp.StatusCode)
		return nil, fmt.Errorf("read response body, err=%w", err)
	}

	c.metrics.IncAPIRequest(call.Method, resp.StatusCode)
	return &reconcile.Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}
