// Package network centralizes the fasthttp client used for every outbound
// MWS/PA call, and the one place the required request headers are set.
package network

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/garrettmk/broccoli/schemas"
)

// DefaultClientConfig mirrors the teacher's fasthttp tuning defaults.
var DefaultClientConfig = struct {
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	MaxIdleConnDuration time.Duration
	MaxConnsPerHost     int
}{
	ReadTimeout:         30 * time.Second,
	WriteTimeout:        30 * time.Second,
	MaxIdleConnDuration: 30 * time.Second,
	MaxConnsPerHost:     200,
}

const userAgent = "amazonmws/0.0.1 (Language=Go)"

// ClientFactory holds a single fasthttp.Client, built at construction and
// tuned for outbound MWS/PA calls.
type ClientFactory struct {
	client *fasthttp.Client
}

// NewClientFactory constructs a ClientFactory. soft_time_limit (spec.md §5)
// bounds both read and write; a zero value uses DefaultClientConfig.
func NewClientFactory(softTimeLimit time.Duration) *ClientFactory {
	readWrite := DefaultClientConfig.ReadTimeout
	if softTimeLimit > 0 {
		readWrite = softTimeLimit
	}
	return &ClientFactory{
		client: &fasthttp.Client{
			ReadTimeout:         readWrite,
			WriteTimeout:        readWrite,
			MaxIdleConnDuration: DefaultClientConfig.MaxIdleConnDuration,
			MaxConnsPerHost:     DefaultClientConfig.MaxConnsPerHost,
		},
	}
}

// Do issues method against url, attaching User-Agent and, when body is
// non-empty, Content-MD5 and Content-Type (spec.md §6). It returns the
// response body and status code, or a schemas.GatewayError of taxonomy
// Transport on any connection-level failure.
func (f *ClientFactory) Do(ctx context.Context, method, url string, body []byte) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set("User-Agent", userAgent)

	if len(body) > 0 {
		sum := md5.Sum(body)
		req.Header.Set("Content-MD5", strings.TrimRight(base64.StdEncoding.EncodeToString(sum[:]), "\n"))
		req.Header.Set("Content-Type", "text/xml")
		req.SetBody(body)
	}

	deadline, hasDeadline := ctx.Deadline()
	var err error
	if hasDeadline {
		err = f.client.DoDeadline(req, resp, deadline)
	} else {
		err = f.client.Do(req, resp)
	}
	if err != nil {
		return nil, 0, schemas.NewTransportError(fmt.Sprintf("request to %s failed", url), err)
	}

	respBody := make([]byte, len(resp.Body()))
	copy(respBody, resp.Body())
	return respBody, resp.StatusCode(), nil
}
