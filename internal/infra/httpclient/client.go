// Package httpclient is the single HTTP entry point of the provider adapters.
// It sends one request, never retries, and reports failure as a *TransportError
// whose Kind the classifier turns into a source error.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout applies to requests that do not set their own.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 5 << 20

	userAgent = "newshub/1.0 (+https://github.com/newshub)"
)

// Request describes one outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    []byte
	// Timeout bounds this request; zero means the client default.
	Timeout time.Duration
}

// Response is a successful (2xx) reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Options configure a Client.
type Options struct {
	Timeout     time.Duration
	MaxBodySize int64
	// Limiter, if set, is waited on before every request.
	Limiter *rate.Limiter
	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client sends requests through resty.
type Client struct {
	rc          *resty.Client
	timeout     time.Duration
	maxBodySize int64
	limiter     *rate.Limiter
}

// New builds a Client, filling zero options with defaults.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	rc := resty.New().
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0).
		SetLogger(restyLogger{l: opts.Logger.With(slog.String("component", "httpclient"))})
	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}

	return &Client{
		rc:          rc,
		timeout:     opts.Timeout,
		maxBodySize: opts.MaxBodySize,
		limiter:     opts.Limiter,
	}
}

// Do performs req. A 2xx reply returns a Response; anything else returns a
// *TransportError. The caller's ctx and the request timeout both bound the call.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if err := validateURL(req.URL); err != nil {
		return nil, &TransportError{Kind: KindRequest, Method: method, URL: req.URL, Err: err}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{
				Kind: KindNoResponse, Method: method, URL: req.URL,
				Err: fmt.Errorf("rate limiter: %w", err),
			}
		}
	}

	r := c.rc.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, &TransportError{Kind: KindNoResponse, Method: method, URL: req.URL, Err: unwrapURLError(err)}
	}

	raw := resp.RawBody()
	defer func() { _ = raw.Close() }()

	body, err := io.ReadAll(io.LimitReader(raw, c.maxBodySize))
	if err != nil {
		return nil, &TransportError{
			Kind: KindNoResponse, Method: method, URL: req.URL,
			Err: fmt.Errorf("read body: %w", err),
		}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, &TransportError{
			Kind:       KindStatus,
			Method:     method,
			URL:        req.URL,
			StatusCode: status,
			Snippet:    snippet(body),
		}
	}

	return &Response{StatusCode: status, Header: resp.Header(), Body: body}, nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("empty URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// unwrapURLError drops the *url.Error layer so messages do not repeat the URL.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}

// restyLogger routes resty's internal warnings into slog.
type restyLogger struct {
	l *slog.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.l.Error(fmt.Sprintf(format, v...))
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.l.Warn(fmt.Sprintf(format, v...))
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.l.Debug(fmt.Sprintf(format, v...))
}
