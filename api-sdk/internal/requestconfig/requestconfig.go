package requestconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/hilthontt/lobby/api-sdk/internal"
)

// This interface is primarily used to describe an [*http.Client], but also
// supports custom HTTP implementations.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestConfig represents all the state related to one request.
//
// Editing the variables inside RequestConfig directly is unstable api. Prefer
// composing the RequestOption instead if possible.
type RequestConfig struct {
	RequestTimeout time.Duration
	Context        context.Context
	Request        *http.Request
	BaseURL        *url.URL
	// DefaultBaseURL will be used if BaseURL is not explicitly overridden using
	// WithBaseURL.
	DefaultBaseURL *url.URL
	HTTPClient     HTTPDoer
	Middlewares    []Middleware
	// If ResponseBodyInto not nil, then we will attempt to deserialize into
	// ResponseBodyInto. If Destination is a *[]byte, then it will return the
	// body as is.
	ResponseBodyInto any
	// ResponseInto copies the *http.Response of the corresponding request into
	// the given address
	ResponseInto **http.Response
	Body         io.Reader
}

type Middleware = func(*http.Request, MiddlewareNext) (*http.Response, error)

type MiddlewareNext = func(*http.Request) (*http.Response, error)

type RequestOption = func(*RequestConfig) error

// Error is returned for every response with a status of 400 or above.
type Error struct {
	StatusCode int
	Status     string `json:"error"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("lobby api: %d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("lobby api: %d %s: %s", e.StatusCode, e.Status, e.Message)
}

var defaultBaseURL = &url.URL{Scheme: "http", Host: "localhost:8080", Path: "/api/"}

func DefaultBaseURL() *url.URL {
	u := *defaultBaseURL
	return &u
}

func getDefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":   fmt.Sprintf("Lobby/Client %s", internal.PackageVersion),
		"Accept":       "application/json",
		"X-Client-OS":  runtime.GOOS,
		"X-Client-Run": runtime.Version(),
	}
}

// NewRequestConfig builds the request for method and path, which is resolved
// against the base URL. body, when not nil, is sent as JSON.
func NewRequestConfig(ctx context.Context, method, path string, body, dst any, opts ...RequestOption) (*RequestConfig, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, "", reader)
	if err != nil {
		return nil, err
	}
	for k, v := range getDefaultHeaders() {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	cfg := RequestConfig{
		Context:          ctx,
		Request:          req,
		DefaultBaseURL:   DefaultBaseURL(),
		HTTPClient:       http.DefaultClient,
		ResponseBodyInto: dst,
		Body:             reader,
	}
	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}

	base := cfg.BaseURL
	if base == nil {
		base = cfg.DefaultBaseURL
	}
	if !strings.HasSuffix(base.Path, "/") {
		withSlash := *base
		withSlash.Path += "/"
		base = &withSlash
	}

	u, err := base.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	cfg.Request.URL = u
	cfg.Request.Host = u.Host

	return &cfg, nil
}

func (cfg *RequestConfig) Apply(opts ...RequestOption) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Execute sends the request through the middleware chain and decodes the
// response.
func (cfg *RequestConfig) Execute() error {
	if cfg.RequestTimeout > 0 {
		ctx, cancel := context.WithTimeout(cfg.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		cfg.Request = cfg.Request.WithContext(ctx)
	}

	handler := cfg.HTTPClient.Do
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		mw, next := cfg.Middlewares[i], handler
		handler = func(r *http.Request) (*http.Response, error) {
			return mw(r, next)
		}
	}

	res, err := handler(cfg.Request)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if cfg.ResponseInto != nil {
		*cfg.ResponseInto = res
	}

	if res.StatusCode >= 400 {
		apiErr := &Error{StatusCode: res.StatusCode}
		_ = json.NewDecoder(res.Body).Decode(apiErr)
		if apiErr.Status == "" {
			apiErr.Status = http.StatusText(res.StatusCode)
		}
		return apiErr
	}

	if cfg.ResponseBodyInto == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	if raw, ok := cfg.ResponseBodyInto.(*[]byte); ok {
		*raw, err = io.ReadAll(res.Body)
		return err
	}

	if err := json.NewDecoder(res.Body).Decode(cfg.ResponseBodyInto); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func ExecuteNewRequest(ctx context.Context, method, path string, body, dst any, opts ...RequestOption) error {
	cfg, err := NewRequestConfig(ctx, method, path, body, dst, opts...)
	if err != nil {
		return err
	}
	return cfg.Execute()
}
