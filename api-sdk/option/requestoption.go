package option

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hilthontt/lobby/api-sdk/internal/requestconfig"
)

// RequestOption is an option for the requests made by the lobby API client,
// such as headers, base URL, or the member the request acts as.
type RequestOption = requestconfig.RequestOption

type Middleware = requestconfig.Middleware

type MiddlewareNext = requestconfig.MiddlewareNext

// WithBaseURL points the client at a lobby server, e.g.
// "https://lobby.example.com/api/".
func WithBaseURL(base string) RequestOption {
	u, err := url.Parse(base)
	return func(r *requestconfig.RequestConfig) error {
		if err != nil {
			return fmt.Errorf("requestoption: WithBaseURL failed to parse url %s", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		r.BaseURL = u
		return nil
	}
}

func WithEnvironmentDev() RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.BaseURL = requestconfig.DefaultBaseURL()
		return nil
	}
}

func WithHTTPClient(client requestconfig.HTTPDoer) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		if client == nil {
			return fmt.Errorf("requestoption: custom http client cannot be nil")
		}
		r.HTTPClient = client
		return nil
	}
}

func WithHeader(key, value string) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.Request.Header.Set(key, value)
		return nil
	}
}

// WithMemberID makes the request act as the given member, the same way the
// cookie set by member creation does.
func WithMemberID(memberID string) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.Request.AddCookie(&http.Cookie{
			Name:  MemberCookieName,
			Value: base64.StdEncoding.EncodeToString([]byte(memberID)),
		})
		return nil
	}
}

// WithMiddleware appends middlewares; they run in the order given.
func WithMiddleware(middlewares ...Middleware) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.Middlewares = append(r.Middlewares, middlewares...)
		return nil
	}
}

func WithRequestTimeout(dur time.Duration) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.RequestTimeout = dur
		return nil
	}
}

// WithResponseInto stores the raw response, e.g. to read its cookies. The body
// is already consumed when the call returns.
func WithResponseInto(dst **http.Response) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.ResponseInto = dst
		return nil
	}
}
