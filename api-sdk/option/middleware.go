package option

import (
	"log"
	"net/http"
	"net/http/httputil"
	"regexp"
	"time"
)

// MemberCookieName is the cookie the lobby service identifies members by.
const MemberCookieName = "member_id"

// A member id is the only credential the lobby knows, so it is scrubbed from
// the cookie jar and from membership bodies alike.
var redactions = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`(?im)^(Authorization|X-Api-Key): [^\r\n]+`), "$1: [REDACTED]"},
	{regexp.MustCompile(MemberCookieName + `=[^;\s]+`), MemberCookieName + "=[REDACTED]"},
	{regexp.MustCompile(`"memberId"\s*:\s*"[^"]*"`), `"memberId":"[REDACTED]"`},
}

func redactMemberIDs(s string) string {
	for _, r := range redactions {
		s = r.pattern.ReplaceAllString(s, r.replace)
	}
	return s
}

// WithDebugLog dumps every lobby request and response to logger. Member ids
// are redacted wherever they appear.
func WithDebugLog(logger *log.Logger) RequestOption {
	if logger == nil {
		logger = log.Default()
	}

	return WithMiddleware(func(r *http.Request, next MiddlewareNext) (*http.Response, error) {
		if dump, err := httputil.DumpRequestOut(r, true); err == nil {
			logger.Printf("lobby request %s %s:\n%s\n", r.Method, r.URL.Path, redactMemberIDs(string(dump)))
		}

		start := time.Now()
		resp, err := next(r)
		took := time.Since(start).Round(time.Millisecond)

		if err != nil {
			logger.Printf("lobby request %s %s failed after %s: %v", r.Method, r.URL.Path, took, err)
			return resp, err
		}
		if resp != nil {
			if dump, err := httputil.DumpResponse(resp, true); err == nil {
				logger.Printf("lobby response %d in %s:\n%s\n", resp.StatusCode, took, redactMemberIDs(string(dump)))
			}
		}

		return resp, nil
	})
}
