package directory

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	perrors "github.com/jmgilman/go/errors"
)

// Response is the provider reply handed back by a Requester.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// Requester performs one outbound HTTP call with the credentials of the
// given slot. Implementations own authentication (bearer/SSWS header
// construction, token refresh) and the HTTP client itself, including its
// timeout. A connection-level failure is returned as an error; any HTTP
// response, whatever its status, is returned as a Response.
type Requester interface {
	Do(ctx context.Context, slot int, method, rawURL string, query url.Values) (*Response, error)
}

// Transport wraps a Requester with rate-limit admission and 429-aware
// retry. Credential slots are advanced round-robin across calls.
//
// A 429 means the provider will eventually accept the call, so it is
// retried indefinitely, waiting out the provider-declared reset time
// (bounded only by the caller's context). Every other non-2xx status is
// surfaced immediately as a permanent error carrying the status code and
// body. Connection-level errors are not retried here.
type Transport struct {
	req     Requester
	limiter *Limiter
	log     *Logger

	mu   sync.Mutex
	next int
}

// NewTransport creates a transport over the given requester and limiter.
func NewTransport(req Requester, limiter *Limiter, log *Logger) *Transport {
	if log == nil {
		log = NewNopLogger()
	}
	return &Transport{req: req, limiter: limiter, log: log}
}

// Get performs a rate-limited GET.
func (t *Transport) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	return t.Do(ctx, http.MethodGet, rawURL, query)
}

// Do performs one rate-limited call and classifies the response.
func (t *Transport) Do(ctx context.Context, method, rawURL string, query url.Values) (*Response, error) {
	slot := t.advance()
	for {
		if err := t.limiter.Admit(ctx, slot); err != nil {
			return nil, perrors.Wrap(err, perrors.CodeTimeout, "rate limiter wait interrupted")
		}
		resp, err := t.req.Do(ctx, slot, method, rawURL, query)
		if err != nil {
			return nil, perrors.Wrapf(err, perrors.CodeNetwork, "request failed: %s %s", method, rawURL)
		}
		if resp.Status == http.StatusTooManyRequests {
			wait := retryAfter(resp.Header, time.Now())
			t.log.Debug(ctx, "rate limited by provider, waiting",
				"url", rawURL, "slot", slot, "wait", wait)
			if err := sleepContext(ctx, wait); err != nil {
				return nil, perrors.Wrap(err, perrors.CodeTimeout, "rate limit wait interrupted")
			}
			continue
		}
		if resp.Status < 200 || resp.Status > 299 {
			return nil, statusError(resp, method, rawURL)
		}
		return resp, nil
	}
}

// advance returns the next credential slot, round-robin.
func (t *Transport) advance() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.limiter.Slots() <= 1 {
		return 0
	}
	t.next = (t.next + 1) % t.limiter.Slots()
	return t.next
}

// retryAfter derives the wait time from the provider's reset headers.
// Retry-After carries delay seconds; X-Rate-Limit-Reset carries an epoch
// timestamp. Falls back to the limiter poll interval when neither parses.
func retryAfter(h http.Header, now time.Time) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if v := h.Get("X-Rate-Limit-Reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Unix(epoch, 0).Sub(now); d > 0 {
				return d
			}
		}
	}
	return defaultPollInterval
}

// statusError maps a non-2xx response to a classified error carrying the
// status code and body for the caller to log or abort on.
func statusError(resp *Response, method, rawURL string) error {
	var code perrors.ErrorCode
	switch resp.Status {
	case http.StatusNotFound:
		code = perrors.CodeNotFound
	case http.StatusUnauthorized:
		code = perrors.CodeUnauthorized
	case http.StatusForbidden:
		code = perrors.CodeForbidden
	case http.StatusConflict:
		code = perrors.CodeConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = perrors.CodeInvalidInput
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		code = perrors.CodeTimeout
	case http.StatusServiceUnavailable:
		code = perrors.CodeUnavailable
	default:
		code = perrors.CodeInternal
	}
	err := perrors.Newf(code, "unexpected status %d: %s %s", resp.Status, method, rawURL)
	return perrors.WithContextMap(err, map[string]interface{}{
		"status": resp.Status,
		"url":    rawURL,
		"body":   string(resp.Body),
	})
}
