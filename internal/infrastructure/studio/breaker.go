package studio

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/rupagen/marketplace-api/internal/core/domain"
)

const (
	defaultTimeout   = 60 * time.Second
	maxFailures      = 5
	breakerOpenFor   = 30 * time.Second
	breakerInterval  = time.Minute
	maxResponseBytes = 20 << 20
)

// errServerStatus marks 5xx answers so they count against the breaker.
var errServerStatus = errors.New("upstream server error")

// response is a fully read upstream answer.
type response struct {
	status      int
	contentType string
	body        []byte
}

// upstream sends requests to one remote service through a circuit breaker
// with a per-call deadline.
type upstream struct {
	name    string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

func newUpstream(name string, client *http.Client, timeout time.Duration, log zerolog.Logger) *upstream {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("upstream", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &upstream{name: name, client: client, cb: cb, timeout: timeout}
}

// do executes build's request. An open breaker comes back as
// domain.ErrUpstreamUnavailable and transport failures or timeouts as
// domain.ErrUpstream. Non-2xx answers are returned to the caller with a nil
// error.
func (u *upstream) do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	out, err := u.cb.Execute(func() (interface{}, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := u.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}
		r := &response{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type"), body: body}
		if resp.StatusCode >= http.StatusInternalServerError {
			return r, errServerStatus
		}
		return r, nil
	})

	if errors.Is(err, errServerStatus) {
		return out.(*response), nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, domain.NewError(domain.ErrUpstreamUnavailable, "%s is temporarily unavailable, try again later", u.name)
	}
	if err != nil {
		return nil, domain.NewError(domain.ErrUpstream, "%s is unreachable", u.name)
	}
	return out.(*response), nil
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}
