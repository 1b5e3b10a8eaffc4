package sheets

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// errServerSide marks a 5xx answer so the breaker counts it as a failure;
// the response itself is still handed back to the caller.
var errServerSide = errors.New("upstream server error")

// breakerTransport fails fast with gobreaker.ErrOpenState while the upstream
// keeps failing. It never retries.
type breakerTransport struct {
	rt      http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func newBreakerTransport(name string, timeout time.Duration, rt http.RoundTripper, log zerolog.Logger) breakerTransport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	st := gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state change")
		},
	}
	return breakerTransport{rt: rt, breaker: gobreaker.NewCircuitBreaker[*http.Response](st)}
}

func (bt breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := bt.breaker.Execute(func() (*http.Response, error) {
		resp, err := bt.rt.RoundTrip(req)
		if err == nil && resp.StatusCode >= 500 {
			return resp, errServerSide
		}
		return resp, err
	})
	if errors.Is(err, errServerSide) {
		return resp, nil
	}
	return resp, err
}

// State exposes the breaker state, mostly for tests and health output.
func (bt breakerTransport) State() gobreaker.State { return bt.breaker.State() }
