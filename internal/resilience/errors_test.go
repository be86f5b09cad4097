package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransientExplicitError(t *testing.T) {
	err := NewTransientError(errors.New("api overloaded"), 529)
	assert.True(t, IsTransient(err))

	wrapped := fmt.Errorf("classify page 3: %w", NewTransientError(errors.New("rate limited"), 429))
	assert.True(t, IsTransient(wrapped))
}

func TestIsTransientNilAndPermanentErrors(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("invalid_request_error: max_tokens too large")))
	assert.False(t, IsTransient(errors.New("authentication_error: invalid x-api-key")))
}

func TestIsTransientAPIErrorBodies(t *testing.T) {
	// Error strings the messages endpoint produces under load; each must
	// trigger a retry even without a typed error in the chain.
	bodies := []string{
		`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
		`{"type":"error","error":{"type":"rate_limit_error","message":"Number of requests has exceeded your rate limit"}}`,
		"unexpected status 429 from messages endpoint",
		"unexpected status 529 from messages endpoint",
	}
	for _, body := range bodies {
		assert.True(t, IsTransient(errors.New(body)), "expected %q to be transient", body)
	}
}

func TestIsTransientNetworkErrors(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("write tcp: %w", syscall.ECONNRESET)))
	assert.True(t, IsTransient(fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)))
	assert.True(t, IsTransient(&net.DNSError{IsTimeout: true, Err: "timeout"}))
	assert.True(t, IsTransient(errors.New("net/http: TLS handshake timeout")))
	assert.True(t, IsTransient(errors.New("read: connection reset by peer")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	transient := []int{408, 429, 500, 502, 503, 504, 529}
	for _, code := range transient {
		assert.True(t, IsTransientHTTPStatus(code), "expected HTTP %d to be transient", code)
	}

	permanent := []int{200, 400, 401, 403, 404, 413, 422}
	for _, code := range permanent {
		assert.False(t, IsTransientHTTPStatus(code), "expected HTTP %d to be permanent", code)
	}
}

func TestTransientErrorUnwrap(t *testing.T) {
	inner := errors.New("overloaded_error")
	te := NewTransientError(inner, 529)

	assert.True(t, errors.Is(te, inner))
	assert.Equal(t, 529, te.StatusCode)
	assert.Equal(t, "overloaded_error", te.Error())
}
