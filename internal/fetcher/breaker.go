package fetcher

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrHostUnavailable is returned without a request when a host's breaker is
// open.
var ErrHostUnavailable = eris.New("fetcher: host unavailable")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// hostBreaker stops requests to a host after consecutive fetches that
// exhausted their retries. After reset it lets one probe through; the probe's
// outcome closes or reopens it. HTTP status errors such as 404 are answers,
// not outages, and never count.
type hostBreaker struct {
	host      string
	threshold int
	reset     time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	probing  bool
}

func newHostBreaker(host string, threshold int, reset time.Duration) *hostBreaker {
	return &hostBreaker{host: host, threshold: threshold, reset: reset, now: time.Now}
}

func (b *hostBreaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.reset {
			return eris.Wrapf(ErrHostUnavailable, "%s", b.host)
		}
		b.transition(breakerHalfOpen)
		b.probing = true
		return nil
	case breakerHalfOpen:
		if b.probing {
			return eris.Wrapf(ErrHostUnavailable, "%s", b.host)
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *hostBreaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.probing = false
	if b.state != breakerClosed {
		b.transition(breakerClosed)
	}
}

func (b *hostBreaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	b.failures++
	if b.state == breakerHalfOpen || b.failures >= b.threshold {
		b.openedAt = b.now()
		if b.state != breakerOpen {
			b.transition(breakerOpen)
		}
	}
}

// release gives up a probe slot without an outcome.
func (b *hostBreaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

func (b *hostBreaker) current() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *hostBreaker) transition(to breakerState) {
	zap.L().Warn("fetcher: host breaker state change",
		zap.String("host", b.host),
		zap.String("from", b.state.String()),
		zap.String("to", to.String()),
	)
	b.state = to
}
