package zsock

import (
	"fmt"
	"strconv"
	"time"
)

// MaxHeartbeatTTL is the largest heartbeat TTL the engine can advertise.
// The TTL travels in deciseconds in a 16 bit field.
const MaxHeartbeatTTL = 6553599 * time.Millisecond

// HighWaterMark caps the number of messages queued in one direction.
// The zero value is Unlimited.
type HighWaterMark struct {
	limit int
}

// Unlimited removes the cap.
var Unlimited = HighWaterMark{}

// Limited caps the queue at n messages. n must be positive: zero is only
// ever spelled Unlimited.
func Limited(n int) HighWaterMark {
	if n <= 0 {
		panic(fmt.Sprintf("zsock: limited high water mark must be positive, got %d", n))
	}
	return HighWaterMark{limit: n}
}

// Limit returns the cap, or false when the mark is Unlimited.
func (h HighWaterMark) Limit() (int, bool) {
	return h.limit, h.limit > 0
}

// IsUnlimited reports whether no cap is set.
func (h HighWaterMark) IsUnlimited() bool {
	return h.limit <= 0
}

func (h HighWaterMark) native() int {
	return h.limit
}

func hwmFromNative(n int) HighWaterMark {
	if n <= 0 {
		return Unlimited
	}
	return HighWaterMark{limit: n}
}

func (h HighWaterMark) String() string {
	if h.IsUnlimited() {
		return "unlimited"
	}
	return strconv.Itoa(h.limit)
}

func (h HighWaterMark) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *HighWaterMark) UnmarshalText(text []byte) error {
	if string(text) == "unlimited" {
		*h = Unlimited
		return nil
	}
	n, err := strconv.Atoi(string(text))
	if err != nil {
		return fmt.Errorf("parsing high water mark %q: %w", text, err)
	}
	if n <= 0 {
		return fmt.Errorf("high water mark must be positive or \"unlimited\", got %d", n)
	}
	*h = HighWaterMark{limit: n}
	return nil
}

// Period is a timeout that may be infinite. The zero value is Infinite.
type Period struct {
	d      time.Duration
	finite bool
}

// Infinite waits forever.
var Infinite = Period{}

// Finite waits for at most d. d must not be negative.
func Finite(d time.Duration) Period {
	if d < 0 {
		panic(fmt.Sprintf("zsock: negative period %s", d))
	}
	return Period{d: d, finite: true}
}

// Duration returns the period, or false when it is Infinite.
func (p Period) Duration() (time.Duration, bool) {
	return p.d, p.finite
}

// IsInfinite reports whether the period never expires.
func (p Period) IsInfinite() bool {
	return !p.finite
}

func (p Period) native() time.Duration {
	if !p.finite {
		return -1
	}
	return p.d
}

func periodFromNative(d time.Duration) Period {
	if d < 0 {
		return Infinite
	}
	return Period{d: d, finite: true}
}

func (p Period) String() string {
	if !p.finite {
		return "infinite"
	}
	return p.d.String()
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	if string(text) == "infinite" {
		*p = Infinite
		return nil
	}
	d, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing period %q: %w", text, err)
	}
	if d < 0 {
		return fmt.Errorf("negative period %s", d)
	}
	*p = Period{d: d, finite: true}
	return nil
}

// Duration is a time.Duration that encodes as text ("1.5s").
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Heartbeat configures ZMTP heartbeats. A zero Timeout lets the engine use
// Interval; a zero TTL lets the peer keep its own timeout.
type Heartbeat struct {
	Interval time.Duration
	Timeout  time.Duration
	TTL      time.Duration
}

// NewHeartbeat sends heartbeats every interval.
func NewHeartbeat(interval time.Duration) Heartbeat {
	return Heartbeat{Interval: interval}
}

// WithTimeout sets how long to wait for a heartbeat reply.
func (h Heartbeat) WithTimeout(timeout time.Duration) Heartbeat {
	h.Timeout = timeout
	return h
}

// WithTTL sets the timeout advertised to the peer.
func (h Heartbeat) WithTTL(ttl time.Duration) Heartbeat {
	h.TTL = ttl
	return h
}

func checkDuration(what string, d time.Duration) {
	if d < 0 {
		panic(fmt.Sprintf("zsock: negative %s %s", what, d))
	}
}
