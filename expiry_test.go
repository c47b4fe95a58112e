package softmc

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNormalizeExpiry(t *testing.T) {
	now := func() time.Time { return time.Unix(1_700_000_000, 0) }
	def := 300 * time.Second

	cases := []struct {
		name string
		ttl  time.Duration
		want int32
	}{
		{"zero stays zero", 0, 0},
		{"sentinel uses default", DefaultTTL, 300},
		{"whole seconds pass through", 60 * time.Second, 60},
		{"truncates to seconds", 90500 * time.Millisecond, 90},
		{"sub-second rounds up, never aliases forever", 10 * time.Millisecond, 1},
		{"thirty days stays relative", 30 * 24 * time.Hour, 30 * 24 * 60 * 60},
		{"beyond thirty days becomes absolute", 31 * 24 * time.Hour, int32(1_700_000_000 + 31*24*60*60)},
		{"multi-decade ttl pins to max wire expiry", 15 * 365 * 24 * time.Hour, math.MaxInt32},
		{"absurd ttl still non-negative", 200 * 365 * 24 * time.Hour, math.MaxInt32},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeExpiry(tc.ttl, def, now)
			if err != nil {
				t.Fatalf("normalizeExpiry: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestNormalizeExpiryNegative(t *testing.T) {
	if _, err := normalizeExpiry(-5*time.Second, 0, time.Now); !errors.Is(err, errNegativeTTL) {
		t.Fatalf("want errNegativeTTL, got %v", err)
	}
}

// ttl monotonicity under the wire rules: larger ttl never maps to a smaller
// positive expiry within the same representation regime.
func TestNormalizeExpiryMonotonic(t *testing.T) {
	now := func() time.Time { return time.Unix(1_700_000_000, 0) }
	prev := int32(0)
	for _, ttl := range []time.Duration{
		time.Second, time.Minute, time.Hour, 24 * time.Hour, 29 * 24 * time.Hour,
	} {
		got, err := normalizeExpiry(ttl, 0, now)
		if err != nil {
			t.Fatalf("normalizeExpiry(%v): %v", ttl, err)
		}
		if got <= prev {
			t.Fatalf("expiry not monotonic at %v: %d <= %d", ttl, got, prev)
		}
		prev = got
	}
}
