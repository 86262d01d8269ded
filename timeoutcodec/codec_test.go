package timeoutcodec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncode_LadderScenario(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{time.Millisecond, "1m"},
		{100 * time.Millisecond, "100m"},
		{1000 * time.Millisecond, "1S"},
		{2500 * time.Millisecond, "2500m"},
		{time.Hour, "1H"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Encode(c.d), "Encode(%s)", c.d)
	}
}

func TestEncode_NonPositiveSaturatesToOneNanosecond(t *testing.T) {
	assert.Equal(t, "1n", Encode(0))
	assert.Equal(t, "1n", Encode(-time.Second))
}

func TestEncode_PrefersCoarserUnitWhenExact(t *testing.T) {
	// 10000ms divides evenly into 10s, which divides evenly into
	// minutes (10 % 60 != 0 though, so it stops at seconds), but a
	// full minute's worth of milliseconds should climb all the way to
	// "1M".
	assert.Equal(t, "1M", Encode(60*time.Second))
	assert.Equal(t, "1H", Encode(60*time.Minute))
}

func TestDecode_OverflowSaturatesToInfinite(t *testing.T) {
	d, ok := Decode("1000000001S")
	assert.True(t, ok)
	assert.Equal(t, Infinite, d)
}

func TestDecode_ExactlyAtCapWithTrailingZeroIsNotInfinite(t *testing.T) {
	d, ok := Decode("100000000S")
	assert.True(t, ok)
	assert.NotEqual(t, Infinite, d)
	assert.Equal(t, 100_000_000*time.Second, d)
}

func TestDecode_RejectsMalformedInput(t *testing.T) {
	cases := []string{"", "S", "10", "10X", "-10S", "10 S extra"}
	for _, s := range cases {
		_, ok := Decode(s)
		assert.False(t, ok, "Decode(%q)", s)
	}
}

func TestDecode_AllowsSurroundingWhitespace(t *testing.T) {
	d, ok := Decode(" 10S ")
	assert.True(t, ok)
	assert.Equal(t, 10*time.Second, d)
}

func TestDecode_UnitLetters(t *testing.T) {
	cases := []struct {
		s    string
		want time.Duration
	}{
		{"5n", 5 * time.Nanosecond},
		{"5u", 5 * time.Microsecond},
		{"5m", 5 * time.Millisecond},
		{"5S", 5 * time.Second},
		{"5M", 5 * time.Minute},
		{"5H", 5 * time.Hour},
	}
	for _, c := range cases {
		d, ok := Decode(c.s)
		assert.True(t, ok, c.s)
		assert.Equal(t, c.want, d, c.s)
	}
}

func TestRoundTrip_DecodeEncodeIsNeverShorterThanOriginal(t *testing.T) {
	// Round-trip / idempotence: Decode(Encode(D)) >= D, since encoding
	// always rounds up toward the next representable unit.
	samples := []time.Duration{
		time.Millisecond, 37 * time.Millisecond, 999 * time.Millisecond,
		1500 * time.Millisecond, 90 * time.Second, 3*time.Hour + 17*time.Minute,
	}
	for _, d := range samples {
		encoded := Encode(d)
		decoded, ok := Decode(encoded)
		assert.True(t, ok, encoded)
		assert.GreaterOrEqual(t, decoded, d, "Decode(Encode(%s))=%s should be >= original", d, decoded)
	}
}

func TestEncode_TenMillisecondPadding(t *testing.T) {
	// 2500ms isn't a whole number of seconds (2500/10=250, 250%100=50),
	// so it lands on the 10ms unit, whose tail is "0m" not a distinct
	// letter.
	assert.Equal(t, "2500m", Encode(2500*time.Millisecond))
}
