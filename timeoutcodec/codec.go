package timeoutcodec

import (
	"math"
	"strings"
	"time"
)

// Infinite is the duration Decode returns once the wire value's
// magnitude exceeds what the codec can represent — either by explicit
// digit-count saturation or integer overflow up the unit ladder.
const Infinite = time.Duration(math.MaxInt64)

type unit int

const (
	unitNanoseconds unit = iota
	unitMilliseconds
	unitTenMilliseconds
	unitHundredMilliseconds
	unitSeconds
	unitTenSeconds
	unitHundredSeconds
	unitMinutes
	unitTenMinutes
	unitHundredMinutes
	unitHours
)

const (
	secondsPerMinute int64 = 60
	minutesPerHour   int64 = 60
	maxHours         int64 = 27000
)

func divideRoundingUp(dividend, divisor int64) int64 {
	return (dividend - 1 + divisor) / divisor
}

// Encode renders d per the grpc-timeout wire grammar, rounding up to a
// whole number of the chosen unit so the encoded value is never shorter
// than d (1001ms encodes as "1010m"). Durations at or below zero encode
// as the smallest representable value, "1n".
func Encode(d time.Duration) string {
	millis := d.Milliseconds()
	if d > 0 && d%time.Millisecond != 0 {
		millis++
	}
	value, u := fromMillis(millis)
	return formatTimeout(value, u)
}

func fromMillis(millis int64) (int64, unit) {
	switch {
	case millis <= 0:
		return 1, unitNanoseconds
	case millis < 1000:
		return millis, unitMilliseconds
	case millis < 10000:
		if value := divideRoundingUp(millis, 10); value%100 != 0 {
			return value, unitTenMilliseconds
		}
	case millis < 100000:
		if value := divideRoundingUp(millis, 100); value%10 != 0 {
			return value, unitHundredMilliseconds
		}
	case millis > math.MaxInt64-999:
		// Would overflow converting to seconds below.
		return maxHours, unitHours
	}
	return fromSeconds(divideRoundingUp(millis, 1000))
}

func fromSeconds(seconds int64) (int64, unit) {
	switch {
	case seconds < 1000:
		if seconds%secondsPerMinute != 0 {
			return seconds, unitSeconds
		}
	case seconds < 10000:
		if value := divideRoundingUp(seconds, 10); (value*10)%secondsPerMinute != 0 {
			return value, unitTenSeconds
		}
	case seconds < 100000:
		if value := divideRoundingUp(seconds, 100); (value*100)%secondsPerMinute != 0 {
			return value, unitHundredSeconds
		}
	}
	return fromMinutes(divideRoundingUp(seconds, secondsPerMinute))
}

func fromMinutes(minutes int64) (int64, unit) {
	switch {
	case minutes < 1000:
		if minutes%minutesPerHour != 0 {
			return minutes, unitMinutes
		}
	case minutes < 10000:
		if value := divideRoundingUp(minutes, 10); (value*10)%minutesPerHour != 0 {
			return value, unitTenMinutes
		}
	case minutes < 100000:
		if value := divideRoundingUp(minutes, 100); (value*100)%minutesPerHour != 0 {
			return value, unitHundredMinutes
		}
	}
	return fromHours(divideRoundingUp(minutes, minutesPerHour))
}

func fromHours(hours int64) (int64, unit) {
	if hours < maxHours {
		return hours, unitHours
	}
	return maxHours, unitHours
}

// formatTimeout renders value's 1-5 decimal digits followed by the
// unit's tail character, zero-padding the digit field for the
// 10ms/100ms/10s/100s/10min/100min units rather than spelling out a
// distinct letter for each.
func formatTimeout(value int64, u unit) string {
	var b strings.Builder
	b.WriteString(digitsOf(value))
	switch u {
	case unitNanoseconds:
		b.WriteByte('n')
	case unitHundredMilliseconds:
		b.WriteByte('0')
		fallthrough
	case unitTenMilliseconds:
		b.WriteByte('0')
		fallthrough
	case unitMilliseconds:
		b.WriteByte('m')
	case unitHundredSeconds:
		b.WriteByte('0')
		fallthrough
	case unitTenSeconds:
		b.WriteByte('0')
		fallthrough
	case unitSeconds:
		b.WriteByte('S')
	case unitHundredMinutes:
		b.WriteByte('0')
		fallthrough
	case unitTenMinutes:
		b.WriteByte('0')
		fallthrough
	case unitMinutes:
		b.WriteByte('M')
	case unitHours:
		b.WriteByte('H')
	}
	return b.String()
}

func digitsOf(value int64) string {
	// value always fits within the ladder's 1-5 digit budget; no need
	// for a general-purpose itoa with padding.
	s := make([]byte, 0, 5)
	if value == 0 {
		return "0"
	}
	for value > 0 {
		s = append(s, byte('0'+value%10))
		value /= 10
	}
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return string(s)
}

// Decode parses a grpc-timeout wire value. It accepts optional
// surrounding whitespace, a digit field whose value is at most 10^8
// (a larger value saturates to Infinite rather than failing), and one
// trailing unit letter from n|u|m|S|M|H. A value that overflows
// time.Duration in its unit also saturates to Infinite. Anything else
// returns false.
func Decode(s string) (time.Duration, bool) {
	i, n := 0, len(s)
	for i < n && s[i] == ' ' {
		i++
	}

	haveDigit := false
	var x int64
	for i < n && s[i] >= '0' && s[i] <= '9' {
		haveDigit = true
		x = x*10 + int64(s[i]-'0')
		if x > 100_000_000 {
			return Infinite, true
		}
		i++
	}
	if !haveDigit {
		return 0, false
	}

	for i < n && s[i] == ' ' {
		i++
	}
	if i >= n {
		return 0, false
	}

	var per time.Duration
	switch s[i] {
	case 'n':
		per = time.Nanosecond
	case 'u':
		per = time.Microsecond
	case 'm':
		per = time.Millisecond
	case 'S':
		per = time.Second
	case 'M':
		per = time.Minute
	case 'H':
		per = time.Hour
	default:
		return 0, false
	}
	i++

	for i < n {
		if s[i] != ' ' {
			return 0, false
		}
		i++
	}
	if x > int64(Infinite/per) {
		return Infinite, true
	}
	return time.Duration(x) * per, true
}
