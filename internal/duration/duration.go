// Package duration converts between elapsed seconds and the textual
// duration encodings found in feeds or shown to listeners.
package duration

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	tcerrs "github.com/jdholdren/tagcast/internal/errors"
)

const (
	minute = 60
	hour   = 60 * minute
	day    = 24 * hour
)

// Segment multipliers, rightmost segment first.
var multipliers = []int{1, minute, hour, day}

type parts struct {
	days, hours, minutes, seconds int
}

func split(seconds int) parts {
	if seconds < 0 {
		seconds = 0
	}

	return parts{
		days:    seconds / day,
		hours:   seconds % day / hour,
		minutes: seconds % hour / minute,
		seconds: seconds % minute,
	}
}

// ShortString renders seconds as "D:H:MM:SS", dropping the day segment
// when it is zero.
func ShortString(seconds int) string {
	p := split(seconds)
	if p.days > 0 {
		return fmt.Sprintf("%d:%d:%02d:%02d", p.days, p.hours, p.minutes, p.seconds)
	}

	return fmt.Sprintf("%d:%02d:%02d", p.hours, p.minutes, p.seconds)
}

// LongString renders seconds in long German form, e.g.
// "1 Tag, 1 Stunde, 2 Minuten, 1 Sekunde". Zero counts use the plural.
func LongString(seconds int) string {
	p := split(seconds)

	segments := make([]string, 0, 4)
	if p.days > 0 {
		segments = append(segments, unit(p.days, "Tag", "Tage"))
	}
	segments = append(segments,
		unit(p.hours, "Stunde", "Stunden"),
		unit(p.minutes, "Minute", "Minuten"),
		unit(p.seconds, "Sekunde", "Sekunden"),
	)

	return strings.Join(segments, ", ")
}

func unit(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}

	return fmt.Sprintf("%d %s", n, plural)
}

// Parse reads "SS", "MM:SS", "H:MM:SS" or "D:H:MM:SS" into seconds.
// Segments left of the day segment are ignored.
func Parse(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, tcerrs.E(tcerrs.InvalidDuration, "empty duration")
	}

	segments := strings.Split(s, ":")
	total := 0
	for i := 0; i < len(multipliers) && i < len(segments); i++ {
		seg := strings.TrimSpace(segments[len(segments)-1-i])
		n, err := strconv.Atoi(seg)
		if err != nil || n < 0 {
			return 0, tcerrs.E(tcerrs.InvalidDuration, fmt.Sprintf("invalid duration segment %q in %q", seg, s))
		}
		if n > (math.MaxInt-total)/multipliers[i] {
			return 0, tcerrs.E(tcerrs.InvalidDuration, fmt.Sprintf("duration %q out of range", s))
		}
		total += n * multipliers[i]
	}

	return total, nil
}

// Sniff applies the feed rule for duration fields: a value without a colon
// is already seconds, anything with a colon is a timestring.
//
// Empty input is zero seconds, not an error.
func Sniff(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if strings.Contains(raw, ":") {
		return Parse(raw)
	}

	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return n, nil
	}
	// Some hosts emit fractional seconds. NaN fails every comparison here.
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f >= 0 && f < math.MaxInt {
		return int(f), nil
	}

	return 0, tcerrs.E(tcerrs.InvalidDuration, fmt.Sprintf("invalid duration %q", raw))
}
