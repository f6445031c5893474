package schedule

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// Duration is a parsed subset of the ISO-8601 duration grammar
// P[nD][T[nH][nM][nS]]. Week, month and year units are not accepted;
// policy documents never carry them and the wrap-around rules would be
// ambiguous anyway.
type Duration struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

var durationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration parses the constrained grammar. It returns ok=false for
// anything it does not understand, never an error.
func ParseDuration(s string) (Duration, bool) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return Duration{}, false
	}
	if m[1] == "" && m[2] == "" && m[3] == "" && m[4] == "" {
		// "P" or "PT" with no components.
		return Duration{}, false
	}
	atoi := func(v string) int {
		if v == "" {
			return 0
		}
		n, _ := strconv.Atoi(v)
		return n
	}
	return Duration{
		Days:    atoi(m[1]),
		Hours:   atoi(m[2]),
		Minutes: atoi(m[3]),
		Seconds: atoi(m[4]),
	}, true
}

func (d Duration) TotalSeconds() int {
	return d.Days*86400 + d.Hours*3600 + d.Minutes*60 + d.Seconds
}

func (d Duration) AsDuration() time.Duration {
	return time.Duration(d.TotalSeconds()) * time.Second
}

// Canonical cadence buckets operators reason in.
var canonicalHours = []int{1, 2, 3, 4, 6, 8, 12, 24}

// Policy-derived cadences carry scheduling jitter of several minutes.
const snapTolerance = 20 * time.Minute

// SnapCadence snaps a noisy cadence onto a canonical hour bucket when it is
// within tolerance, then onto the nearest whole hour. Durations outside
// tolerance are returned unchanged.
func SnapCadence(d time.Duration) time.Duration {
	for _, h := range canonicalHours {
		canonical := time.Duration(h) * time.Hour
		if absDuration(d-canonical) <= snapTolerance {
			return canonical
		}
	}
	hours := int(math.Round(d.Hours()))
	if hours >= 1 {
		nearest := time.Duration(hours) * time.Hour
		if absDuration(d-nearest) <= snapTolerance {
			return nearest
		}
	}
	return d
}

// DescribeCadence renders operator-facing cadence text. The text is derived
// presentation only; the duration stays authoritative.
func DescribeCadence(d time.Duration) string {
	snapped := SnapCadence(d)
	if snapped%time.Hour == 0 && snapped >= time.Hour {
		hours := int(snapped / time.Hour)
		if hours == 1 {
			return "Every 1 hour"
		}
		return fmt.Sprintf("Every %d hours", hours)
	}
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("Every %.2f hours", d.Hours())
	case d >= time.Minute:
		return fmt.Sprintf("Every %.2f minutes", d.Minutes())
	default:
		return fmt.Sprintf("Every %.2f seconds", d.Seconds())
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
