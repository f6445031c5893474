package schedule

import (
	"strings"
	"time"
)

// lookup finds the first matching key, names in precedence order, keys
// matched case-insensitively. API generations disagree on casing.
func lookup(m map[string]any, names ...string) (any, bool) {
	for _, name := range names {
		for k, v := range m {
			if strings.EqualFold(k, name) {
				return v, true
			}
		}
	}
	return nil, false
}

func lookupMap(m map[string]any, names ...string) (map[string]any, bool) {
	v, ok := lookup(m, names...)
	if !ok {
		return nil, false
	}
	sub, ok := v.(map[string]any)
	return sub, ok
}

func lookupString(m map[string]any, names ...string) (string, bool) {
	v, ok := lookup(m, names...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func lookupSlice(m map[string]any, names ...string) ([]any, bool) {
	v, ok := lookup(m, names...)
	if !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}

func lookupNumber(m map[string]any, names ...string) (float64, bool) {
	v, ok := lookup(m, names...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "15:04:05", "15:04"}

func lookupTimes(m map[string]any, names ...string) []time.Time {
	raw, ok := lookupSlice(m, names...)
	if !ok {
		return nil
	}
	var out []time.Time
	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func lookupWeekdays(m map[string]any, names ...string) []time.Weekday {
	raw, ok := lookupSlice(m, names...)
	if !ok {
		return nil
	}
	var out []time.Weekday
	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			continue
		}
		if d, ok := weekdayNames[strings.ToLower(s)]; ok {
			out = append(out, d)
		}
	}
	return out
}

// lookupInterval resolves an explicit backup interval. Hourly schedules
// carry a numeric interval in hours; enhanced policies may instead carry
// repeating-interval strings ("R/<start>/PT4H"), possibly several, of which
// the first one's trailing duration substring is taken.
func lookupInterval(sched map[string]any) *time.Duration {
	if hourly, ok := lookupMap(sched, "hourlySchedule"); ok {
		if n, ok := lookupNumber(hourly, "interval", "scheduleInterval"); ok && n > 0 {
			d := time.Duration(n) * time.Hour
			return &d
		}
	}

	if v, ok := lookup(sched, "scheduleInterval", "scheduleIntervals", "intervals"); ok {
		switch iv := v.(type) {
		case string:
			if d, ok := trailingDuration(iv); ok {
				return &d
			}
		case []any:
			if len(iv) > 0 {
				if s, ok := iv[0].(string); ok {
					if d, ok := trailingDuration(s); ok {
						return &d
					}
				}
			}
		case float64:
			if iv > 0 {
				d := time.Duration(iv) * time.Hour
				return &d
			}
		}
	}

	if n, ok := lookupNumber(sched, "interval"); ok && n > 0 {
		d := time.Duration(n) * time.Hour
		return &d
	}
	return nil
}

// lookupWindow resolves the backup window duration from its own field set,
// independent of the cadence fields.
func lookupWindow(sched map[string]any) *time.Duration {
	candidates := []map[string]any{sched}
	if hourly, ok := lookupMap(sched, "hourlySchedule"); ok {
		candidates = append([]map[string]any{hourly}, candidates...)
	}
	for _, m := range candidates {
		v, ok := lookup(m, "scheduleWindowDuration", "windowDuration", "backupWindow")
		if !ok {
			continue
		}
		switch w := v.(type) {
		case float64:
			if w > 0 {
				d := time.Duration(w) * time.Hour
				return &d
			}
		case string:
			if d, ok := trailingDuration(w); ok {
				return &d
			}
		}
	}
	return nil
}

// trailingDuration parses the duration substring after the last slash,
// which also handles bare duration strings.
func trailingDuration(s string) (time.Duration, bool) {
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		s = s[idx+1:]
	}
	parsed, ok := ParseDuration(s)
	if !ok {
		return 0, false
	}
	return parsed.AsDuration(), true
}
