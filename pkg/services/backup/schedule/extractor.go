package schedule

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
)

// PolicyVariant is one recognized policy shape. Detection produces exactly
// one variant and extraction is an exhaustive type switch over them, so a
// new shape cannot be half-handled silently.
type PolicyVariant interface {
	isPolicyVariant()
}

// ClassicPolicy is the first-generation VM policy (SimpleSchedulePolicy).
// Daily and weekly schedules carry run times / run days but no explicit
// interval; the cadence is derived from the gaps.
type ClassicPolicy struct {
	Frequency string
	RunTimes  []time.Time
	RunDays   []time.Weekday
	Interval  *time.Duration
	Window    *time.Duration
}

func (ClassicPolicy) isPolicyVariant() {}

// EnhancedPolicy is the second-generation VM policy (SimpleSchedulePolicyV2)
// with hourly schedules and explicit intervals, sometimes spelled as
// repeating-interval strings ("R/<start>/PT4H").
type EnhancedPolicy struct {
	Frequency string
	RunTimes  []time.Time
	RunDays   []time.Weekday
	Interval  *time.Duration
	Window    *time.Duration
}

func (EnhancedPolicy) isPolicyVariant() {}

// WorkloadPolicy is the database policy: one sub-policy per backup kind.
type WorkloadPolicy struct {
	Full         PolicyVariant
	Differential PolicyVariant
	LogFrequency *time.Duration
}

func (WorkloadPolicy) isPolicyVariant() {}

// Extract resolves the schedule carried by a raw policy document, which may
// be the full resource or just its properties bag. Unrecognized shapes and
// unresolvable cadences yield ok=false, never an error.
func Extract(raw json.RawMessage) (domain.ScheduleInfo, bool) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.ScheduleInfo{}, false
	}
	props := doc
	if p, ok := lookupMap(doc, "properties"); ok {
		props = p
	}

	variant := Detect(props)
	if variant == nil {
		return domain.ScheduleInfo{}, false
	}
	info := resolve(variant)
	if info.Cadence == nil {
		return info, false
	}
	return info, true
}

// Detect classifies the policy shape via a fixed, case-tolerant field-name
// precedence: workload sub-policies, then the enhanced schedule type, then
// anything classic-shaped.
func Detect(props map[string]any) PolicyVariant {
	if subs, ok := lookupSlice(props, "subProtectionPolicy", "subProtectionPolicies"); ok {
		return detectWorkload(subs)
	}

	sched, ok := lookupMap(props, "schedulePolicy", "schedule", "backupSchedule")
	if !ok {
		// Very old policies inline the schedule fields at the top level.
		if _, found := lookup(props, "scheduleRunFrequency", "scheduleRunTimes"); !found {
			return nil
		}
		sched = props
	}

	policyType, _ := lookupString(sched, "schedulePolicyType")
	if strings.EqualFold(policyType, "SimpleSchedulePolicyV2") {
		return detectEnhanced(sched)
	}
	return detectClassic(sched)
}

func detectClassic(sched map[string]any) PolicyVariant {
	p := ClassicPolicy{}
	p.Frequency, _ = lookupString(sched, "scheduleRunFrequency", "frequency")
	p.RunTimes = lookupTimes(sched, "scheduleRunTimes", "runTimes")
	p.RunDays = lookupWeekdays(sched, "scheduleRunDays", "runDays")
	p.Interval = lookupInterval(sched)
	p.Window = lookupWindow(sched)
	if p.Frequency == "" && p.Interval == nil && len(p.RunTimes) == 0 && len(p.RunDays) == 0 {
		return nil
	}
	return p
}

func detectEnhanced(sched map[string]any) PolicyVariant {
	p := EnhancedPolicy{}
	p.Frequency, _ = lookupString(sched, "scheduleRunFrequency", "frequency")
	p.Interval = lookupInterval(sched)
	p.Window = lookupWindow(sched)

	if daily, ok := lookupMap(sched, "dailySchedule"); ok {
		p.RunTimes = lookupTimes(daily, "scheduleRunTimes")
	}
	if weekly, ok := lookupMap(sched, "weeklySchedule"); ok {
		p.RunDays = lookupWeekdays(weekly, "scheduleRunDays")
		if len(p.RunTimes) == 0 {
			p.RunTimes = lookupTimes(weekly, "scheduleRunTimes")
		}
	}
	return p
}

func detectWorkload(subs []any) PolicyVariant {
	w := WorkloadPolicy{}
	seen := false
	for _, entry := range subs {
		sub, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := lookupString(sub, "policyType")
		sched, hasSched := lookupMap(sub, "schedulePolicy", "schedule")
		switch strings.ToLower(kind) {
		case "log", "transactionlog":
			if !hasSched {
				continue
			}
			if mins, ok := lookupNumber(sched, "scheduleFrequencyInMins", "logBackupFrequencyMins", "frequencyInMins"); ok {
				d := time.Duration(mins) * time.Minute
				w.LogFrequency = &d
				seen = true
			}
		case "differential", "incremental":
			if hasSched {
				if v := detectClassicOrEnhanced(sched); v != nil {
					w.Differential = v
					seen = true
				}
			}
		case "full", "copyonlyfull":
			if hasSched {
				if v := detectClassicOrEnhanced(sched); v != nil {
					w.Full = v
					seen = true
				}
			}
		}
	}
	if !seen {
		return nil
	}
	return w
}

func detectClassicOrEnhanced(sched map[string]any) PolicyVariant {
	policyType, _ := lookupString(sched, "schedulePolicyType")
	if strings.EqualFold(policyType, "SimpleSchedulePolicyV2") {
		return detectEnhanced(sched)
	}
	return detectClassic(sched)
}

// resolve maps a variant onto the canonical ScheduleInfo record.
func resolve(v PolicyVariant) domain.ScheduleInfo {
	switch p := v.(type) {
	case ClassicPolicy:
		info := domain.ScheduleInfo{Window: p.Window}
		if c := cadenceOf(p.Frequency, p.Interval, p.RunTimes, p.RunDays); c != nil {
			info.Cadence = c
			info.Full = c
		}
		return info
	case EnhancedPolicy:
		info := domain.ScheduleInfo{Window: p.Window}
		if c := cadenceOf(p.Frequency, p.Interval, p.RunTimes, p.RunDays); c != nil {
			info.Cadence = c
			info.Full = c
		}
		return info
	case WorkloadPolicy:
		info := domain.ScheduleInfo{}
		if p.Full != nil {
			full := resolve(p.Full)
			info.Full = full.Cadence
			info.Window = full.Window
		}
		if p.Differential != nil {
			diff := resolve(p.Differential)
			info.Differential = diff.Cadence
		}
		info.Log = p.LogFrequency
		// The tightest configured kind is the effective cadence.
		switch {
		case info.Log != nil:
			info.Cadence = info.Log
		case info.Differential != nil:
			info.Cadence = info.Differential
		default:
			info.Cadence = info.Full
		}
		return info
	default:
		return domain.ScheduleInfo{}
	}
}

// cadenceOf picks the explicit interval when present, otherwise derives the
// cadence from run times or run days. The derived value is the maximal gap
// between runs, an upper bound on the worst-case inter-run gap, not a count.
func cadenceOf(frequency string, interval *time.Duration, runTimes []time.Time, runDays []time.Weekday) *time.Duration {
	if interval != nil {
		return interval
	}
	switch strings.ToLower(frequency) {
	case "weekly":
		if len(runDays) > 0 {
			d := maxWeekdayGap(runDays)
			return &d
		}
	case "daily", "":
		if len(runTimes) > 0 {
			d := maxTimeOfDayGap(runTimes)
			return &d
		}
		if strings.EqualFold(frequency, "daily") {
			d := 24 * time.Hour
			return &d
		}
	}
	return nil
}

// maxTimeOfDayGap sorts run times by minute-of-day and returns the largest
// gap, wrapping across midnight. A single run time means one run per day.
func maxTimeOfDayGap(runTimes []time.Time) time.Duration {
	if len(runTimes) < 2 {
		return 24 * time.Hour
	}
	minutes := make([]int, 0, len(runTimes))
	for _, t := range runTimes {
		minutes = append(minutes, t.Hour()*60+t.Minute())
	}
	sort.Ints(minutes)

	maxGap := 24*60 - minutes[len(minutes)-1] + minutes[0]
	for i := 1; i < len(minutes); i++ {
		if gap := minutes[i] - minutes[i-1]; gap > maxGap {
			maxGap = gap
		}
	}
	return time.Duration(maxGap) * time.Minute
}

// maxWeekdayGap sorts weekday indices and returns the largest gap in days,
// wrapping at the week boundary. A single run day means one run per week.
func maxWeekdayGap(runDays []time.Weekday) time.Duration {
	if len(runDays) < 2 {
		return 7 * 24 * time.Hour
	}
	days := make([]int, 0, len(runDays))
	for _, d := range runDays {
		days = append(days, int(d))
	}
	sort.Ints(days)

	maxGap := 7 - days[len(days)-1] + days[0]
	for i := 1; i < len(days); i++ {
		if gap := days[i] - days[i-1]; gap > maxGap {
			maxGap = gap
		}
	}
	return time.Duration(maxGap) * 24 * time.Hour
}
