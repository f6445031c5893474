package rpo

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup/schedule"
)

// PointKind classifies a recovery point. The rank order matters: for
// database workloads the log point is the meaningful freshness signal, a
// week-old full backup next to an hour-old log point does not mean a
// week of exposure.
type PointKind int

const (
	KindUnknown PointKind = iota
	KindAppConsistent
	KindFull
	KindCopyOnly
	KindDifferential
	KindLog
	// KindContinuous marks point-in-time restore points on platform-managed
	// databases; they sit outside the vault preference order.
	KindContinuous
)

// ParseKind normalizes the wire vocabulary for recovery point types.
func ParseKind(raw string) PointKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "log", "transactionlog":
		return KindLog
	case "differential", "incremental":
		return KindDifferential
	case "copyonly", "copyonlyfull":
		return KindCopyOnly
	case "full":
		return KindFull
	case "appconsistent", "applicationconsistent":
		return KindAppConsistent
	case "continuous", "irregular", "pitr":
		return KindContinuous
	default:
		return KindUnknown
	}
}

// RecoveryPoint is one timestamped restorable artifact.
type RecoveryPoint struct {
	Time time.Time
	Kind PointKind
}

// PointLister pulls the time-ordered recovery point sequence for one
// protected item. limit > 0 permits an early exit once that many points are
// collected; limit <= 0 means a full pull. ok=false means the sequence
// could not be fetched at all.
type PointLister interface {
	ListPoints(ctx context.Context, limit int) ([]RecoveryPoint, bool)
}

// Options select the inference behavior per workload.
type Options struct {
	Workload domain.WorkloadClass
	// PlatformManaged marks databases protected by continuous
	// point-in-time restore rather than vault backups.
	PlatformManaged bool
	Now             time.Time
}

// Result is the engine's verdict for one protected item. Nil fields mean
// unknown, never zero.
type Result struct {
	Cadence       *time.Duration
	CadenceText   string
	ObservedHours *float64
	Source        domain.RpoSource
}

// Infer resolves cadence and observed RPO. Path A reports the
// policy-derived cadence when the extractor resolved one; path B infers
// empirically from recovery point timestamps. Fewer than two timestamped
// artifacts without a policy cadence resolve to source None.
func Infer(ctx context.Context, sched domain.ScheduleInfo, schedOK bool, points PointLister, opts Options) Result {
	res := Result{Source: domain.RpoSourceNone}

	if schedOK && sched.Cadence != nil {
		snapped := schedule.SnapCadence(*sched.Cadence)
		res.Cadence = &snapped
		res.CadenceText = schedule.DescribeCadence(*sched.Cadence)
		res.Source = domain.RpoSourcePolicy
	}

	if points == nil {
		return res
	}

	// Two points suffice for the cadence-gap fallback; the per-kind
	// preference for databases needs the full sequence.
	limit := 2
	if opts.Workload == domain.WorkloadDatabase || opts.PlatformManaged {
		limit = 0
	}
	pts, ok := points.ListPoints(ctx, limit)
	if !ok {
		return res
	}

	if opts.PlatformManaged {
		pts = filterKind(pts, KindContinuous)
	}
	if len(pts) < 2 {
		return res
	}

	sort.Slice(pts, func(i, j int) bool { return pts[i].Time.After(pts[j].Time) })

	qualifying := pts[0]
	if opts.Workload == domain.WorkloadDatabase && !opts.PlatformManaged {
		qualifying = preferredPoint(pts)
	}
	observed := roundHours(opts.Now.Sub(qualifying.Time))
	res.ObservedHours = &observed

	if res.Source == domain.RpoSourcePolicy {
		return res
	}

	gap := pts[0].Time.Sub(pts[1].Time)
	res.Cadence = &gap
	res.CadenceText = schedule.DescribeCadence(gap)
	if opts.PlatformManaged {
		res.Source = domain.RpoSourcePITR
	} else {
		res.Source = domain.RpoSourceRecoveryPoints
	}
	return res
}

// preferredPoint selects the most recent point of the highest-ranked kind
// present. Input must be sorted newest first.
func preferredPoint(pts []RecoveryPoint) RecoveryPoint {
	for _, kind := range []PointKind{KindLog, KindDifferential, KindCopyOnly, KindFull, KindAppConsistent} {
		for _, p := range pts {
			if p.Kind == kind {
				return p
			}
		}
	}
	return pts[0]
}

func filterKind(pts []RecoveryPoint, kind PointKind) []RecoveryPoint {
	out := pts[:0:0]
	for _, p := range pts {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// All elapsed computations round to two decimal hours.
func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}
