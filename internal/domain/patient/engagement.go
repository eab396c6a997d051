package patient

import (
	"time"

	"github.com/clinicops/clinicops/internal/domain/admission"
	"github.com/clinicops/clinicops/pkg/dateutil"
)

// Thresholds configures the escalation ladder. The dashboard historically
// used two pairs for nominally the same concept: {14, 21} on the patient
// list and {21, 30} on the follow-up worklist. Both remain configurable;
// nothing in the engine assumes a single pair.
type Thresholds struct {
	AtRiskDays int
	ChurnDays  int
}

var statusRank = map[EngagementStatus]int{
	EngagementActive:  0,
	EngagementAtRisk:  1,
	EngagementChurned: 2,
}

// NextStatus computes the next engagement status from the current one and
// the days elapsed since last contact. Terminal and exempt states are
// absorbing. The ladder only escalates: a churned patient does not recover
// automatically, only through an explicit return-to-active.
func NextStatus(cur EngagementStatus, daysSinceContact int, th Thresholds) EngagementStatus {
	if !cur.AutoScored() {
		return cur
	}

	var ladder EngagementStatus
	switch {
	case daysSinceContact >= th.ChurnDays:
		ladder = EngagementChurned
	case daysSinceContact >= th.AtRiskDays:
		ladder = EngagementAtRisk
	default:
		ladder = EngagementActive
	}

	if statusRank[ladder] < statusRank[cur] {
		return cur
	}
	return ladder
}

// LastContact returns the patient's most recent contact date: the latest
// daily status record, falling back to intake date, consultation date, and
// finally the registration timestamp.
func LastContact(p *Patient, statuses []*admission.DailyStatus) string {
	latest := ""
	for _, s := range statuses {
		if s.Date > latest {
			latest = s.Date
		}
	}
	if latest != "" {
		return latest
	}
	if p.IntakeDate != nil && *p.IntakeDate != "" {
		return *p.IntakeDate
	}
	if p.ConsultDate != nil && *p.ConsultDate != "" {
		return *p.ConsultDate
	}
	return dateutil.Today(p.RegisteredAt)
}

// DaysSinceContact computes the exclusive day difference between the last
// contact and now.
func DaysSinceContact(p *Patient, statuses []*admission.DailyStatus, now time.Time) int {
	return dateutil.DaysBetween(LastContact(p, statuses), dateutil.Today(now))
}
