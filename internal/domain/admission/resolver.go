package admission

import "sort"

// Resolution answers what a patient's clinical state was on a given date.
type Resolution struct {
	Kind    CycleKind `json:"kind"`
	Ongoing bool      `json:"ongoing"`
}

// Resolve derives a patient's clinical state on date from two independently
// maintained sources, in priority order: admission cycles first, then
// inference over daily status records for legacy patients without cycle
// rows. Returns nil when neither source covers the date.
func Resolve(cycles []*Cycle, statuses []*DailyStatus, date string) *Resolution {
	for _, c := range cycles {
		if c.Covers(date) {
			ongoing := c.DischargeDate == nil || date < *c.DischargeDate
			return &Resolution{Kind: c.Kind, Ongoing: ongoing}
		}
	}
	return inferFromStatuses(statuses, date)
}

// inferFromStatuses walks the status history up to and including date,
// tracking the most recent open admission. A discharge clears the tracked
// admission only when it is dated after the admission was opened.
func inferFromStatuses(statuses []*DailyStatus, date string) *Resolution {
	sorted := make([]*DailyStatus, 0, len(statuses))
	for _, s := range statuses {
		if s.Date <= date {
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	open := ""
	for _, s := range sorted {
		switch {
		case s.Kind.OpensAdmission():
			open = s.Date
		case s.Kind == StatusDischarged && open != "" && s.Date > open:
			open = ""
		}
	}
	if open == "" {
		return nil
	}
	return &Resolution{Kind: CycleInpatient, Ongoing: true}
}

// DayView is what the dashboard renders for one patient-day cell: the
// explicit record for that day, if any, and the derived background
// classification. Derived is nil when the explicit record already states
// the same information (display precedence); the derived span still feeds
// day-count aggregation regardless.
type DayView struct {
	Direct  *DailyStatus `json:"direct,omitempty"`
	Derived *Resolution  `json:"derived,omitempty"`
}

// ViewFor computes the display view for a single date.
func ViewFor(cycles []*Cycle, statuses []*DailyStatus, date string) DayView {
	var direct *DailyStatus
	for _, s := range statuses {
		if s.Date == date {
			direct = s
			break
		}
	}

	derived := Resolve(cycles, statuses, date)
	if direct != nil && derived != nil {
		switch direct.Kind {
		case StatusInpatientStay, StatusAdmitted, StatusDaycare, StatusOutpatient:
			derived = nil
		}
	}
	return DayView{Direct: direct, Derived: derived}
}

// Overlaps reports whether a candidate span [admit, discharge] overlaps any
// of the patient's other cycles. A nil discharge is open-ended. The cycle
// with id equal to exclude is skipped so updates can validate against
// siblings only.
func Overlaps(cycles []*Cycle, admit string, discharge *string, exclude string) bool {
	for _, c := range cycles {
		if c.ID.String() == exclude {
			continue
		}
		if discharge != nil && *discharge < c.AdmitDate {
			continue
		}
		if c.DischargeDate != nil && *c.DischargeDate < admit {
			continue
		}
		return true
	}
	return false
}
