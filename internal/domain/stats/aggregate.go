// Package stats folds daily status and ledger records into per-patient and
// per-period counts and revenue totals, with calendar-boundary clipping.
package stats

import (
	"sort"

	"github.com/clinicops/clinicops/internal/domain/admission"
	"github.com/clinicops/clinicops/internal/domain/ledger"
	"github.com/clinicops/clinicops/pkg/dateutil"
)

// Period is an inclusive date range.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether date falls inside the period.
func (p *Period) Contains(date string) bool {
	return date >= p.Start && date <= p.End
}

// Stats is the aggregate view for one patient. Revenue is the ledger
// transaction sum; CachedPayment is the patient's cached deposit-inflow
// total, surfaced separately for period totals because it overlaps the
// transaction sum in origin. Callers that add the two are double-counting
// deposits knowingly.
type Stats struct {
	AdmissionDays    int   `json:"admission_days"`
	DayCareVisits    int   `json:"daycare_visits"`
	OutpatientVisits int   `json:"outpatient_visits"`
	PhoneFollowups   int   `json:"phone_followups"`
	Revenue          int64 `json:"revenue"`
	CachedPayment    int64 `json:"cached_payment"`
}

// Aggregate computes a patient's statistics. With a nil period everything
// is all-time; otherwise spans and sums are clipped to the period. The
// today argument closes admissions that are still open at scan end.
func Aggregate(statuses []*admission.DailyStatus, txs []*ledger.Transaction, cachedPayment int64, period *Period, today string) Stats {
	var s Stats

	s.AdmissionDays = admissionDays(statuses, period, today)

	for _, st := range statuses {
		if period != nil && !period.Contains(st.Date) {
			continue
		}
		switch st.Kind {
		case admission.StatusDaycare:
			s.DayCareVisits++
		case admission.StatusOutpatient:
			s.OutpatientVisits++
		case admission.StatusPhoneFollowup:
			s.PhoneFollowups++
		}
	}

	for _, t := range txs {
		if !t.Kind.RevenueKind() {
			continue
		}
		if period != nil && !period.Contains(t.Date) {
			continue
		}
		s.Revenue += t.Amount
	}

	if period != nil {
		s.CachedPayment = cachedPayment
	}
	return s
}

// admissionDays walks the sorted status list with the same open/close
// pointer as the timeline inference: an admit-kind record opens a span
// when none is open, a discharge dated after the opening closes it. Each
// closed span is clipped to the period and counted inclusively; a span
// still open at scan end closes against today, or the period end if that
// is earlier.
func admissionDays(statuses []*admission.DailyStatus, period *Period, today string) int {
	sorted := make([]*admission.DailyStatus, len(statuses))
	copy(sorted, statuses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	total := 0
	open := ""
	for _, st := range sorted {
		switch {
		case st.Kind.OpensAdmission():
			if open == "" {
				open = st.Date
			}
		case st.Kind == admission.StatusDischarged && open != "" && st.Date > open:
			total += clippedSpan(open, st.Date, period)
			open = ""
		}
	}
	if open != "" {
		end := today
		if period != nil {
			end = dateutil.Min(end, period.End)
		}
		total += clippedSpan(open, end, period)
	}
	return total
}

func clippedSpan(start, end string, period *Period) int {
	if period != nil {
		start = dateutil.Max(start, period.Start)
		end = dateutil.Min(end, period.End)
	}
	if start > end {
		return 0
	}
	return dateutil.SpanDays(start, end)
}
