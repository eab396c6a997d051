package stats

import (
	"testing"

	"github.com/clinicops/clinicops/internal/domain/admission"
	"github.com/clinicops/clinicops/internal/domain/ledger"
)

func status(date string, kind admission.StatusKind) *admission.DailyStatus {
	return &admission.DailyStatus{Date: date, Kind: kind}
}

func tx(date string, kind ledger.Kind, amount int64) *ledger.Transaction {
	return &ledger.Transaction{Date: date, Kind: kind, Amount: amount}
}

func TestAggregate_AdmissionDayClipping(t *testing.T) {
	// Admission 2024-01-25 .. discharge 2024-02-05.
	statuses := []*admission.DailyStatus{
		status("2024-01-25", admission.StatusAdmitted),
		status("2024-02-05", admission.StatusDischarged),
	}

	jan := &Period{Start: "2024-01-01", End: "2024-01-31"}
	got := Aggregate(statuses, nil, 0, jan, "2024-06-30")
	if got.AdmissionDays != 7 {
		t.Errorf("january clip: expected 7 days, got %d", got.AdmissionDays)
	}

	feb := &Period{Start: "2024-02-01", End: "2024-02-29"}
	got = Aggregate(statuses, nil, 0, feb, "2024-06-30")
	if got.AdmissionDays != 5 {
		t.Errorf("february clip: expected 5 days, got %d", got.AdmissionDays)
	}

	// Unclipped: 01-25..02-05 inclusive is 12 days.
	got = Aggregate(statuses, nil, 0, nil, "2024-06-30")
	if got.AdmissionDays != 12 {
		t.Errorf("all-time: expected 12 days, got %d", got.AdmissionDays)
	}
}

func TestAggregate_OpenAdmissionClosesAgainstToday(t *testing.T) {
	statuses := []*admission.DailyStatus{
		status("2024-06-01", admission.StatusAdmitted),
	}

	got := Aggregate(statuses, nil, 0, nil, "2024-06-10")
	if got.AdmissionDays != 10 {
		t.Errorf("expected 10 days to today, got %d", got.AdmissionDays)
	}

	// Period end earlier than today wins.
	june := &Period{Start: "2024-06-01", End: "2024-06-05"}
	got = Aggregate(statuses, nil, 0, june, "2024-06-10")
	if got.AdmissionDays != 5 {
		t.Errorf("expected 5 days to period end, got %d", got.AdmissionDays)
	}
}

func TestAggregate_SpanEntirelyOutsidePeriod(t *testing.T) {
	statuses := []*admission.DailyStatus{
		status("2024-01-05", admission.StatusAdmitted),
		status("2024-01-10", admission.StatusDischarged),
	}
	march := &Period{Start: "2024-03-01", End: "2024-03-31"}
	got := Aggregate(statuses, nil, 0, march, "2024-06-30")
	if got.AdmissionDays != 0 {
		t.Errorf("expected 0 days outside the period, got %d", got.AdmissionDays)
	}
}

func TestAggregate_ContinuationMarkersDoNotSplitSpan(t *testing.T) {
	// Monthly INPATIENT_STAY markers inside an open span must not reset it.
	statuses := []*admission.DailyStatus{
		status("2024-01-10", admission.StatusAdmitted),
		status("2024-02-01", admission.StatusInpatientStay),
		status("2024-02-20", admission.StatusDischarged),
	}
	got := Aggregate(statuses, nil, 0, nil, "2024-06-30")
	if got.AdmissionDays != 42 {
		t.Errorf("expected 42 days (01-10..02-20), got %d", got.AdmissionDays)
	}
}

func TestAggregate_VisitCounts(t *testing.T) {
	statuses := []*admission.DailyStatus{
		status("2024-03-01", admission.StatusDaycare),
		status("2024-03-02", admission.StatusDaycare),
		status("2024-03-03", admission.StatusOutpatient),
		status("2024-03-04", admission.StatusPhoneFollowup),
		status("2024-04-01", admission.StatusDaycare),
	}

	march := &Period{Start: "2024-03-01", End: "2024-03-31"}
	got := Aggregate(statuses, nil, 0, march, "2024-06-30")
	if got.DayCareVisits != 2 {
		t.Errorf("expected 2 daycare visits, got %d", got.DayCareVisits)
	}
	if got.OutpatientVisits != 1 {
		t.Errorf("expected 1 outpatient visit, got %d", got.OutpatientVisits)
	}
	if got.PhoneFollowups != 1 {
		t.Errorf("expected 1 followup, got %d", got.PhoneFollowups)
	}

	got = Aggregate(statuses, nil, 0, nil, "2024-06-30")
	if got.DayCareVisits != 3 {
		t.Errorf("all-time: expected 3 daycare visits, got %d", got.DayCareVisits)
	}
}

func TestAggregate_Revenue(t *testing.T) {
	txs := []*ledger.Transaction{
		tx("2024-03-01", ledger.DepositIn, 500000),
		tx("2024-03-10", ledger.InpatientRevenue, 200000),
		tx("2024-03-15", ledger.OutpatientRevenue, 50000),
		tx("2024-03-20", ledger.DepositOut, 100000), // not revenue
		tx("2024-04-01", ledger.DepositIn, 700000),  // outside period
	}

	march := &Period{Start: "2024-03-01", End: "2024-03-31"}
	got := Aggregate(nil, txs, 0, march, "2024-06-30")
	if got.Revenue != 750000 {
		t.Errorf("expected period revenue 750000, got %d", got.Revenue)
	}

	got = Aggregate(nil, txs, 0, nil, "2024-06-30")
	if got.Revenue != 1450000 {
		t.Errorf("expected all-time revenue 1450000, got %d", got.Revenue)
	}
}

func TestAggregate_CachedPaymentIsSeparateAndPeriodOnly(t *testing.T) {
	// The cached payment overlaps the deposit sum in origin; it is
	// surfaced as its own field for period totals so the additive
	// relationship stays explicit instead of silently merged.
	txs := []*ledger.Transaction{
		tx("2024-03-01", ledger.DepositIn, 500000),
	}
	march := &Period{Start: "2024-03-01", End: "2024-03-31"}

	got := Aggregate(nil, txs, 500000, march, "2024-06-30")
	if got.Revenue != 500000 {
		t.Errorf("expected revenue 500000, got %d", got.Revenue)
	}
	if got.CachedPayment != 500000 {
		t.Errorf("expected cached payment 500000, got %d", got.CachedPayment)
	}

	got = Aggregate(nil, txs, 500000, nil, "2024-06-30")
	if got.CachedPayment != 0 {
		t.Errorf("all-time totals must not carry the cached payment, got %d", got.CachedPayment)
	}
}

func TestAggregate_OpenAdmissionWithDaycareRecordStillCounts(t *testing.T) {
	// A direct DAYCARE record inside an open admission wins display but
	// the day still counts toward the admission span.
	statuses := []*admission.DailyStatus{
		status("2024-03-01", admission.StatusAdmitted),
		status("2024-03-10", admission.StatusDaycare),
	}

	got := Aggregate(statuses, nil, 0, nil, "2024-03-15")
	if got.AdmissionDays != 15 {
		t.Errorf("expected 15 admission days, got %d", got.AdmissionDays)
	}
	if got.DayCareVisits != 1 {
		t.Errorf("expected the daycare visit counted too, got %d", got.DayCareVisits)
	}
}
