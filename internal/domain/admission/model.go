package admission

import (
	"time"

	"github.com/google/uuid"
)

// CycleKind classifies one continuous stay.
type CycleKind string

const (
	CycleInpatient  CycleKind = "INPATIENT"
	CycleDaycare    CycleKind = "DAYCARE"
	CycleOutpatient CycleKind = "OUTPATIENT"
	CycleOther      CycleKind = "OTHER"
)

// ValidCycleKinds lists the accepted admission kinds.
var ValidCycleKinds = map[CycleKind]bool{
	CycleInpatient:  true,
	CycleDaycare:    true,
	CycleOutpatient: true,
	CycleOther:      true,
}

// Cycle maps to the admission_cycle table. One row per continuous stay;
// DischargeDate is nil while the stay is open. Dates are canonical
// YYYY-MM-DD strings.
type Cycle struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	AdmitDate     string    `db:"admit_date" json:"admit_date"`
	DischargeDate *string   `db:"discharge_date" json:"discharge_date,omitempty"`
	Kind          CycleKind `db:"kind" json:"kind"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Open reports whether the stay has no discharge date yet.
func (c *Cycle) Open() bool { return c.DischargeDate == nil }

// Covers reports whether date falls inside the cycle's span.
func (c *Cycle) Covers(date string) bool {
	if date < c.AdmitDate {
		return false
	}
	return c.DischargeDate == nil || date <= *c.DischargeDate
}

// StatusKind classifies a single day's recorded clinical event.
type StatusKind string

const (
	StatusAdmitted      StatusKind = "ADMITTED"
	StatusDischarged    StatusKind = "DISCHARGED"
	StatusInpatientStay StatusKind = "INPATIENT_STAY"
	StatusDaycare       StatusKind = "DAYCARE"
	StatusOutpatient    StatusKind = "OUTPATIENT"
	StatusPhoneFollowup StatusKind = "PHONE_FOLLOWUP"
	StatusOther         StatusKind = "OTHER"
	StatusReturned      StatusKind = "RETURNED"
)

// ValidStatusKinds lists the accepted daily status kinds.
var ValidStatusKinds = map[StatusKind]bool{
	StatusAdmitted:      true,
	StatusDischarged:    true,
	StatusInpatientStay: true,
	StatusDaycare:       true,
	StatusOutpatient:    true,
	StatusPhoneFollowup: true,
	StatusOther:         true,
	StatusReturned:      true,
}

// OpensAdmission reports whether the kind opens an inferred admission span.
func (k StatusKind) OpensAdmission() bool {
	return k == StatusAdmitted || k == StatusInpatientStay
}

// DailyStatus maps to the daily_status table. At most one row per
// (patient_id, status_date); the repository enforces this with
// upsert-on-conflict semantics.
type DailyStatus struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	Date      string     `db:"status_date" json:"date"`
	Kind      StatusKind `db:"kind" json:"kind"`
	Notes     *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
