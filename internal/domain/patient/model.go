package patient

import (
	"time"

	"github.com/google/uuid"
)

// EngagementStatus is the escalation-ladder classification of a patient's
// contact recency.
type EngagementStatus string

const (
	EngagementActive   EngagementStatus = "ACTIVE"
	EngagementAtRisk   EngagementStatus = "AT_RISK"
	EngagementChurned  EngagementStatus = "CHURNED"
	EngagementTerminal EngagementStatus = "TERMINAL"
	EngagementExempt   EngagementStatus = "EXEMPT"
)

// TerminalReason qualifies a TERMINAL engagement status.
type TerminalReason string

const (
	TerminalDeceased          TerminalReason = "DECEASED"
	TerminalConditionWorsened TerminalReason = "CONDITION_WORSENED"
	TerminalTreatmentComplete TerminalReason = "TREATMENT_COMPLETE"
)

// ValidTerminalReasons lists the accepted terminal subkinds.
var ValidTerminalReasons = map[TerminalReason]bool{
	TerminalDeceased:          true,
	TerminalConditionWorsened: true,
	TerminalTreatmentComplete: true,
}

// Patient maps to the patient table. EngagementStatus (with its terminal
// reason) and PaymentAmount are the only fields the engine mutates after
// registration; everything else is staff input. Dates are canonical
// YYYY-MM-DD strings.
type Patient struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	Name             string           `db:"name" json:"name"`
	ChartNo          *string          `db:"chart_no" json:"chart_no,omitempty"`
	Phone            *string          `db:"phone" json:"phone,omitempty"`
	IntakeDate       *string          `db:"intake_date" json:"intake_date,omitempty"`
	ConsultDate      *string          `db:"consult_date" json:"consult_date,omitempty"`
	EngagementStatus EngagementStatus `db:"engagement_status" json:"engagement_status"`
	TerminalReason   *TerminalReason  `db:"terminal_reason" json:"terminal_reason,omitempty"`
	// PaymentAmount caches the sum of deposit inflows; the ledger
	// reconciler owns this value.
	PaymentAmount int64     `db:"payment_amount" json:"payment_amount"`
	RegisteredAt  time.Time `db:"registered_at" json:"registered_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// AutoScored reports whether the status participates in the automatic
// escalation ladder. Terminal and exempt patients are never auto-updated.
func (s EngagementStatus) AutoScored() bool {
	return s != EngagementTerminal && s != EngagementExempt
}
