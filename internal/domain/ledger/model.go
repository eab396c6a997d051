package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies one dated financial or usage-count event.
type Kind string

const (
	DepositIn         Kind = "DEPOSIT_IN"
	DepositOut        Kind = "DEPOSIT_OUT"
	RewardIn          Kind = "REWARD_IN"
	RewardOut         Kind = "REWARD_OUT"
	CountIn           Kind = "COUNT_IN"
	CountOut          Kind = "COUNT_OUT"
	InpatientRevenue  Kind = "INPATIENT_REVENUE"
	OutpatientRevenue Kind = "OUTPATIENT_REVENUE"
)

// ValidKinds lists the accepted transaction kinds.
var ValidKinds = map[Kind]bool{
	DepositIn:         true,
	DepositOut:        true,
	RewardIn:          true,
	RewardOut:         true,
	CountIn:           true,
	CountOut:          true,
	InpatientRevenue:  true,
	OutpatientRevenue: true,
}

// CountKind reports whether the kind tracks usage counts, where a zero
// amount paired with a nonzero count is a valid row.
func (k Kind) CountKind() bool { return k == CountIn || k == CountOut }

// RevenueKind reports whether the kind contributes to revenue totals.
func (k Kind) RevenueKind() bool {
	return k == DepositIn || k == InpatientRevenue || k == OutpatientRevenue
}

// Transaction maps to the ledger_transaction table. Append-only from the
// engine's perspective; deletion is an explicit admin action. Dates are
// canonical YYYY-MM-DD strings.
type Transaction struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Date      string    `db:"tx_date" json:"date"`
	DateFrom  *string   `db:"date_from" json:"date_from,omitempty"`
	DateTo    *string   `db:"date_to" json:"date_to,omitempty"`
	Kind      Kind      `db:"kind" json:"kind"`
	Amount    int64     `db:"amount" json:"amount"`
	Count     int       `db:"count" json:"count"`
	Note      *string   `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Balance is the per-patient running balance, always recomputable from the
// full transaction set and persisted only as a cache.
type Balance struct {
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	Deposit      int64     `db:"deposit_balance" json:"deposit_balance"`
	Reward       int64     `db:"reward_balance" json:"reward_balance"`
	Count        int       `db:"count_balance" json:"count_balance"`
	LastSyncedAt time.Time `db:"last_synced_at" json:"last_synced_at"`
}

// RawItem is one externally-sourced ledger entry before normalization.
// Upstream producers (spreadsheet imports, CRM scrapes) are unreliable:
// dates and numbers arrive as free-form strings and may be missing.
type RawItem struct {
	Category string `json:"category"`
	Date     string `json:"date"`
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	Amount   string `json:"amount"`
	Count    string `json:"count"`
	Note     string `json:"note,omitempty"`
}

// categoryKinds maps raw source categories to transaction kinds.
var categoryKinds = map[string]Kind{
	"deposit":            DepositIn,
	"deposit_use":        DepositOut,
	"reward":             RewardIn,
	"reward_use":         RewardOut,
	"count":              CountIn,
	"count_use":          CountOut,
	"inpatient_revenue":  InpatientRevenue,
	"outpatient_revenue": OutpatientRevenue,
}

// KindForCategory resolves a raw source category to a transaction kind.
func KindForCategory(category string) (Kind, bool) {
	k, ok := categoryKinds[category]
	return k, ok
}
