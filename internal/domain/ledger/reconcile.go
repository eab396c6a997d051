package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/pkg/dateutil"
)

// DedupKey identifies an already-ingested transaction. Two transactions
// with the same date, kind, amount, and count are the same external event.
func DedupKey(date string, kind Kind, amount int64, count int) string {
	return fmt.Sprintf("%s|%s|%d|%d", date, kind, amount, count)
}

// Key returns the transaction's dedup key.
func (t *Transaction) Key() string {
	return DedupKey(t.Date, t.Kind, t.Amount, t.Count)
}

// PrepareReport accounts for raw items that did not become inserts.
type PrepareReport struct {
	Duplicates int
	Malformed  int
}

// PrepareBatch normalizes a raw incoming batch against the existing
// transaction set and returns the rows to insert. Items already present
// (by dedup key, in the store or earlier in the same batch) are skipped
// silently; items with no parseable value are dropped rather than stored
// as zero rows. Count categories accept a zero amount when the count is
// nonzero. Unparseable dates fall back to fallbackDate.
func PrepareBatch(patientID uuid.UUID, existing []*Transaction, incoming []RawItem, fallbackDate string) ([]*Transaction, PrepareReport) {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t.Key()] = true
	}

	var inserts []*Transaction
	var report PrepareReport
	for _, item := range incoming {
		kind, ok := KindForCategory(item.Category)
		if !ok {
			report.Malformed++
			continue
		}

		amount := parseMoney(item.Amount)
		count := parseCount(item.Count)
		if amount == 0 && !(kind.CountKind() && count != 0) {
			report.Malformed++
			continue
		}

		tx := &Transaction{
			PatientID: patientID,
			Date:      dateutil.NormalizeOr(item.Date, fallbackDate),
			Kind:      kind,
			Amount:    amount,
			Count:     count,
		}
		if item.DateFrom != "" {
			if d, err := dateutil.Normalize(item.DateFrom); err == nil {
				tx.DateFrom = &d
			}
		}
		if item.DateTo != "" {
			if d, err := dateutil.Normalize(item.DateTo); err == nil {
				tx.DateTo = &d
			}
		}
		if item.Note != "" {
			note := item.Note
			tx.Note = &note
		}

		key := tx.Key()
		if seen[key] {
			report.Duplicates++
			continue
		}
		seen[key] = true
		inserts = append(inserts, tx)
	}
	return inserts, report
}

// ComputeBalance folds the full transaction set into a balance. Never
// incremental: the result is consistent with the log by construction.
func ComputeBalance(patientID uuid.UUID, txs []*Transaction) Balance {
	b := Balance{PatientID: patientID}
	for _, t := range txs {
		switch t.Kind {
		case DepositIn:
			b.Deposit += t.Amount
		case DepositOut:
			b.Deposit -= t.Amount
		case RewardIn:
			b.Reward += t.Amount
		case RewardOut:
			b.Reward -= t.Amount
		case CountIn:
			b.Count += t.Count
		case CountOut:
			b.Count -= t.Count
		}
	}
	return b
}

// DepositInTotal sums deposit inflows. The patient's cached payment amount
// is this gross total, not the net balance.
func DepositInTotal(txs []*Transaction) int64 {
	var total int64
	for _, t := range txs {
		if t.Kind == DepositIn {
			total += t.Amount
		}
	}
	return total
}

// parseMoney extracts an integer amount from a free-form string, tolerating
// thousands separators, currency symbols, and surrounding text. Returns 0
// when nothing numeric is present.
func parseMoney(raw string) int64 {
	var digits strings.Builder
	neg := false
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '-' && digits.Len() == 0:
			neg = true
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

func parseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
