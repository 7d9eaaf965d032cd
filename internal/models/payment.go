package models

import "time"

// PaymentStatus tracks the workflow state of a ledger entry after the
// gateway has authorized the charge.
type PaymentStatus string

const (
	// PaymentStatusCompleted is the durable commit point: a student is
	// enrolled if and only if a completed payment exists.
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	// PaymentStatusNeedsReconciliation marks a captured charge whose
	// seat reservation did not apply. Money has moved; the record is
	// kept for manual follow-up instead of being dropped.
	PaymentStatusNeedsReconciliation PaymentStatus = "NEEDS_RECONCILIATION"
	// PaymentStatusResolved is set by an admin after manual follow-up.
	// The workflow itself never writes this state.
	PaymentStatusResolved PaymentStatus = "RESOLVED"
)

// Payment is an append-only ledger entry for a captured charge.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	ClassID       string        `db:"class_id" json:"class_id"`
	Email         string        `db:"email" json:"email"`
	Amount        float64       `db:"amount" json:"amount"`
	AmountMinor   int64         `db:"amount_minor" json:"amount_minor"`
	Currency      string        `db:"currency" json:"currency"`
	TransactionID string        `db:"transaction_id" json:"transaction_id"`
	Status        PaymentStatus `db:"status" json:"status"`
	ReconcileNote *string       `db:"reconcile_note" json:"reconcile_note,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// EnrolledClass is the derived enrollment view: a catalog entry joined
// through the ledger for a given payer. It is never stored.
type EnrolledClass struct {
	Class
	PaymentID  string    `db:"payment_id" json:"payment_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}
