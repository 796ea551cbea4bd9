package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionPayment TransactionType = "payment"
	TransactionCharge  TransactionType = "charge"
	TransactionRefund  TransactionType = "refund"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionPayment, TransactionCharge, TransactionRefund:
		return true
	default:
		return false
	}
}

type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	ClientID      uuid.UUID       `json:"client_id"`
	AppointmentID *uuid.UUID      `json:"appointment_id,omitempty"`
	Amount        int64           `json:"amount"`
	Type          TransactionType `json:"type"`
	Method        string          `json:"method"`
	Date          time.Time       `json:"date"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type LedgerTotals struct {
	Payments int64 `json:"payments"`
	Charges  int64 `json:"charges"`
	Refunds  int64 `json:"refunds"`
}

func (t LedgerTotals) Balance() int64 {
	return t.Payments - t.Charges - t.Refunds
}

func (t *LedgerTotals) Add(kind TransactionType, amount int64) {
	switch kind {
	case TransactionPayment:
		t.Payments += amount
	case TransactionCharge:
		t.Charges += amount
	case TransactionRefund:
		t.Refunds += amount
	}
}

type ClientBalance struct {
	ClientID uuid.UUID    `json:"client_id"`
	Totals   LedgerTotals `json:"totals"`
	Balance  int64        `json:"balance"`
}
