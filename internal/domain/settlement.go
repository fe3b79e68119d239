package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether invoices are owed to us (receivable) or by us (payable).
type Direction string

const (
	Receivable Direction = "receivable"
	Payable    Direction = "payable"
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "receivable", "receipts", "client":
		return Receivable, nil
	case "payable", "disbursements", "supplier":
		return Payable, nil
	}
	return "", fmt.Errorf("invalid direction %q: expected receivable or payable", s)
}

// EligibleStatus is the payment status that counts as settled for d.
func (d Direction) EligibleStatus() PaymentStatus {
	if d == Payable {
		return PaymentPaid
	}
	return PaymentCollected
}

// SettledLabel is the column name used for settled amounts.
func (d Direction) SettledLabel() string {
	if d == Payable {
		return "Paid"
	}
	return "Collected"
}

type PaymentStatus string

const (
	PaymentPending               PaymentStatus = "pending"
	PaymentRejected              PaymentStatus = "rejected"
	PaymentCollected             PaymentStatus = "collected"
	PaymentUnderCollection       PaymentStatus = "under_collection"
	PaymentInTreasury            PaymentStatus = "in_treasury"
	PaymentPaid                  PaymentStatus = "paid"
	PaymentChequeIssued          PaymentStatus = "cheque_issued"
	PaymentChequeUnderCollection PaymentStatus = "cheque_under_collection"
)

var paymentStatuses = map[PaymentStatus]struct{}{
	PaymentPending: {}, PaymentRejected: {}, PaymentCollected: {}, PaymentUnderCollection: {},
	PaymentInTreasury: {}, PaymentPaid: {}, PaymentChequeIssued: {}, PaymentChequeUnderCollection: {},
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	if _, ok := paymentStatuses[st]; !ok {
		return "", fmt.Errorf("invalid payment status %q", s)
	}
	return st, nil
}

// Invoice is an amount owed by or to a counterparty. Settled is derived by
// the allocation engine and is never entered by hand.
type Invoice struct {
	ID           string
	InvoiceNo    string
	Counterparty string
	Direction    Direction
	IssueDate    time.Time
	DueDate      time.Time
	Amount       decimal.Decimal
	Settled      decimal.Decimal
}

func (i Invoice) Outstanding() decimal.Decimal {
	return i.Amount.Sub(i.Settled)
}

func (i Invoice) IsSettled() bool {
	return i.Outstanding().Sign() <= 0
}

type Payment struct {
	ID           string
	PaymentNo    string
	Counterparty string
	Direction    Direction
	Date         time.Time
	Amount       decimal.Decimal
	Method       string
	Status       PaymentStatus
}

// Eligible reports whether the payment participates in settlement.
func (p Payment) Eligible(d Direction) bool {
	return p.Status == d.EligibleStatus()
}
