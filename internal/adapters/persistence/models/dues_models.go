package models

import (
	"strings"
	"time"

	"assofund/internal/core/domain"
	"assofund/internal/pkg/money"
)

// ============================================================
// Dues Ledger Tables
// ============================================================

// DueType identifies which recurring due an obligation covers.
type DueType string

const (
	DueTypeFlatFee    DueType = "FLAT_FEE"
	DueTypeAssistance DueType = "ASSISTANCE_FEE"
)

// ParseDueType accepts the wire forms "flat_fee" / "assistance_fee"
// (case-insensitive).
func ParseDueType(s string) (DueType, bool) {
	switch DueType(strings.ToUpper(strings.TrimSpace(s))) {
	case DueTypeFlatFee:
		return DueTypeFlatFee, true
	case DueTypeAssistance:
		return DueTypeAssistance, true
	}
	return "", false
}

// Obligation statuses
const (
	ObligationPending       = "PENDING"
	ObligationPartiallyPaid = "PARTIALLY_PAID"
	ObligationPaid          = "PAID"
	ObligationOverdue       = "OVERDUE"
)

// Credit statuses
const (
	CreditAvailable = "AVAILABLE"
	CreditExhausted = "EXHAUSTED"
)

// Reminder statuses
const (
	ReminderPending = "PENDING"
	ReminderSent    = "SENT"
	ReminderFailed  = "FAILED"
)

// Payment methods
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCheque   = "cheque"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCard     = "card"
)

// ValidPaymentMethod reports whether m is a known settlement method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheque, PaymentMethodTransfer, PaymentMethodCard:
		return true
	}
	return false
}

// Obligation represents dues_obligations table: one row per
// member + due-type + period. Invariant: amount_paid + amount_remaining ==
// amount_expected, both non-negative. Rows are created by the period
// generator and mutated only by the allocation engine; never deleted.
type Obligation struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	MemberID        uint        `gorm:"not null;index;uniqueIndex:idx_obligation_member_type_period" json:"member_id"`
	DueType         DueType     `gorm:"size:20;not null;uniqueIndex:idx_obligation_member_type_period" json:"due_type"`
	PeriodYear      int         `gorm:"not null;uniqueIndex:idx_obligation_member_type_period" json:"period_year"`
	PeriodMonth     int         `gorm:"not null;uniqueIndex:idx_obligation_member_type_period" json:"period_month"`
	AmountExpected  money.Money `gorm:"type:decimal(12,2);not null" json:"amount_expected"`
	AmountPaid      money.Money `gorm:"type:decimal(12,2);not null" json:"amount_paid"`
	AmountRemaining money.Money `gorm:"type:decimal(12,2);not null" json:"amount_remaining"`
	Status          string      `gorm:"size:20;not null;index" json:"status"`
	DueDate         time.Time   `gorm:"not null" json:"due_date"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	Member          Member      `gorm:"foreignKey:MemberID" json:"-"`
}

func (Obligation) TableName() string {
	return "dues_obligations"
}

// Period returns the structured year-month of this obligation.
func (o *Obligation) Period() domain.Period {
	return domain.Period{Year: o.PeriodYear, Month: time.Month(o.PeriodMonth)}
}

// IsOpen reports whether any amount is still owed.
func (o *Obligation) IsOpen() bool {
	return o.Status != ObligationPaid
}

// RecomputeStatus derives the status from the remaining amount:
// remaining <= 0 is PAID, a strict partial payment is PARTIALLY_PAID,
// otherwise PENDING or OVERDUE depending on the due date.
func (o *Obligation) RecomputeStatus(now time.Time) {
	switch {
	case !o.AmountRemaining.IsPositive():
		o.Status = ObligationPaid
	case o.AmountRemaining.LessThan(o.AmountExpected):
		o.Status = ObligationPartiallyPaid
	case now.After(o.DueDate):
		o.Status = ObligationOverdue
	default:
		o.Status = ObligationPending
	}
}

// InitialDebt represents initial_debts table: one row per member + year of
// legacy balance predating the recurring system. Created by an administrator,
// mutated only by credit sweeps.
type InitialDebt struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	MemberID        uint        `gorm:"not null;index;uniqueIndex:idx_initial_debt_member_year" json:"member_id"`
	Year            int         `gorm:"not null;uniqueIndex:idx_initial_debt_member_year" json:"year"`
	Amount          money.Money `gorm:"type:decimal(12,2);not null" json:"amount"`
	AmountPaid      money.Money `gorm:"type:decimal(12,2);not null" json:"amount_paid"`
	AmountRemaining money.Money `gorm:"type:decimal(12,2);not null" json:"amount_remaining"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	Member          Member      `gorm:"foreignKey:MemberID" json:"-"`
}

func (InitialDebt) TableName() string {
	return "initial_debts"
}

// Credit represents credits table: one row per overpayment event ("avoir").
// Invariant: amount_used + amount_remaining == amount. Kept forever as the
// audit trail; status flips to EXHAUSTED when remaining hits zero.
type Credit struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	MemberID        uint        `gorm:"not null;index" json:"member_id"`
	Amount          money.Money `gorm:"type:decimal(12,2);not null" json:"amount"`
	AmountUsed      money.Money `gorm:"type:decimal(12,2);not null" json:"amount_used"`
	AmountRemaining money.Money `gorm:"type:decimal(12,2);not null" json:"amount_remaining"`
	Status          string      `gorm:"size:20;not null;index" json:"status"`
	CreatedAt       time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	Member          Member      `gorm:"foreignKey:MemberID" json:"-"`
}

func (Credit) TableName() string {
	return "credits"
}

// Payment represents payments table. Rows are immutable settlement records:
// never updated, never deleted.
type Payment struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	MemberID     uint        `gorm:"not null;index" json:"member_id"`
	ObligationID *uint       `gorm:"index" json:"obligation_id,omitempty"`
	Amount       money.Money `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method       string      `gorm:"size:20;not null" json:"method"`
	PaidAt       time.Time   `gorm:"not null" json:"paid_at"`
	Reference    string      `gorm:"size:64;index" json:"reference"`
	Note         string      `gorm:"size:255" json:"note,omitempty"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	Member       Member      `gorm:"foreignKey:MemberID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// Reminder represents dues_reminders table: one row per flagged
// member + obligation. Delivery lifecycle is handled by the notification
// channel, not the ledger.
type Reminder struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MemberID     uint      `gorm:"not null;index" json:"member_id"`
	ObligationID uint      `gorm:"not null;index" json:"obligation_id"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	Channel      string    `gorm:"size:20;not null" json:"channel"`
	Status       string    `gorm:"size:20;not null;index" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	Member       Member    `gorm:"foreignKey:MemberID" json:"-"`
}

func (Reminder) TableName() string {
	return "dues_reminders"
}
