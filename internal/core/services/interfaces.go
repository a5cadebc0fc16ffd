package services

import "assofund/internal/adapters/persistence/models"

// Notifier is the outbound courtesy channel (email/webhook). It is invoked
// only after a successful ledger mutation, outside the member lock and
// outside any transaction: a send failure is logged by the caller and never
// reverses the mutation.
type Notifier interface {
	// PaymentRecorded announces a recorded settlement to the member.
	PaymentRecorded(member *models.Member, result *SettlementResult) error

	// ReminderIssued delivers an arrears reminder.
	ReminderIssued(member *models.Member, reminder *models.Reminder) error
}
