package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/adapters/persistence/repositories"
	"assofund/internal/config"
	"assofund/internal/core/domain"
)

// ReminderService emits one reminder per overdue obligation for every member
// flagged in arrears. Duplicate reminders across runs are acceptable,
// delivery deduplication is the notification channel's problem, and the
// generator never writes to the ledger itself.
type ReminderService struct {
	obligations *repositories.ObligationRepository
	reminders   *repositories.ReminderRepository
	members     repositories.MemberRepository
	arrears     *ArrearsService
	notifier    Notifier
	locks       *LockRegistry
	dues        config.DuesConfig
	channel     string
}

// NewReminderService creates a new reminder service
func NewReminderService(
	obligationRepo *repositories.ObligationRepository,
	reminderRepo *repositories.ReminderRepository,
	memberRepo repositories.MemberRepository,
	arrearsService *ArrearsService,
	notifier Notifier,
	locks *LockRegistry,
	cfg *config.Config,
) *ReminderService {
	return &ReminderService{
		obligations: obligationRepo,
		reminders:   reminderRepo,
		members:     memberRepo,
		arrears:     arrearsService,
		notifier:    notifier,
		locks:       locks,
		dues:        cfg.Dues,
		channel:     cfg.Notify.Channel,
	}
}

type issuedReminder struct {
	member   *models.Member
	reminder *models.Reminder
}

// GenerateReminders runs the batch and returns how many reminders it created.
func (s *ReminderService) GenerateReminders(ctx context.Context) (int, error) {
	// Refresh statuses first so the due-date comparison is current.
	if err := s.obligations.MarkOverdue(ctx, time.Now()); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	members, err := s.members.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	created := 0
	var issued []issuedReminder

	for _, member := range members {
		release, err := s.locks.Acquire(ctx, member.ID, s.dues.LockTimeout)
		if err != nil {
			return created, err
		}

		batch, err := s.generateForMember(ctx, member)
		release()
		if err != nil {
			return created, err
		}
		created += len(batch)
		issued = append(issued, batch...)
	}

	// Dispatch strictly after the rows exist and outside every member lock.
	// A failed send marks the row FAILED; the ledger is untouched either way.
	s.dispatch(ctx, issued)

	log.Printf("🔔 Generated %d dues reminders", created)
	return created, nil
}

func (s *ReminderService) generateForMember(ctx context.Context, member *models.Member) ([]issuedReminder, error) {
	summary, err := s.arrears.GetMemberDebtSummary(ctx, member.ID)
	if err != nil {
		return nil, err
	}
	if !summary.InArrears {
		return nil, nil
	}

	overdue, err := s.obligations.ListOverdueByMember(ctx, member.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	var issued []issuedReminder
	for _, obligation := range overdue {
		reminder := &models.Reminder{
			MemberID:     member.ID,
			ObligationID: obligation.ID,
			Message:      renderReminderMessage(member, obligation, summary.MonthsInArrears),
			Channel:      s.channel,
			Status:       models.ReminderPending,
		}
		if err := s.reminders.Create(ctx, reminder); err != nil {
			return issued, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
		}
		issued = append(issued, issuedReminder{member: member, reminder: reminder})
	}
	return issued, nil
}

func (s *ReminderService) dispatch(ctx context.Context, issued []issuedReminder) {
	if s.notifier == nil {
		return
	}
	for _, item := range issued {
		status := models.ReminderSent
		if err := s.notifier.ReminderIssued(item.member, item.reminder); err != nil {
			status = models.ReminderFailed
			log.Printf("⚠️ Reminder delivery failed for member %s: %v", item.member.MembNo, err)
		}
		if err := s.reminders.UpdateStatus(ctx, item.reminder.ID, status); err != nil {
			log.Printf("⚠️ Could not record reminder status for member %s: %v", item.member.MembNo, err)
		}
	}
}

func renderReminderMessage(member *models.Member, obligation *models.Obligation, monthsInArrears int) string {
	dueLabel := strings.ReplaceAll(strings.ToLower(string(obligation.DueType)), "_", " ")
	return fmt.Sprintf(
		"Dear %s, your %s of %s for %s is overdue. Your account is %d month(s) in arrears. Please contact the treasurer to settle your dues.",
		member.FullName,
		dueLabel,
		obligation.AmountRemaining,
		obligation.Period(),
		monthsInArrears,
	)
}
