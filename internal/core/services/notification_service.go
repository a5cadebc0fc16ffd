package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"assofund/internal/adapters/persistence/models"
	"assofund/internal/config"
)

// NotificationService posts courtesy messages to the configured webhook
// (the association's mailer bridge). With no webhook configured it degrades
// to log-only, which keeps development setups working.
type NotificationService struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		webhookURL: cfg.Notify.WebhookURL,
		channel:    cfg.Notify.Channel,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type notificationPayload struct {
	Event   string      `json:"event"`
	Channel string      `json:"channel"`
	MembNo  string      `json:"memb_no"`
	Email   string      `json:"email,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PaymentRecorded announces a recorded settlement to the member.
func (s *NotificationService) PaymentRecorded(member *models.Member, result *SettlementResult) error {
	return s.post(notificationPayload{
		Event:   "payment_recorded",
		Channel: s.channel,
		MembNo:  member.MembNo,
		Email:   member.Email,
		Data:    result,
	})
}

// ReminderIssued delivers an arrears reminder.
func (s *NotificationService) ReminderIssued(member *models.Member, reminder *models.Reminder) error {
	return s.post(notificationPayload{
		Event:   "dues_reminder",
		Channel: reminder.Channel,
		MembNo:  member.MembNo,
		Email:   member.Email,
		Data: map[string]interface{}{
			"reminder_id": reminder.ID,
			"message":     reminder.Message,
		},
	})
}

func (s *NotificationService) post(payload notificationPayload) error {
	if s.webhookURL == "" {
		log.Printf("📨 [notify:%s] %s for member %s (no webhook configured)", payload.Channel, payload.Event, payload.MembNo)
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}
