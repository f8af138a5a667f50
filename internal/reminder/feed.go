package reminder

import (
	"context"
	"fmt"

	"github.com/fentz26/dosewatch/internal/alert"
	"github.com/fentz26/dosewatch/internal/models"
	"github.com/google/uuid"
)

// Notifications returns the feed, newest first.
func (s *Session) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.feed...)
}

// UnreadCount returns the number of unread notifications.
func (s *Session) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, x := range s.feed {
		if !x.Read {
			n++
		}
	}
	return n
}

// Notify appends an entry to the feed and returns it with its id set.
func (s *Session) Notify(n models.Notification) models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notify(n)
}

// MarkRead marks one notification read.
func (s *Session) MarkRead(notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findNotification(notificationID)
	if idx < 0 {
		return ErrNotificationNotFound
	}
	s.feed[idx].Read = true
	return nil
}

// MarkAllRead marks every notification read and returns how many changed.
func (s *Session) MarkAllRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.feed {
		if !s.feed[i].Read {
			s.feed[i].Read = true
			changed++
		}
	}
	return changed
}

// SOSResult reports an emergency alert dispatch.
type SOSResult struct {
	Result       *alert.Result       `json:"result"`
	Notification models.Notification `json:"notification"`
}

// SendSOS alerts every emergency contact and records the alert in the feed.
func (s *Session) SendSOS(ctx context.Context, message string) (*SOSResult, error) {
	s.mu.Lock()
	contacts := append([]models.Contact(nil), s.contacts...)
	now := s.now()
	s.mu.Unlock()

	if len(contacts) == 0 {
		return nil, ErrNoContacts
	}
	if message == "" {
		message = "Emergency alert: please check on me."
	}

	res, err := s.alerter.Send(ctx, alert.Alert{Message: message, Contacts: contacts, SentAt: now})
	if err != nil {
		s.mu.Lock()
		s.record(ctx, "sos.send", map[string]interface{}{"contacts": len(contacts)}, "error", "", err.Error())
		s.mu.Unlock()
		return nil, fmt.Errorf("send alert: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notify(models.Notification{
		Title:     "Emergency alert sent",
		Message:   fmt.Sprintf("Notified %d contacts", res.Notified),
		CreatedAt: now,
		Type:      models.NotificationEmergency,
	})
	s.record(ctx, "sos.send", map[string]interface{}{"contacts": len(contacts)}, "success", "", fmt.Sprintf("notified=%d", res.Notified))
	s.logger.Warn("emergency alert sent", "alerter", res.Alerter, "notified", res.Notified)
	return &SOSResult{Result: res, Notification: n}, nil
}

// notify prepends to the feed and trims it; callers hold s.mu.
func (s *Session) notify(n models.Notification) models.Notification {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.Type == "" {
		n.Type = models.NotificationGeneral
	}
	s.feed = append([]models.Notification{n}, s.feed...)
	if len(s.feed) > s.feedLimit {
		s.feed = s.feed[:s.feedLimit]
	}
	return n
}

func (s *Session) findNotification(id string) int {
	for i := range s.feed {
		if s.feed[i].ID == id {
			return i
		}
	}
	return -1
}
