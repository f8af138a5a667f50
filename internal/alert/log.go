package alert

import (
	"context"
	"log/slog"
	"unicode"

	"github.com/fentz26/dosewatch/internal/models"
)

// LogAlerter records alerts through the logger instead of delivering them.
type LogAlerter struct {
	logger *slog.Logger
}

// NewLogAlerter creates a LogAlerter. A nil logger uses slog.Default().
func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAlerter{logger: logger}
}

// Name returns the alerter identifier.
func (l *LogAlerter) Name() string {
	return "log"
}

// Accepts checks the contact has a phone number with at least one digit.
func (l *LogAlerter) Accepts(c models.Contact) bool {
	for _, r := range c.Phone {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// Send logs one line per addressable contact.
func (l *LogAlerter) Send(ctx context.Context, a Alert) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Alerter: l.Name()}
	for _, c := range a.Contacts {
		if !l.Accepts(c) {
			res.Skipped = append(res.Skipped, c.ID)
			l.logger.Warn("emergency alert skipped", "contact", c.Name, "reason", "no phone number")
			continue
		}
		l.logger.Warn("emergency alert",
			"contact", c.Name,
			"relation", c.Relation,
			"phone", c.Phone,
			"message", a.Message,
		)
		res.Notified++
	}
	return res, nil
}
