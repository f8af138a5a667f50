package alert

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/fentz26/dosewatch/internal/models"
)

func TestAccepts(t *testing.T) {
	a := NewLogAlerter(nil)

	tests := []struct {
		phone    string
		accepted bool
	}{
		{"+1 (555) 123-4567", true},
		{"5551234", true},
		{"", false},
		{"call me", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			got := a.Accepts(models.Contact{Phone: tt.phone})
			if got != tt.accepted {
				t.Errorf("Accepts(%q) = %v, want %v", tt.phone, got, tt.accepted)
			}
		})
	}
}

func TestSend(t *testing.T) {
	var buf bytes.Buffer
	a := NewLogAlerter(slog.New(slog.NewTextHandler(&buf, nil)))

	res, err := a.Send(context.Background(), Alert{
		Message: "help",
		Contacts: []models.Contact{
			{ID: "1", Name: "Dr. Sarah Johnson", Phone: "+1 (555) 123-4567", Relation: "doctor"},
			{ID: "2", Name: "Nobody", Phone: "n/a"},
		},
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if res.Notified != 1 {
		t.Errorf("Expected 1 notified, got %d", res.Notified)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "2" {
		t.Errorf("Expected contact 2 skipped, got %v", res.Skipped)
	}
	if !strings.Contains(buf.String(), "Dr. Sarah Johnson") {
		t.Errorf("Expected log line for contact, got %q", buf.String())
	}
}

func TestSend_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLogAlerter(nil).Send(ctx, Alert{}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
