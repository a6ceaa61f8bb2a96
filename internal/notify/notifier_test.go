package notify

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewWithoutURL(t *testing.T) {
	n, err := New("")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("New(\"\") error = %v, want ErrNotConfigured", err)
	}
	if n.Enabled() {
		t.Error("Enabled() = true for unconfigured notifier")
	}
	if err := n.Send("hello"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Send() error = %v, want ErrNotConfigured", err)
	}
}

func TestAlertMessage(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	msg := AlertMessage("Spot A1", "car-000001", start, 5.2, 5, 0.87)
	for _, want := range []string{"Spot A1", "car-000001", "5.2 hours", "over 5.0 hours", "0.87"} {
		if !strings.Contains(msg, want) {
			t.Errorf("AlertMessage() missing %q:\n%s", want, msg)
		}
	}
}

func TestAlertMessageUnknownVehicle(t *testing.T) {
	msg := AlertMessage("Spot A1", "", time.Now(), 5.2, 5, 0.87)
	if !strings.Contains(msg, "Unknown") {
		t.Errorf("AlertMessage() with empty car id missing Unknown placeholder:\n%s", msg)
	}
}

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		name   string
		status string
		emoji  string
	}{
		{name: "online", status: "System Online", emoji: "✅"},
		{name: "warning", status: "Warning: degraded", emoji: "⚠️"},
		{name: "offline", status: "System Offline", emoji: "❌"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := StatusMessage(tt.status, "details here")
			if !strings.HasPrefix(msg, tt.emoji) {
				t.Errorf("StatusMessage(%q) does not start with %s:\n%s", tt.status, tt.emoji, msg)
			}
			if !strings.Contains(msg, "details here") {
				t.Errorf("StatusMessage(%q) missing details:\n%s", tt.status, msg)
			}
		})
	}
}
