package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
)

var ErrNotConfigured = errors.New("notification transport is not configured")

// Notifier delivers chat messages through a shoutrrr service URL
// (slack://..., discord://..., etc.). An empty URL disables delivery
// without failing startup.
type Notifier struct {
	sender *router.ServiceRouter
}

func New(serviceURL string) (*Notifier, error) {
	if strings.TrimSpace(serviceURL) == "" {
		return nil, ErrNotConfigured
	}
	sender, err := shoutrrr.CreateSender(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("create notification sender: %w", err)
	}
	return &Notifier{sender: sender}, nil
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.sender != nil
}

func (n *Notifier) Send(message string) error {
	if !n.Enabled() {
		return ErrNotConfigured
	}
	for _, err := range n.sender.Send(message, &types.Params{}) {
		if err != nil {
			return fmt.Errorf("send notification: %w", err)
		}
	}
	return nil
}

// AlertMessage renders the long-parking alert in the dashboard's chat
// format.
func AlertMessage(spotName, carID string, startTime time.Time, elapsedHours, thresholdHours, confidence float64) string {
	if carID == "" {
		carID = "Unknown"
	}
	return strings.TrimSpace(fmt.Sprintf(`🚨 Parking Alert - Vehicle Exceeding Time Limit

Location: %s
Vehicle ID: %s
Time Parked: %.1f hours
Start Time: %s
Confidence: %.2f

This vehicle has been parked for over %.1f hours and may require attention.`,
		spotName, carID, elapsedHours, startTime.Format(time.RFC3339), confidence, thresholdHours))
}

// StatusMessage renders system online/offline notifications.
func StatusMessage(status, details string) string {
	emoji := "❌"
	switch {
	case strings.Contains(strings.ToLower(status), "online"):
		emoji = "✅"
	case strings.Contains(strings.ToLower(status), "warning"):
		emoji = "⚠️"
	}
	message := fmt.Sprintf(`%s System Status Update

Status: %s
Time: %s`, emoji, status, time.Now().Format("2006-01-02 15:04:05"))
	if details != "" {
		message += fmt.Sprintf("\n\nDetails: %s", details)
	}
	return message
}
