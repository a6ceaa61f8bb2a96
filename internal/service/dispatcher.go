package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"parking-monitor/internal/domain/parking"
	"parking-monitor/internal/notify"
	"parking-monitor/internal/repository"
)

// AlertDispatcher is the notification collaborator behind the tracking
// loop: it renders the chat message, delivers it, and records the alert row
// with its delivery outcome.
type AlertDispatcher struct {
	repo     *repository.SessionRepository
	notifier *notify.Notifier
	log      zerolog.Logger
}

func NewAlertDispatcher(repo *repository.SessionRepository, notifier *notify.Notifier, log zerolog.Logger) *AlertDispatcher {
	return &AlertDispatcher{
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

func (d *AlertDispatcher) Deliver(ctx context.Context, event parking.AlertEvent) error {
	message := notify.AlertMessage(
		event.SpotName,
		event.CarID,
		event.StartTime,
		event.ElapsedHours,
		event.ThresholdHours,
		event.Confidence,
	)

	delivered := false
	if err := d.notifier.Send(message); err != nil {
		if !errors.Is(err, notify.ErrNotConfigured) {
			d.log.Error().Err(err).
				Str("session_id", event.SessionID.String()).
				Float64("threshold_hours", event.ThresholdHours).
				Msg("failed to deliver parking alert")
		}
	} else {
		delivered = true
	}

	if err := d.repo.CreateAlert(ctx, event, message, delivered); err != nil {
		return err
	}
	if !delivered && d.notifier.Enabled() {
		return errors.New("alert recorded but not delivered")
	}
	return nil
}
