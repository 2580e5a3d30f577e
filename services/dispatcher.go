package services

import (
	"context"
	"time"

	"whatsapp-notifier/models"
	"whatsapp-notifier/utils"

	"go.uber.org/zap"
)

// Templates holds the gateway template id used for each kind.
type Templates struct {
	Welcome  string
	Reminder string
}

func (t Templates) For(kind models.Kind) string {
	if kind == models.KindReminder {
		return t.Reminder
	}
	return t.Welcome
}

// Dispatcher sends one batch of records and writes back their status.
type Dispatcher struct {
	sender    Sender
	templates Templates
	loc       *time.Location
	now       func() time.Time
	log       *zap.Logger
}

func NewDispatcher(sender Sender, templates Templates, loc *time.Location, log *zap.Logger) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		sender:    sender,
		templates: templates,
		loc:       loc,
		now:       time.Now,
		log:       log,
	}
}

// WithLogger returns a copy of the dispatcher logging to log.
func (d *Dispatcher) WithLogger(log *zap.Logger) *Dispatcher {
	c := *d
	c.log = log
	return &c
}

// Dispatch processes records in order. A failing record never stops the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, repo Repository, kind models.Kind, records []models.NotificationRecord) BatchReport {
	report := BatchReport{
		Kind:      kind,
		Selected:  len(records),
		StartedAt: d.now(),
	}
	for _, rec := range records {
		report.Add(d.dispatchOne(ctx, repo, kind, rec))
	}
	report.FinishedAt = d.now()
	report.Log(d.log)
	return report
}

func (d *Dispatcher) dispatchOne(ctx context.Context, repo Repository, kind models.Kind, rec models.NotificationRecord) Result {
	log := d.log.With(
		zap.Int64("id", rec.ID),
		zap.Int64("appointment_id", rec.AppointmentID),
		zap.String("kind", kind.String()),
	)
	result := Result{ID: rec.ID, Kind: kind}

	params, err := utils.FormatRecord(rec, d.now(), d.loc)
	if err != nil {
		log.Warn("Invalid record, flagging error", zap.Error(err))
		result.Outcome = OutcomeInvalid
		result.Err = err
		result.StoreErr = d.markError(ctx, repo, rec.ID, log)
		return result
	}

	// welcome messages carry no button
	link := ""
	if kind == models.KindReminder {
		link = params.Link
	}
	payload := models.NewTemplatePayload(d.templates.For(kind), params, link)

	if err := d.sender.Send(ctx, payload); err != nil {
		log.Error("Gateway send failed", zap.String("phone", params.Phone), zap.Error(err))
		result.Outcome = OutcomeGatewayError
		result.Err = err
		result.StoreErr = d.markError(ctx, repo, rec.ID, log)
		return result
	}

	if kind == models.KindReminder {
		err = repo.MarkReminderSent(ctx, rec.ID)
	} else {
		err = repo.MarkWelcomeSent(ctx, rec.ID)
	}
	if err != nil {
		log.Error("CRITICAL: message sent but status not saved, it may be sent again", zap.Error(err))
		result.Outcome = OutcomeStoreError
		result.Err = err
		return result
	}

	log.Info("Notification sent", zap.String("phone", params.Phone))
	result.Outcome = OutcomeSent
	return result
}

func (d *Dispatcher) markError(ctx context.Context, repo Repository, id int64, log *zap.Logger) error {
	if err := repo.MarkError(ctx, id); err != nil {
		log.Error("Could not flag record error", zap.Error(err))
		return err
	}
	return nil
}
