package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whatsapp-notifier/logger"
	"whatsapp-notifier/models"
	"whatsapp-notifier/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository is the store contract used by one cycle.
type Repository interface {
	SelectWelcomeBatch(ctx context.Context, now time.Time) ([]models.NotificationRecord, error)
	SelectReminderBatch(ctx context.Context, now time.Time) ([]models.NotificationRecord, error)
	MarkWelcomeSent(ctx context.Context, id int64) error
	MarkReminderSent(ctx context.Context, id int64) error
	MarkError(ctx context.Context, id int64) error
}

// StoreError wraps a failed store operation.
type StoreError struct {
	Op  string
	ID  int64
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("store %s (id %d): %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrNotFound is returned by the mark operations when no task has the given id.
var ErrNotFound = errors.New("notification task not found")

const recordColumns = `t.id AS id, t.appointment_id AS appointment_id, t.phone AS phone,
	t.kind AS raw_kind, t.scheduled_at AS scheduled_at, t.sent AS sent, t.confirmed AS confirmed,
	t.error_flag AS error_flag, t.label AS task_label,
	a.appointment_at AS appointment_at, a.label AS appointment_label, a.time_of_day AS time_of_day,
	a.fixed_time AS fixed_time, a.professional AS professional, a.specialty AS specialty,
	u.id AS unit_id, u.company_id AS company_id, u.name AS unit_name, u.street AS unit_street,
	u.number AS unit_number, u.district AS unit_district, u.state AS unit_state,
	u.full_address AS unit_full_address`

type StoreOptions struct {
	Location  *time.Location
	BatchSize int
	CompanyID *int64 // optional tenant filter
}

// Store is the gorm-backed appointment store.
type Store struct {
	db        *gorm.DB
	loc       *time.Location
	batchSize int
	companyID *int64
	now       func() time.Time
}

func NewStore(db *gorm.DB, opts StoreOptions) *Store {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	return &Store{
		db:        db,
		loc:       opts.Location,
		batchSize: opts.BatchSize,
		companyID: opts.CompanyID,
		now:       time.Now,
	}
}

// AutoMigrate creates or updates the tables the worker reads and writes.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&models.Unit{}, &models.Appointment{}, &models.NotificationTask{})
}

// WithConnection runs fn against a single pooled connection, released when fn
// returns. Failing to acquire the connection returns a *StoreError; errors from
// fn are returned unchanged.
func (s *Store) WithConnection(ctx context.Context, fn func(Repository) error) error {
	called := false
	err := s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		called = true
		return fn(&gormRepository{store: s, db: conn})
	})
	if err != nil && !called {
		return &StoreError{Op: "connect", Err: err}
	}
	return err
}

type gormRepository struct {
	store *Store
	db    *gorm.DB
}

func (r *gormRepository) SelectWelcomeBatch(ctx context.Context, now time.Time) ([]models.NotificationRecord, error) {
	return r.selectBatch(ctx, models.KindWelcome, now)
}

func (r *gormRepository) SelectReminderBatch(ctx context.Context, now time.Time) ([]models.NotificationRecord, error) {
	return r.selectBatch(ctx, models.KindReminder, now)
}

func (r *gormRepository) selectBatch(ctx context.Context, kind models.Kind, now time.Time) ([]models.NotificationRecord, error) {
	rule := RuleFor(kind)
	window := utils.NewDayWindow(now, r.store.loc)

	query := r.db.WithContext(ctx).
		Table("notification_tasks AS t").
		Select(recordColumns).
		Joins("JOIN appointments AS a ON a.id = t.appointment_id").
		Joins("JOIN units AS u ON u.id = a.unit_id")
	for _, p := range rule.Predicates {
		query = query.Where(p.SQL, p.Args(window)...)
	}
	if r.store.companyID != nil {
		query = query.Where("u.company_id = ?", *r.store.companyID)
	}

	var rows []models.NotificationRecord
	err := query.
		Order("a.appointment_at ASC").
		Order("t.id ASC").
		Limit(r.store.batchSize).
		Scan(&rows).Error
	if err != nil {
		return nil, &StoreError{Op: "select " + kind.String(), Err: err}
	}

	records := rows[:0]
	for _, rec := range rows {
		if failed := rule.FirstFailure(rec, window); failed != "" {
			logger.Warn("Selected record fails eligibility check, skipping",
				zap.Int64("id", rec.ID),
				zap.String("kind", kind.String()),
				zap.String("predicate", failed),
			)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *gormRepository) MarkWelcomeSent(ctx context.Context, id int64) error {
	return r.update(ctx, "mark welcome sent", id, map[string]any{
		"sent":       true,
		"error_flag": false,
		"sent_at":    r.store.now().UTC(),
	})
}

func (r *gormRepository) MarkReminderSent(ctx context.Context, id int64) error {
	now := r.store.now().UTC()
	return r.update(ctx, "mark reminder sent", id, map[string]any{
		"confirmed":    true,
		"sent":         true,
		"error_flag":   false,
		"confirmed_at": now,
		"sent_at":      gorm.Expr("COALESCE(sent_at, ?)", now),
	})
}

func (r *gormRepository) MarkError(ctx context.Context, id int64) error {
	return r.update(ctx, "mark error", id, map[string]any{
		"error_flag": true,
	})
}

// update applies values to one task inside its own transaction.
func (r *gormRepository) update(ctx context.Context, op string, id int64, values map[string]any) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.NotificationTask{}).Where("id = ?", id).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return &StoreError{Op: op, ID: id, Err: err}
	}
	return nil
}
