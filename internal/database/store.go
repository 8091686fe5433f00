package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// DefaultHorizonDays is how many forward days count as "upcoming" when the
// caller does not say otherwise.
const DefaultHorizonDays = 3

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetBirthday retrieves a birthday by surrogate key. Absent records and
	// query failures both report nil; failures are logged, never surfaced.
	GetBirthday(ctx context.Context, id int64) *Birthday

	// GetBirthdayByName retrieves a birthday by its natural key, with the
	// same absent-on-failure contract as GetBirthday.
	GetBirthdayByName(ctx context.Context, name string) *Birthday

	// AllBirthdays retrieves every record in store-native order.
	AllBirthdays(ctx context.Context) ([]Birthday, error)

	// CountBirthdays reports the total number of records.
	CountBirthdays(ctx context.Context) (int64, error)

	// BirthdaysBetween retrieves records whose month/day falls within
	// [start, end] inclusive. The window may wrap across the year boundary
	// (e.g. Dec 30 .. Jan 2). Results are ordered by distance from the
	// window start, then name.
	BirthdaysBetween(ctx context.Context, start, end time.Time) ([]Birthday, error)

	// BirthdaysOn is BirthdaysBetween(ref, ref).
	BirthdaysOn(ctx context.Context, ref time.Time) ([]Birthday, error)

	// UpcomingBirthdays retrieves records due between tomorrow and
	// ref+horizonDays. Non-positive horizons use DefaultHorizonDays.
	UpcomingBirthdays(ctx context.Context, ref time.Time, horizonDays int) ([]Birthday, error)

	// BirthdaysAfter retrieves records whose month/day is strictly later in
	// the year than ref's, with no upper bound.
	BirthdaysAfter(ctx context.Context, ref time.Time) ([]Birthday, error)

	// ReplaceBirthdays deletes every existing record and bulk-inserts the
	// new set inside a single transaction, so a failed insert rolls back to
	// the prior table contents. Empty input is a no-op. Returns the number
	// of rows inserted; 0 with a non-nil error on failure.
	ReplaceBirthdays(ctx context.Context, records []Birthday) (int64, error)

	// AddSubscription enrolls a chat in the daily mailing (idempotent).
	AddSubscription(ctx context.Context, chatID int64) error

	// RemoveSubscription removes a chat from the daily mailing.
	RemoveSubscription(ctx context.Context, chatID int64) error

	// ListSubscriptions returns every enrolled chat.
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetBirthday(ctx context.Context, id int64) *Birthday {
	var b Birthday
	err := s.db.GetContext(ctx, &b, `SELECT id, name, date FROM birthdays WHERE id = ?;`, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.ErrorContext(ctx, "Error fetching birthday by id", "id", id, "error", err)
		}
		return nil
	}
	return &b
}

func (s *sqlxStore) GetBirthdayByName(ctx context.Context, name string) *Birthday {
	var b Birthday
	err := s.db.GetContext(ctx, &b, `SELECT id, name, date FROM birthdays WHERE name = ?;`, name)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.ErrorContext(ctx, "Error fetching birthday by name", "name", name, "error", err)
		}
		return nil
	}
	return &b
}

// AllBirthdays retrieves every record in store-native order.
func (s *sqlxStore) AllBirthdays(ctx context.Context) ([]Birthday, error) {
	var birthdays []Birthday
	err := s.db.SelectContext(ctx, &birthdays, `SELECT id, name, date FROM birthdays;`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching all birthdays", "error", err)
		return nil, fmt.Errorf("failed to fetch birthdays: %w", err)
	}
	return birthdays, nil
}

// CountBirthdays reports the total number of records.
func (s *sqlxStore) CountBirthdays(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(name) FROM birthdays;`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting birthdays", "error", err)
		return 0, fmt.Errorf("failed to count birthdays: %w", err)
	}
	return count, nil
}

// monthDay renders the month/day key used for calendar comparisons,
// e.g. "03-07". Matching ignores the stored year entirely.
func monthDay(t time.Time) string {
	return t.Format("01-02")
}

func (s *sqlxStore) BirthdaysBetween(ctx context.Context, start, end time.Time) ([]Birthday, error) {
	from, to := monthDay(start), monthDay(end)

	var (
		birthdays []Birthday
		err       error
	)
	if from <= to {
		query := `
            SELECT id, name, date FROM birthdays
            WHERE strftime('%m-%d', date) BETWEEN ? AND ?
            ORDER BY strftime('%m-%d', date), name;
        `
		err = s.db.SelectContext(ctx, &birthdays, query, from, to)
	} else {
		// Window wraps past Dec 31: match both tails and order records in
		// the later tail (Jan side) after the earlier one.
		query := `
            SELECT id, name, date FROM birthdays
            WHERE strftime('%m-%d', date) >= ? OR strftime('%m-%d', date) <= ?
            ORDER BY CASE WHEN strftime('%m-%d', date) >= ? THEN 0 ELSE 1 END,
                     strftime('%m-%d', date), name;
        `
		err = s.db.SelectContext(ctx, &birthdays, query, from, to, from)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching birthdays in range", "from", from, "to", to, "error", err)
		return nil, fmt.Errorf("failed to fetch birthdays between %s and %s: %w", from, to, err)
	}
	return birthdays, nil
}

func (s *sqlxStore) BirthdaysOn(ctx context.Context, ref time.Time) ([]Birthday, error) {
	return s.BirthdaysBetween(ctx, ref, ref)
}

func (s *sqlxStore) UpcomingBirthdays(ctx context.Context, ref time.Time, horizonDays int) ([]Birthday, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return s.BirthdaysBetween(ctx, ref.AddDate(0, 0, 1), ref.AddDate(0, 0, horizonDays))
}

func (s *sqlxStore) BirthdaysAfter(ctx context.Context, ref time.Time) ([]Birthday, error) {
	var birthdays []Birthday
	query := `SELECT id, name, date FROM birthdays WHERE strftime('%m-%d', date) > ?;`
	err := s.db.SelectContext(ctx, &birthdays, query, monthDay(ref))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching future birthdays", "after", monthDay(ref), "error", err)
		return nil, fmt.Errorf("failed to fetch birthdays after %s: %w", monthDay(ref), err)
	}
	return birthdays, nil
}

func (s *sqlxStore) ReplaceBirthdays(ctx context.Context, records []Birthday) (int64, error) {
	if len(records) == 0 {
		s.logger.DebugContext(ctx, "ReplaceBirthdays called with empty record set, nothing to do")
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for birthday refresh", "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back birthday refresh", "error", rollbackErr)
			}
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM birthdays;`); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear birthdays table", "error", err)
		return 0, fmt.Errorf("failed to clear birthdays table: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx, `INSERT INTO birthdays (name, date) VALUES (:name, :date);`, records); err != nil {
		s.logger.ErrorContext(ctx, "Failed to bulk insert birthdays, rolling back", "count", len(records), "error", err)
		return 0, fmt.Errorf("failed to insert birthdays: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit birthday refresh", "error", err)
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Birthdays table refreshed", "count", len(records))
	return int64(len(records)), nil
}

// AddSubscription enrolls a chat in the daily mailing. Re-adding an already
// subscribed chat is not an error.
func (s *sqlxStore) AddSubscription(ctx context.Context, chatID int64) error {
	query := `INSERT INTO subscriptions (chat_id, created_at) VALUES (?, ?) ON CONFLICT(chat_id) DO NOTHING;`
	if _, err := s.db.ExecContext(ctx, query, chatID, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error adding subscription", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to add subscription for chat %d: %w", chatID, err)
	}
	return nil
}

func (s *sqlxStore) RemoveSubscription(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE chat_id = ?;`, chatID); err != nil {
		s.logger.ErrorContext(ctx, "Error removing subscription", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to remove subscription for chat %d: %w", chatID, err)
	}
	return nil
}

func (s *sqlxStore) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	var subs []Subscription
	err := s.db.SelectContext(ctx, &subs, `SELECT chat_id, created_at FROM subscriptions ORDER BY chat_id;`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// ParseDateBound interprets a user-supplied range bound. It accepts ISO
// dates ("2026-03-07"); anything else falls back to the first or last day of
// the current calendar year depending on which side of the range the bound
// sits on.
func ParseDateBound(value string, end bool) time.Time {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t
	}
	year := time.Now().Year()
	if end {
		return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
