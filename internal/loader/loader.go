// Package loader implements the birthday-data refresh pipeline: fetch the
// remote spreadsheet, parse it into records, atomically replace the local
// store, and derive the cached reminder messages behind a freshness gate.
package loader

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"bdaybot/internal/database"
	"bdaybot/internal/format"
	"bdaybot/internal/sheet"
)

// Default user-facing texts. All of them can be overridden via Config.
const (
	DefaultWarningStale = "Не удалось обновить базу данных. " +
		"Ответ может не содержать наиболее актуальных данных."
	DefaultNoticeNoUpcoming = "Сегодня и ближайшие пару дней" +
		" #деньрождения не предвидится."
	DefaultNotifyCredentialExpired = "Токен безопасности Яндекс Диска устарел.\n" +
		"Получите новый код подтверждения и отправьте его боту командой /code."
	DefaultNotifyFetchFailed = "#ошибка: не удалось скачать файл с данными " +
		"о днях рождения с Яндекс Диска."
)

// Spreadsheet column names, fixed by the shared workbook's layout.
const (
	ColumnDay   = "Дата"
	ColumnMonth = "месяц"
	ColumnName  = "ФИО"
)

// FileTransfer is the remote drive collaborator. The loader only reads;
// write-back of new entries happens elsewhere against the same file.
type FileTransfer interface {
	CheckCredential(ctx context.Context) bool
	Download(ctx context.Context, remotePath, localPath string) error
}

// DateSource resolves today's date. Implementations must degrade to the
// system date internally rather than fail.
type DateSource interface {
	Today(ctx context.Context) time.Time
}

// Notifier delivers operational alerts to the bot operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Config carries the loader's file locations, horizon, and texts.
type Config struct {
	RemotePath  string
	LocalPath   string
	HorizonDays int

	WarningStale            string
	NoticeNoUpcoming        string
	NotifyCredentialExpired string
	NotifyFetchFailed       string
}

func (c *Config) applyDefaults() {
	if c.HorizonDays <= 0 {
		c.HorizonDays = database.DefaultHorizonDays
	}
	if c.WarningStale == "" {
		c.WarningStale = DefaultWarningStale
	}
	if c.NoticeNoUpcoming == "" {
		c.NoticeNoUpcoming = DefaultNoticeNoUpcoming
	}
	if c.NotifyCredentialExpired == "" {
		c.NotifyCredentialExpired = DefaultNotifyCredentialExpired
	}
	if c.NotifyFetchFailed == "" {
		c.NotifyFetchFailed = DefaultNotifyFetchFailed
	}
}

// Loader runs refresh cycles and owns the message cache. It assumes a
// single refresh at a time; the expected callers are a handful of command
// handlers plus one daily scheduler tick.
type Loader struct {
	cfg      Config
	store    database.Store
	transfer FileTransfer
	dates    DateSource
	notifier Notifier
	parser   *sheet.Parser
	cache    *Cache
	logger   *slog.Logger
}

// New creates a loader wired to its collaborators.
func New(
	cfg Config,
	store database.Store,
	transfer FileTransfer,
	dates DateSource,
	notifier Notifier,
	logger *slog.Logger,
) *Loader {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "loader")
	return &Loader{
		cfg:      cfg,
		store:    store,
		transfer: transfer,
		dates:    dates,
		notifier: notifier,
		parser:   sheet.NewParser(BirthdaySpec(), logger),
		cache:    NewCache(),
		logger:   log,
	}
}

// BirthdaySpec is the parsing contract for the shared workbook: an integer
// day column, a month column restricted to the fixed vocabulary, and a
// person-name column that doubles as the uniqueness key.
func BirthdaySpec() sheet.Spec {
	return sheet.Spec{
		Columns: []sheet.Column{
			{Name: ColumnDay, Kind: sheet.KindInt},
			{Name: ColumnMonth, Kind: sheet.KindString},
			{Name: ColumnName, Kind: sheet.KindString},
		},
		Unique: []string{ColumnName},
		Filters: []sheet.Filter{
			sheet.IntBetween(ColumnDay, 1, 31),
			sheet.OneOf(ColumnMonth, format.Months...),
		},
	}
}

// BirthdayRowMapper converts one parsed row into a Birthday dated in the
// given year. Month names are normalized to the lowercase vocabulary;
// unrecognized names resolve to January. A day that does not exist in the
// resolved month is an error, which makes the pipeline skip the row.
func BirthdayRowMapper(year int) func(sheet.Row) (database.Birthday, error) {
	return func(row sheet.Row) (database.Birthday, error) {
		day, err := row.Int(ColumnDay)
		if err != nil {
			return database.Birthday{}, err
		}
		name := strings.TrimSpace(row.String(ColumnName))
		if name == "" {
			return database.Birthday{}, errEmptyName
		}
		monthName := strings.ToLower(strings.TrimSpace(row.String(ColumnMonth)))
		month := time.Month(format.MonthIndex(monthName))

		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if date.Month() != month || date.Day() != day {
			return database.Birthday{}, &invalidDateError{day: day, month: monthName}
		}
		return database.Birthday{Name: name, Date: date}, nil
	}
}

// IsFresh reports whether the cached messages were computed within period.
func (l *Loader) IsFresh(period time.Duration) bool {
	return l.cache.IsFresh(period, time.Now())
}

// IsEmpty reports whether the cache holds no birthday messages.
func (l *Loader) IsEmpty() bool {
	return l.cache.IsEmpty()
}

// MessageList returns the cached messages in dispatch order.
func (l *Loader) MessageList() []string {
	return l.cache.List()
}

// Ensure refreshes only when the cache is empty or older than period, the
// caller convention for routine dispatches. Load remains available for
// forced refreshes.
func (l *Loader) Ensure(ctx context.Context, period time.Duration) {
	if l.IsEmpty() || !l.IsFresh(period) {
		l.logger.InfoContext(ctx, "Cache stale or empty, refreshing", "fresh_period", period)
		l.Load(ctx)
	}
}

// Load runs one full refresh cycle. Every failure mode degrades: a failed
// fetch or parse yields an empty record set (and an operator notification
// where the cause is operational), a failed store replace leaves the prior
// data in place and raises the warning message, and the message cache is
// always rewritten with a fresh timestamp so consumers see best-effort
// state. Load never fails.
func (l *Loader) Load(ctx context.Context) {
	start := time.Now()
	records := l.fetchRecords(ctx)

	inserted, err := l.store.ReplaceBirthdays(ctx, records)
	if err != nil {
		l.logger.ErrorContext(ctx, "Store refresh failed, keeping previous records", "error", err)
	}

	today := l.dates.Today(ctx)

	var m Messages
	if inserted == 0 {
		m.Warning = l.cfg.WarningStale
	}

	todays, err := l.store.BirthdaysOn(ctx, today)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to query today's birthdays", "error", err)
	}
	upcoming, err := l.store.UpcomingBirthdays(ctx, today, l.cfg.HorizonDays)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to query upcoming birthdays", "error", err)
	}

	m.Today = format.Digest(todays, true)
	m.Future = format.Digest(upcoming, false)
	if m.Today == "" && m.Future == "" {
		m.Future = l.cfg.NoticeNoUpcoming
	}

	l.cache.Record(m, time.Now())
	l.logger.InfoContext(ctx, "Refresh cycle finished",
		"records", inserted,
		"today", len(todays),
		"upcoming", len(upcoming),
		"warning", m.Warning != "",
		"duration", time.Since(start))
}

// fetchRecords downloads and parses the remote workbook. Operational
// failures (expired credential, transfer error) alert the operator and
// yield an empty set; parse failures just yield an empty set.
func (l *Loader) fetchRecords(ctx context.Context) []database.Birthday {
	if !l.transfer.CheckCredential(ctx) {
		l.logger.ErrorContext(ctx, "Drive credential rejected, skipping download")
		l.notify(ctx, l.cfg.NotifyCredentialExpired)
		return nil
	}

	if err := l.transfer.Download(ctx, l.cfg.RemotePath, l.cfg.LocalPath); err != nil {
		l.logger.ErrorContext(ctx, "Failed to download workbook", "remote", l.cfg.RemotePath, "error", err)
		l.notify(ctx, l.cfg.NotifyFetchFailed)
		return nil
	}

	table, err := l.parser.Load(l.cfg.LocalPath)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to parse workbook", "path", l.cfg.LocalPath, "error", err)
		return nil
	}

	return sheet.MapRows(table, l.logger, BirthdayRowMapper(time.Now().Year()))
}

func (l *Loader) notify(ctx context.Context, text string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Notify(ctx, text); err != nil {
		l.logger.ErrorContext(ctx, "Failed to send operator notification", "error", err)
	}
}
