package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bdaybot/internal/database"
	"bdaybot/internal/format"
	"bdaybot/internal/sheet"

	_ "modernc.org/sqlite"
)

// fakeTransfer serves a prebuilt workbook file as the remote download.
type fakeTransfer struct {
	credentialOK bool
	source       string
	downloadErr  error
	downloads    int
}

func (f *fakeTransfer) CheckCredential(context.Context) bool { return f.credentialOK }

func (f *fakeTransfer) Download(_ context.Context, _, localPath string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	f.downloads++
	data, err := os.ReadFile(f.source)
	if err != nil {
		return err
	}
	return os.WriteFile(localPath, data, 0o644)
}

type fakeDates struct {
	today time.Time
}

func (f fakeDates) Today(context.Context) time.Time { return f.today }

type fakeNotifier struct {
	notes []string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.notes = append(f.notes, text)
	return nil
}

func newTestStore(t *testing.T) database.Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	return database.NewStore(db, nil)
}

// writeWorkbook builds an xlsx fixture with the canonical column layout.
func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	name := f.GetSheetName(0)
	header := []any{ColumnDay, ColumnMonth, "не используется", ColumnName}
	require.NoError(t, f.SetSheetRow(name, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(name, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "remote.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func newTestLoader(t *testing.T, transfer *fakeTransfer, dates fakeDates, notifier *fakeNotifier) *Loader {
	t.Helper()
	return New(Config{
		RemotePath: "remote.xlsx",
		LocalPath:  filepath.Join(t.TempDir(), "local.xlsx"),
	}, newTestStore(t), transfer, dates, notifier, nil)
}

func TestLoadHappyPath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	today := time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)
	source := writeWorkbook(t, [][]any{
		{8, "март", "", "Сегодняшний Семен"},
		{9, "март", "", "Завтрашний Захар"},
		{15, "июнь", "", "Июньский Иван"},
	})

	transfer := &fakeTransfer{credentialOK: true, source: source}
	notifier := &fakeNotifier{}
	ldr := newTestLoader(t, transfer, fakeDates{today: today}, notifier)

	ldr.Load(ctx)

	require.False(t, ldr.IsEmpty())
	messages := ldr.MessageList()
	require.Len(t, messages, 2)
	assert.Equal(t, format.HeaderToday+"8 марта, Сегодняшний Семен", messages[0])
	assert.Equal(t, format.HeaderFuture+"9 марта, Завтрашний Захар", messages[1])
	assert.Empty(t, notifier.notes)
}

func TestLoadNoUpcoming(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	today := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	source := writeWorkbook(t, [][]any{
		{8, "март", "", "Мартовский Марк"},
	})

	transfer := &fakeTransfer{credentialOK: true, source: source}
	ldr := newTestLoader(t, transfer, fakeDates{today: today}, &fakeNotifier{})

	ldr.Load(ctx)

	messages := ldr.MessageList()
	require.Len(t, messages, 1)
	assert.Equal(t, DefaultNoticeNoUpcoming, messages[0])
	// The notice occupies the future slot, so the cache counts as populated.
	assert.False(t, ldr.IsEmpty())
}

func TestLoadExpiredCredential(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	transfer := &fakeTransfer{credentialOK: false}
	notifier := &fakeNotifier{}
	ldr := newTestLoader(t, transfer, fakeDates{today: time.Now()}, notifier)

	ldr.Load(ctx)

	// No download happens, the operator is alerted exactly once, and the
	// digest degrades to warning plus no-upcoming notice.
	assert.Zero(t, transfer.downloads)
	require.Len(t, notifier.notes, 1)
	assert.Equal(t, DefaultNotifyCredentialExpired, notifier.notes[0])

	messages := ldr.MessageList()
	require.Len(t, messages, 2)
	assert.Equal(t, DefaultWarningStale, messages[0])
	assert.Equal(t, DefaultNoticeNoUpcoming, messages[1])
}

func TestLoadDownloadFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	transfer := &fakeTransfer{credentialOK: true, downloadErr: fmt.Errorf("network down")}
	notifier := &fakeNotifier{}
	ldr := newTestLoader(t, transfer, fakeDates{today: time.Now()}, notifier)

	ldr.Load(ctx)

	require.Len(t, notifier.notes, 1)
	assert.Equal(t, DefaultNotifyFetchFailed, notifier.notes[0])

	messages := ldr.MessageList()
	require.Len(t, messages, 2)
	assert.Equal(t, DefaultWarningStale, messages[0])
	assert.Equal(t, DefaultNoticeNoUpcoming, messages[1])
	assert.False(t, ldr.IsEmpty())
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	today := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	source := writeWorkbook(t, [][]any{
		{30, "февраль", "", "Невозможный Нил"}, // day does not exist
		{1, "март", "", "Мартовская Мария"},
	})

	transfer := &fakeTransfer{credentialOK: true, source: source}
	ldr := newTestLoader(t, transfer, fakeDates{today: today}, &fakeNotifier{})

	ldr.Load(ctx)

	messages := ldr.MessageList()
	require.Len(t, messages, 1)
	assert.True(t, strings.HasPrefix(messages[0], format.HeaderFuture))
	assert.Contains(t, messages[0], "Мартовская Мария")
	assert.NotContains(t, messages[0], "Невозможный Нил")
}

func TestEnsureRefreshesOnlyWhenStale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	today := time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)
	source := writeWorkbook(t, [][]any{
		{8, "март", "", "Сегодняшний Семен"},
	})

	transfer := &fakeTransfer{credentialOK: true, source: source}
	ldr := newTestLoader(t, transfer, fakeDates{today: today}, &fakeNotifier{})

	ldr.Ensure(ctx, time.Hour)
	assert.Equal(t, 1, transfer.downloads)

	// The cache is fresh and non-empty now; Ensure must not reload.
	ldr.Ensure(ctx, time.Hour)
	assert.Equal(t, 1, transfer.downloads)
}

func TestBirthdayRowMapper(t *testing.T) {
	t.Parallel()

	spec := BirthdaySpec()
	assert.Len(t, spec.Columns, 3)
	assert.Equal(t, []string{ColumnName}, spec.Unique)

	// Normalization check: Feb 30 overflows into March and is rejected.
	mapRow := BirthdayRowMapper(2028)
	_, err := mapRow(rowFromCells(t, spec, []string{"30", "февраль", "Невозможный Нил"}))
	require.Error(t, err)

	// 2028 is a leap year, so Feb 29 is a real date there.
	record, err := mapRow(rowFromCells(t, spec, []string{"29", "февраль", "Високосный Влад"}))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC), record.Date)
}

// rowFromCells fabricates a one-row table to exercise the row mapper
// directly.
func rowFromCells(t *testing.T, spec sheet.Spec, cells []string) sheet.Row {
	t.Helper()

	f := excelize.NewFile()
	name := f.GetSheetName(0)
	header := make([]any, len(spec.Columns))
	for i, col := range spec.Columns {
		header[i] = col.Name
	}
	require.NoError(t, f.SetSheetRow(name, "A1", &header))
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	require.NoError(t, f.SetSheetRow(name, "A2", &row))

	path := filepath.Join(t.TempDir(), "row.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := sheet.NewParser(sheet.Spec{Columns: spec.Columns}, nil).Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	return table.Row(0)
}
