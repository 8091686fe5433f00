package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })

	return NewStore(db, nil)
}

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, store Store, records []Birthday) {
	t.Helper()
	inserted, err := store.ReplaceBirthdays(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, int64(len(records)), inserted)
}

func names(birthdays []Birthday) []string {
	out := make([]string, 0, len(birthdays))
	for _, b := range birthdays {
		out = append(out, b.Name)
	}
	return out
}

func TestStoredDatesAreReadableBySQLiteDateFunctions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })
	store := NewStore(db, nil)

	seed(t, store, []Birthday{{Name: "Иванов Иван", Date: day(time.March, 8)}})

	// The month/day window predicates build on strftime over the stored
	// column; a text form sqlite cannot parse would turn every window
	// query into an empty result.
	var key string
	require.NoError(t, db.GetContext(ctx, &key, `SELECT strftime('%m-%d', date) FROM birthdays`))
	assert.Equal(t, "03-08", key)

	found, err := store.BirthdaysOn(ctx, day(time.March, 8))
	require.NoError(t, err)
	assert.Equal(t, []string{"Иванов Иван"}, names(found))
}

func TestReplaceBirthdays(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("empty input is a no-op", func(t *testing.T) {
		inserted, err := store.ReplaceBirthdays(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, inserted)
	})

	t.Run("insert reports count", func(t *testing.T) {
		seed(t, store, []Birthday{
			{Name: "Иванов Иван", Date: day(time.March, 8)},
			{Name: "Петров Петр", Date: day(time.May, 1)},
		})

		count, err := store.CountBirthdays(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("replace swaps the whole table", func(t *testing.T) {
		seed(t, store, []Birthday{
			{Name: "Сидоров Сидор", Date: day(time.June, 10)},
		})

		all, err := store.AllBirthdays(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Сидоров Сидор"}, names(all))
	})
}

func TestGetBirthday(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	seed(t, store, []Birthday{
		{Name: "Иванов Иван", Date: day(time.March, 8)},
	})

	byName := store.GetBirthdayByName(ctx, "Иванов Иван")
	require.NotNil(t, byName)
	assert.Equal(t, "Иванов Иван", byName.Name)

	byID := store.GetBirthday(ctx, byName.ID)
	require.NotNil(t, byID)
	assert.Equal(t, byName.Name, byID.Name)

	// Absent records come back nil, not as an error.
	assert.Nil(t, store.GetBirthdayByName(ctx, "Никто Никтов"))
	assert.Nil(t, store.GetBirthday(ctx, 99999))
}

func TestBirthdaysBetween(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	seed(t, store, []Birthday{
		{Name: "Декабрьский Денис", Date: day(time.December, 31)},
		{Name: "Январская Яна", Date: day(time.January, 1)},
		{Name: "Мартовский Марк", Date: day(time.March, 8)},
		{Name: "Мартовская Мария", Date: day(time.March, 8)},
		{Name: "Июньский Иван", Date: day(time.June, 15)},
	})

	t.Run("single-day window matches by month and day", func(t *testing.T) {
		got, err := store.BirthdaysOn(ctx, time.Date(2031, time.March, 8, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		// Same-day ties order by name.
		assert.Equal(t, []string{"Мартовская Мария", "Мартовский Марк"}, names(got))
	})

	t.Run("plain window is inclusive on both ends", func(t *testing.T) {
		got, err := store.BirthdaysBetween(ctx, day(time.March, 8), day(time.June, 15))
		require.NoError(t, err)
		assert.Equal(t, []string{"Мартовская Мария", "Мартовский Марк", "Июньский Иван"}, names(got))
	})

	t.Run("wrapping window orders december before january", func(t *testing.T) {
		got, err := store.BirthdaysBetween(ctx, day(time.December, 30), day(time.January, 2))
		require.NoError(t, err)
		assert.Equal(t, []string{"Декабрьский Денис", "Январская Яна"}, names(got))
	})

	t.Run("empty window yields no records", func(t *testing.T) {
		got, err := store.BirthdaysBetween(ctx, day(time.September, 1), day(time.September, 30))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestUpcomingBirthdays(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	seed(t, store, []Birthday{
		{Name: "Сегодня Семен", Date: day(time.March, 8)},
		{Name: "Завтра Захар", Date: day(time.March, 9)},
		{Name: "Послезавтра Павел", Date: day(time.March, 10)},
		{Name: "Нескоро Никита", Date: day(time.March, 20)},
	})

	got, err := store.UpcomingBirthdays(ctx, day(time.March, 8), 3)
	require.NoError(t, err)
	// Today is excluded; the window runs tomorrow..ref+3.
	assert.Equal(t, []string{"Завтра Захар", "Послезавтра Павел"}, names(got))
}

func TestBirthdaysAfter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	seed(t, store, []Birthday{
		{Name: "Январская Яна", Date: day(time.January, 1)},
		{Name: "Июньский Иван", Date: day(time.June, 15)},
	})

	got, err := store.BirthdaysAfter(ctx, day(time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Июньский Иван"}, names(got))
}

func TestSubscriptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.AddSubscription(ctx, 100))
	require.NoError(t, store.AddSubscription(ctx, 42))
	// Re-adding is idempotent.
	require.NoError(t, store.AddSubscription(ctx, 100))

	subs, err := store.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(42), subs[0].ChatID)
	assert.Equal(t, int64(100), subs[1].ChatID)

	require.NoError(t, store.RemoveSubscription(ctx, 42))
	subs, err = store.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(100), subs[0].ChatID)
}

func TestParseDateBound(t *testing.T) {
	t.Parallel()

	iso := ParseDateBound("2026-03-07", false)
	assert.Equal(t, time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC), iso)

	year := time.Now().Year()
	assert.Equal(t, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), ParseDateBound("garbage", false))
	assert.Equal(t, time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), ParseDateBound("garbage", true))
}
