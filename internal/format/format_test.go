package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bdaybot/internal/database"
)

func TestGenitive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		month    string
		expected string
	}{
		{name: "month ending in hard consonant", month: "январь", expected: "января"},
		{name: "march keeps stem and appends a", month: "март", expected: "марта"},
		{name: "april drops soft sign", month: "апрель", expected: "апреля"},
		{name: "may", month: "май", expected: "мая"},
		{name: "august", month: "август", expected: "августа"},
		{name: "december", month: "декабрь", expected: "декабря"},
		{name: "empty month falls back to january", month: "", expected: "января"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Genitive(tt.month))
		})
	}
}

func TestMonthIndex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, MonthIndex("январь"))
	assert.Equal(t, 12, MonthIndex("декабрь"))
	// Unknown names resolve to January rather than failing.
	assert.Equal(t, 1, MonthIndex("brumaire"))
}

func TestDaysInMonth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		month    string
		expected int
	}{
		{month: "январь", expected: 31},
		{month: "февраль", expected: 29},
		{month: "апрель", expected: 30},
		{month: "неизвестно", expected: 30},
	}

	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, DaysInMonth(tt.month))
		})
	}
}

func TestRecord(t *testing.T) {
	t.Parallel()

	b := database.Birthday{
		Name: "Иванов Иван",
		Date: time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "8 марта, Иванов Иван", Record(b))
}

func TestDigest(t *testing.T) {
	t.Parallel()

	birthdays := []database.Birthday{
		{Name: "Иванов Иван", Date: time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)},
		{Name: "Петров Петр", Date: time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)},
	}

	t.Run("today digest carries today header", func(t *testing.T) {
		t.Parallel()
		got := Digest(birthdays, true)
		assert.Equal(t, HeaderToday+"8 марта, Иванов Иван\n9 марта, Петров Петр", got)
	})

	t.Run("future digest carries future header", func(t *testing.T) {
		t.Parallel()
		got := Digest(birthdays, false)
		assert.Equal(t, HeaderFuture+"8 марта, Иванов Иван\n9 марта, Петров Петр", got)
	})

	t.Run("empty input yields empty string", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, Digest(nil, true))
		assert.Empty(t, Digest(nil, false))
	})
}
