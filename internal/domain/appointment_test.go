package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSlotDate(t *testing.T) {
	cases := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), "15_6_2025"},
		{time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), "5_6_2025"},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), "31_12_2025"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "1_1_2026"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, FormatSlotDate(tc.date))
	}
}

func TestParseSlotDate(t *testing.T) {
	parsed, err := ParseSlotDate("15_6_2025")
	require.NoError(t, err)
	assert.Equal(t, 15, parsed.Day())
	assert.Equal(t, time.June, parsed.Month())
	assert.Equal(t, 2025, parsed.Year())

	// разбор и форматирование взаимно обратны
	assert.Equal(t, "15_6_2025", FormatSlotDate(parsed))
}

func TestParseSlotDateRejectsNonCanonical(t *testing.T) {
	cases := []string{
		"",
		"05_6_2025",   // ведущий ноль в дне
		"15_06_2025",  // ведущий ноль в месяце
		"31_2_2025",   // несуществующая дата
		"29_2_2025",   // не високосный год
		"2025_6_15",   // перепутан порядок
		"15-6-2025",   // не тот разделитель
		"15_6",        // не хватает года
		"abc",
	}

	for _, s := range cases {
		_, err := ParseSlotDate(s)
		assert.ErrorIs(t, err, ErrInvalidSlotFormat, "дата %q", s)
	}
}

func TestParseSlotDateLeapYear(t *testing.T) {
	_, err := ParseSlotDate("29_2_2024")
	assert.NoError(t, err)
}

func TestValidateSlotTime(t *testing.T) {
	valid := []string{"00:00", "09:30", "14:00", "23:59"}
	for _, s := range valid {
		assert.True(t, ValidateSlotTime(s), "время %q", s)
	}

	invalid := []string{"", "24:00", "14:60", "9:30", "14", "14:0", "14:00:00", "1400"}
	for _, s := range invalid {
		assert.False(t, ValidateSlotTime(s), "время %q", s)
	}
}

func TestAppointmentStatus(t *testing.T) {
	mode := AppointmentModeVideo

	cases := []struct {
		name        string
		appointment Appointment
		expected    AppointmentStatus
	}{
		{"новая запись", Appointment{}, AppointmentStatusBooked},
		{"оплачена", Appointment{Payment: true}, AppointmentStatusPaid},
		{"выбран формат", Appointment{Payment: true, AppointmentMode: &mode}, AppointmentStatusModeSelected},
		{"завершена", Appointment{Payment: true, IsCompleted: true}, AppointmentStatusCompleted},
		{"отменена", Appointment{Cancelled: true}, AppointmentStatusCancelled},
		{"отмена после оплаты", Appointment{Payment: true, Cancelled: true}, AppointmentStatusCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.appointment.Status())
		})
	}
}
