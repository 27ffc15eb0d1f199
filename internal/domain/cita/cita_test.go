package cita

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotTimes(t *testing.T) {
	slots := SlotTimes()

	// 08:00..21:45 at :00/:45 plus 22:00; 22:45 falls outside opening hours.
	require.Len(t, slots, 29)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "08:45", slots[1])
	assert.Equal(t, "22:00", slots[len(slots)-1])
	assert.NotContains(t, slots, "22:45")
}

func TestValidSlot(t *testing.T) {
	assert.True(t, ValidSlot("08:00"))
	assert.True(t, ValidSlot("14:45"))
	assert.True(t, ValidSlot("22:00"))

	assert.False(t, ValidSlot("22:45"))
	assert.False(t, ValidSlot("07:45"))
	assert.False(t, ValidSlot("09:30"))
	assert.False(t, ValidSlot("9:00"))
}

func TestValidateFecha(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)

	assert.NoError(t, ValidateFecha("2026-03-01", now), "booking for today is allowed")
	assert.NoError(t, ValidateFecha("2026-03-02", now))

	assert.ErrorIs(t, ValidateFecha("2026-02-28", now), ErrFechaPasada)
	assert.ErrorIs(t, ValidateFecha("01-03-2026", now), ErrFechaInvalida)
	assert.ErrorIs(t, ValidateFecha("2026-3-1", now), ErrFechaInvalida)
	assert.ErrorIs(t, ValidateFecha("", now), ErrFechaInvalida)
}

func TestValidateHora(t *testing.T) {
	assert.NoError(t, ValidateHora("08:45"))

	assert.ErrorIs(t, ValidateHora("25:00"), ErrHoraInvalida)
	assert.ErrorIs(t, ValidateHora("oncepm"), ErrHoraInvalida)
	assert.ErrorIs(t, ValidateHora("09:30"), ErrHoraInvalida)
}

func TestSlotKey(t *testing.T) {
	c := &Cita{Fecha: "2026-03-02", Hora: "10:45"}
	assert.Equal(t, "2026-03-02 10:45", c.Slot())
}
