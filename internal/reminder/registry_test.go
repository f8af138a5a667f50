package reminder

import (
	"testing"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnoozeRegistry(t *testing.T) {
	r := NewSnoozeRegistry()
	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	a := models.DoseReminderID("2025-01-10", "1", "08:00")
	b := models.NotificationReminderID("n1")
	c := models.DoseReminderID("2025-01-10", "2", "08:00")

	r.Add(models.SnoozedReminder{ID: a, MedicineID: "1", Until: base.Add(10 * time.Minute)})
	r.Add(models.SnoozedReminder{ID: b, MedicineID: "1", Until: base.Add(5 * time.Minute)})
	r.Add(models.SnoozedReminder{ID: c, MedicineID: "2", Until: base.Add(20 * time.Minute)})
	require.Equal(t, 3, r.Len())
	assert.Equal(t, "notification-n1", r.List()[1].Label)

	expired := r.Expired(base.Add(10 * time.Minute))
	require.Len(t, expired, 2)
	assert.Equal(t, b, expired[0].ID)
	assert.Equal(t, a, expired[1].ID)

	// Re-adding replaces rather than duplicating.
	r.Add(models.SnoozedReminder{ID: a, MedicineID: "1", Until: base.Add(30 * time.Minute)})
	assert.Equal(t, 3, r.Len())

	assert.Equal(t, 2, r.RemoveMedicine("1"))
	assert.False(t, r.Remove(a))
	assert.True(t, r.Remove(c))
	assert.Zero(t, r.Len())
}

func TestDismissRegistry(t *testing.T) {
	r := NewDismissRegistry()
	a := models.DoseReminderID("2025-01-10", "2", "18:00")
	b := models.DoseReminderID("2025-01-10", "1", "08:00")

	r.Add(a)
	r.Add(b)
	r.Add(a)
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Contains(a))
	assert.False(t, r.Contains(models.DoseReminderID("2025-01-11", "2", "18:00")))
	assert.Equal(t, []models.ReminderID{b, a}, r.List())

	r.Clear()
	assert.Zero(t, r.Len())
	assert.False(t, r.Contains(a))
}

func TestNormalizeMedicines(t *testing.T) {
	meds, err := NormalizeMedicines([]models.Medicine{
		{ID: " 2 ", Name: "Blood Pressure Med", Times: []string{"18:00", "8:05", "18:00"}},
		{ID: "1", Name: "Aspirin", Times: nil},
	})
	require.NoError(t, err)
	require.Len(t, meds, 2)
	assert.Equal(t, "2", meds[0].ID)
	assert.Equal(t, []string{"08:05", "18:00"}, meds[0].Times)
	assert.Equal(t, "1", meds[1].ID)
}

func TestNormalizeDoseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"08:00", "08:00", false},
		{" 9:30", "09:30", false},
		{"23:59", "23:59", false},
		{"24:00", "", true},
		{"8am", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeDoseTime(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidTime, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestReminderIDString(t *testing.T) {
	assert.Equal(t, "2025-01-10-1-08:00", models.DoseReminderID("2025-01-10", "1", "08:00").String())
	assert.Equal(t, "notification-abc", models.NotificationReminderID("abc").String())
	assert.True(t, models.ReminderID{}.IsZero())
}
