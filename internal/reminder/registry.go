package reminder

import (
	"sort"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
)

// SnoozeRegistry holds reminders deferred by the user. It is not safe for
// concurrent use; the Session guards it.
type SnoozeRegistry struct {
	entries []models.SnoozedReminder
}

// NewSnoozeRegistry creates an empty registry.
func NewSnoozeRegistry() *SnoozeRegistry {
	return &SnoozeRegistry{}
}

// Add inserts a snooze. An existing entry with the same id is replaced.
func (r *SnoozeRegistry) Add(s models.SnoozedReminder) {
	s.Label = s.ID.String()
	for i := range r.entries {
		if r.entries[i].ID == s.ID {
			r.entries[i] = s
			return
		}
	}
	r.entries = append(r.entries, s)
}

// Remove deletes the entry with the given id.
func (r *SnoozeRegistry) Remove(id models.ReminderID) bool {
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveMedicine deletes every entry for the medicine and returns how many
// were removed.
func (r *SnoozeRegistry) RemoveMedicine(medicineID string) int {
	return r.removeWhere(func(s models.SnoozedReminder) bool { return s.MedicineID == medicineID })
}

func (r *SnoozeRegistry) removeWhere(drop func(models.SnoozedReminder) bool) int {
	kept := r.entries[:0]
	removed := 0
	for _, s := range r.entries {
		if drop(s) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	r.entries = kept
	return removed
}

// Expired returns entries whose deadline is at or before now, earliest
// deadline first; ties keep insertion order.
func (r *SnoozeRegistry) Expired(now time.Time) []models.SnoozedReminder {
	var out []models.SnoozedReminder
	for _, s := range r.entries {
		if !s.Until.After(now) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Until.Before(out[j].Until) })
	return out
}

// List returns a copy of all entries in insertion order.
func (r *SnoozeRegistry) List() []models.SnoozedReminder {
	return append([]models.SnoozedReminder(nil), r.entries...)
}

// Len returns the number of snoozed reminders.
func (r *SnoozeRegistry) Len() int {
	return len(r.entries)
}

// DismissRegistry holds reminders the user declined today.
type DismissRegistry struct {
	ids map[models.ReminderID]struct{}
}

// NewDismissRegistry creates an empty registry.
func NewDismissRegistry() *DismissRegistry {
	return &DismissRegistry{ids: make(map[models.ReminderID]struct{})}
}

// Add marks the reminder as dismissed.
func (r *DismissRegistry) Add(id models.ReminderID) {
	r.ids[id] = struct{}{}
}

// Contains reports whether the reminder was dismissed.
func (r *DismissRegistry) Contains(id models.ReminderID) bool {
	_, ok := r.ids[id]
	return ok
}

// Clear forgets every dismissal.
func (r *DismissRegistry) Clear() {
	r.ids = make(map[models.ReminderID]struct{})
}

// List returns the dismissed ids sorted by display form.
func (r *DismissRegistry) List() []models.ReminderID {
	out := make([]models.ReminderID, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Len returns the number of dismissed reminders.
func (r *DismissRegistry) Len() int {
	return len(r.ids)
}
