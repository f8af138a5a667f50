package reminder

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
	"github.com/google/uuid"
)

// NormalizeDoseTime parses an "HH:MM" string and returns its canonical
// zero-padded form.
func NormalizeDoseTime(s string) (string, error) {
	t, err := time.Parse(models.TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return t.Format(models.TimeLayout), nil
}

// NormalizeMedicines validates a full replacement schedule. Times are
// canonicalised, de-duplicated and sorted; list order is preserved because
// it decides which of two simultaneous doses is presented first.
func NormalizeMedicines(in []models.Medicine) ([]models.Medicine, error) {
	out := make([]models.Medicine, 0, len(in))
	seen := make(map[string]bool, len(in))

	for i, m := range in {
		m.ID = strings.TrimSpace(m.ID)
		m.Name = strings.TrimSpace(m.Name)
		if m.ID == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrInvalidMedicine, i)
		}
		if m.Name == "" {
			return nil, fmt.Errorf("%w: %s has no name", ErrInvalidMedicine, m.ID)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMedicine, m.ID)
		}
		seen[m.ID] = true

		times := make([]string, 0, len(m.Times))
		dup := make(map[string]bool, len(m.Times))
		for _, raw := range m.Times {
			t, err := NormalizeDoseTime(raw)
			if err != nil {
				return nil, fmt.Errorf("medicine %s: %w", m.ID, err)
			}
			if dup[t] {
				continue
			}
			dup[t] = true
			times = append(times, t)
		}
		sort.Strings(times)
		m.Times = times
		out = append(out, m)
	}
	return out, nil
}

// NormalizeContacts validates a full replacement contact list. Contacts
// without an id get a fresh one.
func NormalizeContacts(in []models.Contact) ([]models.Contact, error) {
	out := make([]models.Contact, 0, len(in))
	for i, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		c.Phone = strings.TrimSpace(c.Phone)
		if c.Name == "" || c.Phone == "" {
			return nil, fmt.Errorf("%w: entry %d needs a name and a phone", ErrInvalidContact, i)
		}
		if strings.TrimSpace(c.ID) == "" {
			c.ID = uuid.New().String()
		}
		out = append(out, c)
	}
	return out, nil
}

func findMedicine(meds []models.Medicine, id string) (models.Medicine, bool) {
	for _, m := range meds {
		if m.ID == id {
			return m, true
		}
	}
	return models.Medicine{}, false
}

func hasTime(m models.Medicine, t string) bool {
	for _, x := range m.Times {
		if x == t {
			return true
		}
	}
	return false
}

func copyMedicines(in []models.Medicine) []models.Medicine {
	out := make([]models.Medicine, len(in))
	for i, m := range in {
		m.Times = append([]string(nil), m.Times...)
		out[i] = m
	}
	return out
}
