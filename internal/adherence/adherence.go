// Package adherence derives calendar and follow-up views from ledger records.
// Every function is pure; callers pass the records they loaded.
package adherence

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
)

// Status is the derived status of a day or a scheduled dose.
type Status string

const (
	None    Status = "none"
	Taken   Status = "taken"
	Missed  Status = "missed"
	Pending Status = "pending"
)

// DayStatus reduces a day's records: taken if any medicine was taken, missed
// if only missed records exist, none when there are no records.
func DayStatus(records []models.AdherenceRecord, date string) Status {
	status := None
	for _, r := range records {
		if r.Date != date {
			continue
		}
		switch r.Status {
		case models.StatusTaken:
			return Taken
		case models.StatusMissed:
			status = Missed
		}
	}
	return status
}

// Counts tallies taken and missed records in a calendar month.
func Counts(records []models.AdherenceRecord, year int, month time.Month) (taken, missed int) {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	for _, r := range records {
		if !strings.HasPrefix(r.Date, prefix) {
			continue
		}
		switch r.Status {
		case models.StatusTaken:
			taken++
		case models.StatusMissed:
			missed++
		}
	}
	return taken, missed
}

// MonthlyRate is round(100 * taken / (taken + missed)) over the month's
// records, or 0 when there are none.
func MonthlyRate(records []models.AdherenceRecord, year int, month time.Month) int {
	return Rate(Counts(records, year, month))
}

// Rate converts counts into a whole percentage.
func Rate(taken, missed int) int {
	total := taken + missed
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(taken) * 100 / float64(total)))
}

// DayCell is one day of the month calendar.
type DayCell struct {
	Date   string `json:"date"`
	Day    int    `json:"day"`
	Status Status `json:"status"`
	// Past is set for days strictly before today; only those show an indicator.
	Past bool `json:"past"`
}

// MonthView is the calendar for one month together with its statistics.
type MonthView struct {
	Year         int          `json:"year"`
	Month        time.Month   `json:"month"`
	FirstWeekday time.Weekday `json:"first_weekday"`
	Days         []DayCell    `json:"days"`
	Taken        int          `json:"taken"`
	Missed       int          `json:"missed"`
	Rate         int          `json:"rate"`
}

// Month builds the calendar for year/month. today is a DateLayout string.
func Month(records []models.AdherenceRecord, year int, month time.Month, today string) MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	byDate := make(map[string][]models.AdherenceRecord)
	for _, r := range records {
		byDate[r.Date] = append(byDate[r.Date], r)
	}

	view := MonthView{
		Year:         year,
		Month:        month,
		FirstWeekday: first.Weekday(),
		Days:         make([]DayCell, 0, days),
	}
	for d := 1; d <= days; d++ {
		date := first.AddDate(0, 0, d-1).Format(models.DateLayout)
		view.Days = append(view.Days, DayCell{
			Date:   date,
			Day:    d,
			Status: DayStatus(byDate[date], date),
			Past:   date < today,
		})
	}
	view.Taken, view.Missed = Counts(records, year, month)
	view.Rate = Rate(view.Taken, view.Missed)
	return view
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}

// MonthBounds returns the first and last date of a month as DateLayout strings.
func MonthBounds(year int, month time.Month) (string, string) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.Format(models.DateLayout), first.AddDate(0, 1, -1).Format(models.DateLayout)
}

// FollowUpItem is one scheduled dose today.
type FollowUpItem struct {
	ID         string `json:"id"`
	MedicineID string `json:"medicine_id"`
	Name       string `json:"name"`
	Dosage     string `json:"dosage"`
	Time       string `json:"time"`
	Status     Status `json:"status"`
	TimePassed bool   `json:"time_passed"`
}

// FollowUpView summarises today's doses.
type FollowUpView struct {
	Date    string         `json:"date"`
	Items   []FollowUpItem `json:"items"`
	Taken   int            `json:"taken"`
	Missed  int            `json:"missed"`
	Pending int            `json:"pending"`
}

// FollowUp lists every (medicine, time) pair for now's date. A ledger record
// for the medicine decides the status; without one, a time at or before now
// counts as missed and a later one as pending.
func FollowUp(meds []models.Medicine, records []models.AdherenceRecord, now time.Time) FollowUpView {
	today := now.Format(models.DateLayout)
	clock := now.Format(models.TimeLayout)

	recorded := make(map[string]models.AdherenceStatus)
	for _, r := range records {
		if r.Date == today {
			recorded[r.MedicineID] = r.Status
		}
	}

	view := FollowUpView{Date: today, Items: []FollowUpItem{}}
	for _, m := range meds {
		for _, t := range m.Times {
			item := FollowUpItem{
				ID:         m.ID + "-" + t,
				MedicineID: m.ID,
				Name:       m.Name,
				Dosage:     m.Dosage,
				Time:       t,
				TimePassed: t <= clock,
			}
			switch st, ok := recorded[m.ID]; {
			case ok && st == models.StatusTaken:
				item.Status = Taken
			case ok && st == models.StatusMissed:
				item.Status = Missed
			case item.TimePassed:
				item.Status = Missed
			default:
				item.Status = Pending
			}

			switch item.Status {
			case Taken:
				view.Taken++
			case Missed:
				view.Missed++
			default:
				view.Pending++
			}
			view.Items = append(view.Items, item)
		}
	}
	return view
}
