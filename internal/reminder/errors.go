package reminder

import "errors"

// Sentinel errors for reminder session operations.
var (
	ErrNoActiveReminder     = errors.New("no active reminder")
	ErrMedicineNotFound     = errors.New("medicine not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidMedicine      = errors.New("invalid medicine")
	ErrDuplicateMedicine    = errors.New("duplicate medicine id")
	ErrInvalidTime          = errors.New("invalid dose time")
	ErrInvalidContact       = errors.New("invalid contact")
	ErrNoContacts           = errors.New("no emergency contacts")
)
