package controlplane

import (
	"errors"
	"net/http"

	"github.com/fentz26/dosewatch/internal/reminder"
	"github.com/fentz26/dosewatch/internal/store"
)

// ErrInvalidRequest marks malformed request parameters.
var ErrInvalidRequest = errors.New("invalid request")

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, reminder.ErrNoActiveReminder),
		errors.Is(err, reminder.ErrNoContacts):
		return http.StatusConflict
	case errors.Is(err, reminder.ErrMedicineNotFound),
		errors.Is(err, reminder.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, reminder.ErrInvalidMedicine),
		errors.Is(err, reminder.ErrDuplicateMedicine),
		errors.Is(err, reminder.ErrInvalidTime),
		errors.Is(err, reminder.ErrInvalidContact),
		errors.Is(err, store.ErrInvalidStatus):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
