package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fentz26/dosewatch/internal/adherence"
	"github.com/fentz26/dosewatch/internal/models"
	"github.com/fentz26/dosewatch/internal/reminder"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the dosewatch API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// NotificationFeed mirrors the daemon's notification list response.
type NotificationFeed struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// CheckHealth checks if the daemon is healthy.
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, err
	}
	return health.OK, nil
}

// Reminder fetches the presented reminder.
func (c *Client) Reminder() (models.ReminderState, error) {
	var st models.ReminderState
	err := c.get("/reminder", &st)
	return st, err
}

// Taken acknowledges the presented reminder.
func (c *Client) Taken() (models.AdherenceRecord, error) {
	var rec models.AdherenceRecord
	err := c.send(http.MethodPost, "/reminder/taken", nil, &rec)
	return rec, err
}

// RemindLater snoozes the presented reminder.
func (c *Client) RemindLater() (models.SnoozedReminder, error) {
	var sn models.SnoozedReminder
	err := c.send(http.MethodPost, "/reminder/snooze", nil, &sn)
	return sn, err
}

// Dismiss declines the presented reminder.
func (c *Client) Dismiss() (models.AdherenceRecord, error) {
	var rec models.AdherenceRecord
	err := c.send(http.MethodPost, "/reminder/dismiss", nil, &rec)
	return rec, err
}

// Snoozes lists snoozed reminders.
func (c *Client) Snoozes() ([]models.SnoozedReminder, error) {
	var out []models.SnoozedReminder
	err := c.get("/snoozes", &out)
	return out, err
}

// Notifications fetches the notification feed.
func (c *Client) Notifications() (NotificationFeed, error) {
	var feed NotificationFeed
	err := c.get("/notifications", &feed)
	return feed, err
}

// NotificationTaken marks a notification's medicine taken.
func (c *Client) NotificationTaken(id, medicineID string) (models.AdherenceRecord, error) {
	var rec models.AdherenceRecord
	err := c.send(http.MethodPost, "/notifications/"+url.PathEscape(id)+"/taken",
		map[string]string{"medicine_id": medicineID}, &rec)
	return rec, err
}

// NotificationSnooze defers a notification's medicine.
func (c *Client) NotificationSnooze(id, medicineID string) (models.SnoozedReminder, error) {
	var sn models.SnoozedReminder
	err := c.send(http.MethodPost, "/notifications/"+url.PathEscape(id)+"/snooze",
		map[string]string{"medicine_id": medicineID}, &sn)
	return sn, err
}

// MarkRead marks one notification read.
func (c *Client) MarkRead(id string) error {
	return c.send(http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllRead marks every notification read and returns how many changed.
func (c *Client) MarkAllRead() (int, error) {
	var res struct {
		Marked int `json:"marked"`
	}
	err := c.send(http.MethodPost, "/notifications/read", nil, &res)
	return res.Marked, err
}

// Today fetches today's follow-up.
func (c *Client) Today() (adherence.FollowUpView, error) {
	var view adherence.FollowUpView
	err := c.get("/adherence/today", &view)
	return view, err
}

// Month fetches the calendar for "YYYY-MM"; empty means the current month.
func (c *Client) Month(month string) (adherence.MonthView, error) {
	var view adherence.MonthView
	path := "/adherence/month"
	if month != "" {
		path += "?month=" + url.QueryEscape(month)
	}
	err := c.get(path, &view)
	return view, err
}

// Adherence fetches raw ledger records; empty bounds are open.
func (c *Client) Adherence(from, to string) ([]models.AdherenceRecord, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	path := "/adherence"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []models.AdherenceRecord
	err := c.get(path, &out)
	return out, err
}

// Medicines fetches the schedule.
func (c *Client) Medicines() ([]models.Medicine, error) {
	var out []models.Medicine
	err := c.get("/medicines", &out)
	return out, err
}

// SaveMedicines replaces the schedule.
func (c *Client) SaveMedicines(meds []models.Medicine) ([]models.Medicine, error) {
	var out []models.Medicine
	err := c.send(http.MethodPut, "/medicines", meds, &out)
	return out, err
}

// Contacts fetches the emergency contacts.
func (c *Client) Contacts() ([]models.Contact, error) {
	var out []models.Contact
	err := c.get("/contacts", &out)
	return out, err
}

// SaveContacts replaces the emergency contacts.
func (c *Client) SaveContacts(contacts []models.Contact) ([]models.Contact, error) {
	var out []models.Contact
	err := c.send(http.MethodPut, "/contacts", contacts, &out)
	return out, err
}

// SOS alerts the emergency contacts.
func (c *Client) SOS(message string) (*reminder.SOSResult, error) {
	var res reminder.SOSResult
	if err := c.send(http.MethodPost, "/sos", map[string]string{"message": message}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) send(method, path string, data, out interface{}) error {
	var body io.Reader = http.NoBody
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Message: string(bytes.TrimSpace(body))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// APIError is a non-2xx daemon response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}
