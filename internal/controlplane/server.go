package controlplane

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fentz26/dosewatch/internal/models"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server provides the HTTP API for dosewatch.
type Server struct {
	service *Service
	addr    string
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service: service,
		addr:    addr,
		logger:  logger,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/medicines", func(mr chi.Router) {
		mr.Get("/", s.listMedicines)
		mr.Put("/", s.saveMedicines)
	})
	r.Route("/contacts", func(cr chi.Router) {
		cr.Get("/", s.listContacts)
		cr.Put("/", s.saveContacts)
	})

	r.Route("/reminder", func(rr chi.Router) {
		rr.Get("/", s.getReminder)
		rr.Post("/taken", s.reminderTaken)
		rr.Post("/snooze", s.reminderSnooze)
		rr.Post("/dismiss", s.reminderDismiss)
	})
	r.Get("/snoozes", s.listSnoozes)
	r.Get("/dismissed", s.listDismissed)

	r.Route("/notifications", func(nr chi.Router) {
		nr.Get("/", s.listNotifications)
		nr.Post("/read", s.markAllRead)
		nr.Post("/{notificationID}/taken", s.notificationTaken)
		nr.Post("/{notificationID}/snooze", s.notificationSnooze)
		nr.Post("/{notificationID}/read", s.markRead)
	})

	r.Route("/adherence", func(ar chi.Router) {
		ar.Get("/", s.listAdherence)
		ar.Get("/month", s.getMonth)
		ar.Get("/today", s.getToday)
	})

	r.Post("/sos", s.sendSOS)
	r.Get("/scheduler", s.getScheduler)
	r.Get("/decisions", s.listDecisions)

	return r
}

// Start starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("starting dosewatch daemon", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// --- Health ---

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{OK: true, DB: "ok", Version: Version, Time: time.Now().UTC().Format(time.RFC3339)}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.service.Ping(ctx); err != nil {
		resp.OK = false
		resp.DB = "error: " + err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// --- Schedule handlers ---

func (s *Server) listMedicines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Medicines())
}

func (s *Server) saveMedicines(w http.ResponseWriter, r *http.Request) {
	var meds []models.Medicine
	if !s.decode(w, r, &meds) {
		return
	}
	saved, err := s.service.SaveMedicines(r.Context(), meds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Contacts())
}

func (s *Server) saveContacts(w http.ResponseWriter, r *http.Request) {
	var contacts []models.Contact
	if !s.decode(w, r, &contacts) {
		return
	}
	saved, err := s.service.SaveContacts(r.Context(), contacts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// --- Reminder handlers ---

func (s *Server) getReminder(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Reminder())
}

func (s *Server) reminderTaken(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Taken(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) reminderSnooze(w http.ResponseWriter, r *http.Request) {
	sn, err := s.service.Snooze(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

func (s *Server) reminderDismiss(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Dismiss(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listSnoozes(w http.ResponseWriter, r *http.Request) {
	snoozes := s.service.Snoozes()
	if snoozes == nil {
		snoozes = []models.SnoozedReminder{}
	}
	writeJSON(w, http.StatusOK, snoozes)
}

func (s *Server) listDismissed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Dismissed())
}

// --- Notification handlers ---

type notificationActionRequest struct {
	MedicineID string `json:"medicine_id"`
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Notifications())
}

func (s *Server) notificationTaken(w http.ResponseWriter, r *http.Request) {
	var req notificationActionRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}
	rec, err := s.service.NotificationTaken(r.Context(), chi.URLParam(r, "notificationID"), req.MedicineID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) notificationSnooze(w http.ResponseWriter, r *http.Request) {
	var req notificationActionRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}
	sn, err := s.service.NotificationSnooze(r.Context(), chi.URLParam(r, "notificationID"), req.MedicineID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	if err := s.service.MarkRead(chi.URLParam(r, "notificationID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"marked": s.service.MarkAllRead()})
}

// --- Adherence handlers ---

func (s *Server) listAdherence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := s.service.Adherence(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) getMonth(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Month(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) getToday(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Today(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// --- SOS and diagnostics ---

type sosRequest struct {
	Message string `json:"message"`
}

func (s *Server) sendSOS(w http.ResponseWriter, r *http.Request) {
	var req sosRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}
	res, err := s.service.SOS(r.Context(), req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getScheduler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.SchedulerStats())
}

func (s *Server) listDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	ds, err := s.service.Decisions(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// --- helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
