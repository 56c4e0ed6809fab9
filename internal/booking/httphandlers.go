package booking

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/configs"
	"clinic-scheduling/internal/database"
	"clinic-scheduling/internal/logging"
	"clinic-scheduling/internal/schedule"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type httpHandler struct {
	service Service
	logger  *log.Logger
}

// Setup setups the routes handled by the booking context.
func Setup(router *chi.Mux, logger *log.Logger, config configs.Config, dbConn database.Connection) {
	handler := &httpHandler{logger: logger, service: NewService(config, dbConn, logger)}
	router.Get("/api/v1/appointments", handler.ListAppointments)
	router.Post("/api/v1/appointments", handler.Book)
	router.Patch("/api/v1/appointments/{appointmentUUID}", handler.Reschedule)
	router.Post("/api/v1/appointments/action", handler.ApplyAction)
}

// writeError logs the given error and answers the request with its mapped status code.
func (h httpHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
	statusCode := apierrors.StatusCodeFor(err)
	w.WriteHeader(statusCode)
	if statusCode != http.StatusInternalServerError {
		_ = json.NewEncoder(w).Encode(err)
	}
}

// parseUUIDParameter parses a UUID parameter into a valid UUID.
func (h httpHandler) parseUUIDParameter(parName string, r *http.Request) (uuid.UUID, error) {
	zeroUUID := uuid.UUID{}
	uuidPar := chi.URLParam(r, parName)
	if uuidPar == "" {
		return zeroUUID, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidIdentifier), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	parsedUUID, err := uuid.Parse(uuidPar)
	if err != nil {
		return zeroUUID, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidIdentifier), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	return parsedUUID, nil
}

func (h httpHandler) Book(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	request := new(BookingRequest)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	appointment, err := h.service.Book(ctx, *request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appointmentUUID, err := h.parseUUIDParameter("appointmentUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	request := new(RescheduleRequest)
	if err = json.NewDecoder(r.Body).Decode(request); err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	appointment, err := h.service.Reschedule(ctx, appointmentUUID, *request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	request := new(ActionRequest)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	appointment, err := h.service.Transition(ctx, *request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorUUID, err := uuid.Parse(r.URL.Query().Get("doctorId"))
	if err != nil {
		h.writeError(w, r, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidIdentifier), apierrors.WithHTTPStatusCode(http.StatusBadRequest)))
		return
	}
	date, err := time.Parse(schedule.DateLayout, r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, r, apierrors.NewValidationError("date", "malformed date"))
		return
	}
	appointments, err := h.service.ListForDay(ctx, doctorUUID, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointments)
}
