package availability

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
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

// Setup setups the routes handled by the availability context.
func Setup(router *chi.Mux, logger *log.Logger, config configs.Config, dbConn database.Connection) {
	handler := &httpHandler{logger: logger, service: NewService(config, dbConn)}
	router.Get("/api/v1/scheduling/availability/slots", handler.GetSlots)
	router.Get("/api/v1/scheduling/suggestions", handler.GetSuggestions)
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

// parseQueryParameters parses the doctorId and date query parameters shared by both routes.
func parseQueryParameters(r *http.Request) (uuid.UUID, time.Time, error) {
	zeroUUID := uuid.UUID{}
	var zeroTime time.Time
	doctorUUID, err := uuid.Parse(r.URL.Query().Get("doctorId"))
	if err != nil {
		return zeroUUID, zeroTime, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidIdentifier), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	date, err := time.Parse(schedule.DateLayout, r.URL.Query().Get("date"))
	if err != nil {
		return zeroUUID, zeroTime, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidDateReference), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	return doctorUUID, date, nil
}

func (h httpHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorUUID, date, err := parseQueryParameters(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	daySchedule, err := h.service.Availability(ctx, doctorUUID, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(daySchedule)
}

func (h httpHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorUUID, date, err := parseQueryParameters(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	requestedTime := r.URL.Query().Get("time")
	var horizonDays int32
	if days := r.URL.Query().Get("days"); days != "" {
		parsed, err := strconv.ParseInt(days, 10, 32)
		if err != nil || parsed < 0 {
			h.writeError(w, r, apierrors.NewValidationError("days", "must be a positive integer"))
			return
		}
		horizonDays = int32(parsed)
	}
	suggestions, err := h.service.Suggest(ctx, doctorUUID, date, requestedTime, horizonDays)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(suggestions)
}
