package schedule

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/configs"
	"clinic-scheduling/internal/database"
	"clinic-scheduling/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type httpHandler struct {
	service Service
	logger  *log.Logger
}

type applyTemplateRequest struct {
	TemplateUUID uuid.UUID `json:"template_uuid"`
}

// Setup setups the routes handled by the schedule context.
func Setup(router *chi.Mux, logger *log.Logger, config configs.Config, dbConn database.Connection) {
	handler := &httpHandler{logger: logger, service: NewService(config, dbConn)}
	router.Get("/api/v1/doctors/{doctorUUID}/schedule", handler.GetSchedule)
	router.Put("/api/v1/doctors/{doctorUUID}/schedule", handler.ReplaceSchedule)
	router.Get("/api/v1/doctors/{doctorUUID}/schedule/templates", handler.ListTemplates)
	router.Post("/api/v1/doctors/{doctorUUID}/schedule/templates", handler.CreateTemplate)
	router.Delete("/api/v1/doctors/{doctorUUID}/schedule/templates/{templateUUID}", handler.DeleteTemplate)
	router.Post("/api/v1/doctors/{doctorUUID}/schedule/apply-template", handler.ApplyTemplate)
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

// writeError logs the given error and answers the request with its mapped status code.
func (h httpHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
	statusCode := apierrors.StatusCodeFor(err)
	w.WriteHeader(statusCode)
	if statusCode != http.StatusInternalServerError {
		_ = json.NewEncoder(w).Encode(err)
	}
}

func (h httpHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorUUID, err := h.parseUUIDParameter("doctorUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	weeklySchedule, err := h.service.GetSchedule(ctx, doctorUUID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(weeklySchedule)
}

func (h httpHandler) ReplaceSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorUUID, err := h.parseUUIDParameter("doctorUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	weeklySchedule := new(WeeklySchedule)
	if err = json.NewDecoder(r.Body).Decode(weeklySchedule); err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err = h.service.ReplaceSchedule(ctx, doctorUUID, *weeklySchedule); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h httpHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.ListTemplates(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(templates)
}

func (h httpHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	template := new(ScheduleTemplate)
	if err := json.NewDecoder(r.Body).Decode(template); err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateTemplate(ctx, *template)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

func (h httpHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	templateUUID, err := h.parseUUIDParameter("templateUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err = h.service.DeleteTemplate(ctx, templateUUID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h httpHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorUUID, err := h.parseUUIDParameter("doctorUUID", r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	request := new(applyTemplateRequest)
	if err = json.NewDecoder(r.Body).Decode(request); err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err = h.service.ApplyTemplate(ctx, doctorUUID, request.TemplateUUID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
