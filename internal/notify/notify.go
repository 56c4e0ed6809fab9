// Package notify contains the client used to dispatch scheduling notifications to the
// external notification service. Dispatch failures never invalidate a committed booking.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clinic-scheduling/internal/apierrors"
	"clinic-scheduling/internal/configs"

	"github.com/google/uuid"
)

const (
	eventBooked      = "appointment.booked"
	eventRescheduled = "appointment.rescheduled"

	dispatchTimeout = 3 * time.Second
)

// Event holds the payload dispatched to the notification service.
type Event struct {
	Type            string    `json:"type"`
	AppointmentUUID uuid.UUID `json:"appointment_uuid"`
	DoctorUUID      uuid.UUID `json:"doctor_uuid"`
	PatientUUID     uuid.UUID `json:"patient_uuid"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
}

// Notifier determines the notifications dispatched after a committed scheduling operation.
type Notifier interface {

	// AppointmentBooked notifies that a new appointment was committed.
	AppointmentBooked(ctx context.Context, event Event) error

	// AppointmentRescheduled notifies that an appointment was moved to a new slot.
	AppointmentRescheduled(ctx context.Context, event Event) error
}

type webhookNotifier struct {
	client *http.Client
	url    string
}

type noopNotifier struct{}

// NewNotifier creates a Notifier based on the given configuration. When no notification
// URL is configured, a noop implementation is returned.
func NewNotifier(config configs.Config) Notifier {
	if config.NotificationURL() == "" {
		return &noopNotifier{}
	}
	return &webhookNotifier{
		client: &http.Client{Timeout: dispatchTimeout},
		url:    config.NotificationURL(),
	}
}

func (n *webhookNotifier) AppointmentBooked(ctx context.Context, event Event) error {
	event.Type = eventBooked
	return n.dispatch(ctx, event)
}

func (n *webhookNotifier) AppointmentRescheduled(ctx context.Context, event Event) error {
	event.Type = eventRescheduled
	return n.dispatch(ctx, event)
}

func (n *webhookNotifier) dispatch(ctx context.Context, event Event) error {
	body := new(bytes.Buffer)
	if err := json.NewEncoder(body).Encode(event); err != nil {
		return apierrors.NewExternalServiceError("notification", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, body)
	if err != nil {
		return apierrors.NewExternalServiceError("notification", err)
	}
	request.Header.Set("Content-type", "application/json")
	response, err := n.client.Do(request)
	if err != nil {
		return apierrors.NewExternalServiceError("notification", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode >= http.StatusBadRequest {
		return apierrors.NewExternalServiceError("notification", fmt.Errorf("unexpected status code %d", response.StatusCode))
	}
	return nil
}

func (n *noopNotifier) AppointmentBooked(ctx context.Context, event Event) error {
	return nil
}

func (n *noopNotifier) AppointmentRescheduled(ctx context.Context, event Event) error {
	return nil
}
