package booking

type Error string

const (
	ErrDoctorNotFound         = "doctor not found"
	ErrPatientNotFound        = "patient not found"
	ErrAppointmentNotFound    = "appointment not found"
	ErrInvalidIdentifier      = "invalid identifier"
	ErrSlotNotBookable        = "chosen time does not match a bookable slot"
	ErrSlotNotAvailable       = "chosen slot is not available"
	ErrSlotInPast             = "chosen slot is in the past"
	ErrSlotAlreadyBooked      = "chosen slot is already booked"
	ErrIllegalTransition      = "illegal status transition"
	ErrConcurrentStatusChange = "appointment status was changed concurrently"
	ErrNotReschedulable       = "only pending or scheduled appointments can be rescheduled"
)

func (e Error) Error() string {
	return string(e)
}
