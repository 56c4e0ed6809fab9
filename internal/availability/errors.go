package availability

type Error string

const (
	ErrDoctorNotFound       = "doctor not found"
	ErrInvalidIdentifier    = "invalid identifier"
	ErrInvalidDateReference = "invalid date reference - e.g. 2021-08-10"
	ErrInvalidTimeReference = "invalid time reference - e.g. 10:10"
)

func (e Error) Error() string {
	return string(e)
}
