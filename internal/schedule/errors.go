package schedule

type Error string

const (
	ErrDoctorNotFound     = "doctor not found"
	ErrTemplateNotFound   = "template not found"
	ErrTemplateNameInUse  = "template name already in use"
	ErrInvalidIdentifier  = "invalid identifier"
	ErrInvalidDateRange   = "invalid date range"
	ErrUnsupportedPattern = "unsupported custom pattern"
)

func (e Error) Error() string {
	return string(e)
}
