package booking

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"clinic-scheduling/internal/configs"
	"clinic-scheduling/internal/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func doctorColumns() []string {
	return []string{"id", "uuid", "user_id", "name", "email", "mobile_phone", "specialty"}
}

func doctorRows() *sqlmock.Rows {
	return sqlmock.NewRows(doctorColumns()).
		AddRow(1, uuid.UUID{}, 1, "John Doe", "doctor@clinic.com", "", "Cardiology")
}

func patientRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "uuid", "user_id", "name", "email", "mobile_phone"}).
		AddRow(2, uuid.UUID{}, 2, "Jane Roe", "patient@clinic.com", "")
}

func workingDayRows() *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"day_of_week", "is_working", "start_time", "end_time", "break_start", "break_end", "max_appointments", "appointment_duration", "buffer_minutes", "timezone"})
	for day := 0; day < 7; day++ {
		rows.AddRow(day, true, "09:00", "17:00", "12:00", "13:00", 16, 30, 5, "UTC")
	}
	return rows
}

func recurrenceRuleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"recurrence_type", "custom_pattern", "effective_from", "effective_until"}).
		AddRow("WEEKLY", nil, nil, nil)
}

func appointmentColumns() []string {
	return []string{"id", "uuid", "doctor_id", "patient_id", "date", "time", "duration", "status", "type"}
}

func emptyAppointmentRows() *sqlmock.Rows {
	return sqlmock.NewRows(appointmentColumns())
}

func appointmentRowsAt(slotTime string, status string) *sqlmock.Rows {
	return sqlmock.NewRows(appointmentColumns()).
		AddRow(10, uuid.UUID{}, 1, 2, time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC), slotTime, 30, status, TypeConsultation)
}

func withFindDoctorByUUIDResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(findDoctorByUUIDQuery)).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

func withFindDoctorByIDResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(findDoctorByIDQuery)).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

func withFindPatientByUUIDResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(findPatientByUUIDQuery)).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

func withFindPatientByIDResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(findPatientByIDQuery)).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

func withFindAppointmentByUUIDResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(findAppointmentByUUIDQuery)).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

func withListWorkingDaysResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(listActiveWorkingDaysQuery())).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

// listActiveWorkingDaysQuery mirrors the availability query the booking flow runs through
// its availability engine.
func listActiveWorkingDaysQuery() string {
	return "SELECT day_of_week, is_working, start_time, end_time, break_start, break_end, max_appointments, appointment_duration, buffer_minutes, timezone FROM tb_working_day WHERE doctor_id = $1 ORDER BY day_of_week"
}

func findRecurrenceRuleQueryText() string {
	return "SELECT recurrence_type, custom_pattern, effective_from, effective_until FROM tb_recurrence_rule WHERE doctor_id = $1"
}

func listActiveAppointmentsQueryText() string {
	return "SELECT a.id, a.uuid, a.doctor_id, a.patient_id, p.uuid AS patient_uuid, a.date, a.time, a.duration, a.status, a.type FROM tb_appointment a JOIN tb_patient p ON p.id = a.patient_id WHERE a.doctor_id = $1 AND a.date = $2 AND a.status IN ('PENDING', 'SCHEDULED', 'COMPLETED')"
}

func availabilityAppointmentColumns() []string {
	return []string{"id", "uuid", "doctor_id", "patient_id", "patient_uuid", "date", "time", "duration", "status", "type"}
}

func emptyAvailabilityAppointmentRows() *sqlmock.Rows {
	return sqlmock.NewRows(availabilityAppointmentColumns())
}

func availabilityAppointmentRowsAt(slotTime string, status string) *sqlmock.Rows {
	return sqlmock.NewRows(availabilityAppointmentColumns()).
		AddRow(10, uuid.UUID{}, 1, 2, uuid.UUID{}, time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC), slotTime, 30, status, TypeConsultation)
}

func withFindRecurrenceRuleResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(findRecurrenceRuleQueryText())).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

func withListActiveAppointmentsResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(listActiveAppointmentsQueryText())).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

func withListAppointmentsResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(listAppointmentsQuery)).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

func withInsertAppointmentResult(result driver.Result) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectExec(regexp.QuoteMeta(insertAppointmentQuery)).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnResult(result)
	}
}

func withInsertAppointmentUniqueViolation() mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectExec(regexp.QuoteMeta(insertAppointmentQuery)).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnError(&pq.Error{Code: "23505"})
	}
}

func withRescheduleAppointmentResult(result driver.Result) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectExec(regexp.QuoteMeta(rescheduleAppointmentQuery)).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnResult(result)
	}
}

func withUpdateStatusResult(result driver.Result) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectExec(regexp.QuoteMeta(updateStatusQuery)).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnResult(result)
	}
}

func withListAppointmentsError() mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(listAppointmentsQuery)).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnError(sql.ErrConnDone)
	}
}

func availabilityOptions(appointments *sqlmock.Rows) []mock.DBResultOption {
	return []mock.DBResultOption{
		withFindDoctorByUUIDResult(doctorRows()),
		withListWorkingDaysResult(workingDayRows()),
		withFindRecurrenceRuleResult(recurrenceRuleRows()),
		withListActiveAppointmentsResult(appointments),
	}
}

func TestBookHandler(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	type args struct {
		config        configs.Config
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		request       *BookingRequest
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should book an available slot",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: append(append([]mock.DBResultOption{
					withFindDoctorByUUIDResult(doctorRows()),
					withFindPatientByUUIDResult(patientRows()),
				}, availabilityOptions(emptyAvailabilityAppointmentRows())...),
					withInsertAppointmentResult(sqlmock.NewResult(1, 1)),
				),
				request: &BookingRequest{DoctorUUID: uuid.UUID{}, PatientUUID: uuid.UUID{}, Date: "2030-06-03", Time: "10:10", Type: TypeConsultation},
			},
			want: http.StatusCreated,
		},
		{
			name: "should not book a slot already held by an active appointment",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: append([]mock.DBResultOption{
					withFindDoctorByUUIDResult(doctorRows()),
					withFindPatientByUUIDResult(patientRows()),
				}, availabilityOptions(availabilityAppointmentRowsAt("10:10:00", StatusScheduled))...),
				request: &BookingRequest{DoctorUUID: uuid.UUID{}, PatientUUID: uuid.UUID{}, Date: "2030-06-03", Time: "10:10", Type: TypeConsultation},
			},
			want: http.StatusConflict,
		},
		{
			name: "should not book a slot lost to a concurrent booking",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: append(append([]mock.DBResultOption{
					withFindDoctorByUUIDResult(doctorRows()),
					withFindPatientByUUIDResult(patientRows()),
				}, availabilityOptions(emptyAvailabilityAppointmentRows())...),
					withInsertAppointmentUniqueViolation(),
				),
				request: &BookingRequest{DoctorUUID: uuid.UUID{}, PatientUUID: uuid.UUID{}, Date: "2030-06-03", Time: "10:10", Type: TypeConsultation},
			},
			want: http.StatusConflict,
		},
		{
			name: "should not book a slot in the past",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: append([]mock.DBResultOption{
					withFindDoctorByUUIDResult(doctorRows()),
					withFindPatientByUUIDResult(patientRows()),
				}, availabilityOptions(emptyAvailabilityAppointmentRows())...),
				request: &BookingRequest{DoctorUUID: uuid.UUID{}, PatientUUID: uuid.UUID{}, Date: "2020-06-01", Time: "10:10", Type: TypeConsultation},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not book an appointment with a malformed date",
			args: args{
				config:  config,
				dbConn:  mock.MustCreateConnectionMock(),
				request: &BookingRequest{DoctorUUID: uuid.UUID{}, PatientUUID: uuid.UUID{}, Date: "03/06/2030", Time: "10:10", Type: TypeConsultation},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not book an appointment for an unknown doctor",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindDoctorByUUIDResult(sqlmock.NewRows(doctorColumns())),
				},
				request: &BookingRequest{DoctorUUID: uuid.UUID{}, PatientUUID: uuid.UUID{}, Date: "2030-06-03", Time: "10:10", Type: TypeConsultation},
			},
			want: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := chi.NewRouter()
			Setup(router, logger, tt.args.config, tt.args.dbConn)

			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			body, _ := json.Marshal(tt.args.request)
			req, _ := http.NewRequest("POST", "/api/v1/appointments", bytes.NewBuffer(body))

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)
			response := recorder.Result()

			if response.StatusCode != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestRescheduleHandler(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	type args struct {
		config          configs.Config
		dbConn          mock.Connection
		dbMockOptions   []mock.DBResultOption
		appointmentUUID string
		request         *RescheduleRequest
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should reschedule an appointment onto an available slot",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: append(append([]mock.DBResultOption{
					withFindAppointmentByUUIDResult(appointmentRowsAt("09:00:00", StatusPending)),
					withFindDoctorByIDResult(doctorRows()),
				}, availabilityOptions(emptyAvailabilityAppointmentRows())...),
					withRescheduleAppointmentResult(sqlmock.NewResult(0, 1)),
					withFindPatientByIDResult(patientRows()),
				),
				appointmentUUID: uuid.UUID{}.String(),
				request:         &RescheduleRequest{Date: "2030-06-03", Time: "10:10"},
			},
			want: http.StatusOK,
		},
		{
			name: "should answer with a conflict when the status changed under the update",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: append(append([]mock.DBResultOption{
					withFindAppointmentByUUIDResult(appointmentRowsAt("09:00:00", StatusPending)),
					withFindDoctorByIDResult(doctorRows()),
				}, availabilityOptions(emptyAvailabilityAppointmentRows())...),
					withRescheduleAppointmentResult(sqlmock.NewResult(0, 0)),
				),
				appointmentUUID: uuid.UUID{}.String(),
				request:         &RescheduleRequest{Date: "2030-06-03", Time: "10:10"},
			},
			want: http.StatusConflict,
		},
		{
			name: "should not reschedule an appointment into the past",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: append([]mock.DBResultOption{
					withFindAppointmentByUUIDResult(appointmentRowsAt("09:00:00", StatusPending)),
					withFindDoctorByIDResult(doctorRows()),
				}, availabilityOptions(emptyAvailabilityAppointmentRows())...),
				appointmentUUID: uuid.UUID{}.String(),
				request:         &RescheduleRequest{Date: "2020-06-01", Time: "10:10"},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not reschedule a cancelled appointment",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentByUUIDResult(appointmentRowsAt("09:00:00", StatusCancelled)),
				},
				appointmentUUID: uuid.UUID{}.String(),
				request:         &RescheduleRequest{Date: "2030-06-03", Time: "10:10"},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not reschedule an unknown appointment",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentByUUIDResult(emptyAppointmentRows()),
				},
				appointmentUUID: uuid.UUID{}.String(),
				request:         &RescheduleRequest{Date: "2030-06-03", Time: "10:10"},
			},
			want: http.StatusNotFound,
		},
		{
			name: "should not reschedule an appointment because the given UUID is wrong",
			args: args{
				config:          config,
				dbConn:          mock.MustCreateConnectionMock(),
				appointmentUUID: "AAAA",
				request:         &RescheduleRequest{Date: "2030-06-03", Time: "10:10"},
			},
			want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := chi.NewRouter()
			Setup(router, logger, tt.args.config, tt.args.dbConn)

			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			body, _ := json.Marshal(tt.args.request)
			req, _ := http.NewRequest("PATCH", fmt.Sprintf("/api/v1/appointments/%s", tt.args.appointmentUUID), bytes.NewBuffer(body))

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)
			response := recorder.Result()

			if response.StatusCode != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestApplyActionHandler(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	type args struct {
		config        configs.Config
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		request       *ActionRequest
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should accept a pending appointment",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentByUUIDResult(appointmentRowsAt("09:00:00", StatusPending)),
					withUpdateStatusResult(sqlmock.NewResult(0, 1)),
				},
				request: &ActionRequest{AppointmentUUID: uuid.UUID{}, Action: ActionAccept},
			},
			want: http.StatusOK,
		},
		{
			name: "should not complete a pending appointment",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentByUUIDResult(appointmentRowsAt("09:00:00", StatusPending)),
				},
				request: &ActionRequest{AppointmentUUID: uuid.UUID{}, Action: ActionComplete},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not transition an appointment changed concurrently",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindAppointmentByUUIDResult(appointmentRowsAt("09:00:00", StatusPending)),
					withUpdateStatusResult(sqlmock.NewResult(0, 0)),
				},
				request: &ActionRequest{AppointmentUUID: uuid.UUID{}, Action: ActionAccept},
			},
			want: http.StatusConflict,
		},
		{
			name: "should not apply an unsupported action",
			args: args{
				config:  config,
				dbConn:  mock.MustCreateConnectionMock(),
				request: &ActionRequest{AppointmentUUID: uuid.UUID{}, Action: "POSTPONE"},
			},
			want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := chi.NewRouter()
			Setup(router, logger, tt.args.config, tt.args.dbConn)

			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			body, _ := json.Marshal(tt.args.request)
			req, _ := http.NewRequest("POST", "/api/v1/appointments/action", bytes.NewBuffer(body))

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)
			response := recorder.Result()

			if response.StatusCode != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestListAppointmentsHandler(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	type args struct {
		config        configs.Config
		dbConn        mock.Connection
		dbMockOptions []mock.DBResultOption
		doctorID      string
		date          string
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should list the doctor appointments of the given date",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindDoctorByUUIDResult(doctorRows()),
					withListAppointmentsResult(appointmentRowsAt("10:10:00", StatusScheduled)),
				},
				doctorID: uuid.UUID{}.String(),
				date:     "2030-06-03",
			},
			want: http.StatusOK,
		},
		{
			name: "should not list the appointments because the given doctor identifier is wrong",
			args: args{
				config:   config,
				dbConn:   mock.MustCreateConnectionMock(),
				doctorID: "AAAA",
				date:     "2030-06-03",
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not list the appointments due to a database error",
			args: args{
				config: config,
				dbConn: mock.MustCreateConnectionMock(),
				dbMockOptions: []mock.DBResultOption{
					withFindDoctorByUUIDResult(doctorRows()),
					withListAppointmentsError(),
				},
				doctorID: uuid.UUID{}.String(),
				date:     "2030-06-03",
			},
			want: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := chi.NewRouter()
			Setup(router, logger, tt.args.config, tt.args.dbConn)

			mock.MockDBResults(tt.args.dbConn, tt.args.dbMockOptions...)

			req, _ := http.NewRequest("GET", fmt.Sprintf("/api/v1/appointments?doctorId=%s&date=%s", tt.args.doctorID, tt.args.date), nil)

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)
			response := recorder.Result()

			if response.StatusCode != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}
