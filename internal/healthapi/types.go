// Package healthapi contains the REST client for the remote healthcare ERP
// and the entity types it returns.
package healthapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString decodes JSON strings, numbers and booleans into a string.
// The ERP returns numeric ids and measurements inconsistently.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatBool(b))
	return nil
}

func (f FlexString) String() string { return string(f) }

// PatientProfile is a patient record as exposed by the ERP.
type PatientProfile struct {
	PatientID        FlexString `json:"patient_id,omitempty"`
	ID               FlexString `json:"id,omitempty"`
	Name             string     `json:"name,omitempty"`
	Email            string     `json:"email,omitempty"`
	Phone            FlexString `json:"phone,omitempty"`
	DOB              string     `json:"dob,omitempty"`
	Gender           string     `json:"gender,omitempty"`
	BloodGroup       string     `json:"blood_group,omitempty"`
	Age              FlexString `json:"age,omitempty"`
	Height           FlexString `json:"height,omitempty"`
	Weight           FlexString `json:"weight,omitempty"`
	Address          string     `json:"address,omitempty"`
	RegistrationDate string     `json:"registration_date,omitempty"`
}

// Identifier returns patient_id, falling back to id.
func (p PatientProfile) Identifier() string {
	if id := strings.TrimSpace(p.PatientID.String()); id != "" {
		return id
	}
	return strings.TrimSpace(p.ID.String())
}

// Doctor is a bookable practitioner.
type Doctor struct {
	DoctorID        FlexString `json:"doctor_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email,omitempty"`
	Phone           FlexString `json:"phone,omitempty"`
	Specialization  string     `json:"specialization,omitempty"`
	HospitalID      FlexString `json:"hospital_id,omitempty"`
	HospitalName    string     `json:"hospital_name,omitempty"`
	ConsultationFee FlexString `json:"consultation_fee,omitempty"`
	Location        string     `json:"location,omitempty"`
}

// Hospital is a facility listed by the ERP.
type Hospital struct {
	HospitalID FlexString `json:"hospital_id,omitempty"`
	Name       string     `json:"name"`
	Location   string     `json:"location,omitempty"`
	Address    string     `json:"address,omitempty"`
	Phone      FlexString `json:"phone,omitempty"`
}

// Appointment is a scheduled or past visit.
type Appointment struct {
	AppointmentID  FlexString `json:"appointment_id"`
	DateTime       string     `json:"date_time"`
	Symptoms       string     `json:"symptoms,omitempty"`
	Status         string     `json:"status,omitempty"`
	DoctorName     string     `json:"doctor_name,omitempty"`
	Specialization string     `json:"specialization,omitempty"`
	HospitalName   string     `json:"hospital_name,omitempty"`
	PatientName    string     `json:"patient_name,omitempty"`
	PatientPhone   FlexString `json:"patient_phone,omitempty"`
}

// Prescription is a medication issued to a patient.
type Prescription struct {
	PrescriptionID  FlexString `json:"prescription_id"`
	MedicineName    string     `json:"medicine_name"`
	Dosage          string     `json:"dosage,omitempty"`
	Frequency       string     `json:"frequency,omitempty"`
	Duration        string     `json:"duration,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	DoctorName      string     `json:"doctor_name,omitempty"`
	Specialization  string     `json:"specialization,omitempty"`
	PatientName     string     `json:"patient_name,omitempty"`
	AppointmentDate string     `json:"appointment_date,omitempty"`
	CreatedAt       string     `json:"created_at,omitempty"`
}

// LabTest is an uploaded lab result.
type LabTest struct {
	TestID     FlexString `json:"test_id"`
	TestName   string     `json:"test_name"`
	TestType   string     `json:"test_type,omitempty"`
	TestDate   string     `json:"test_date,omitempty"`
	Status     string     `json:"status,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	UploadedAt string     `json:"uploaded_at,omitempty"`
}

// Report is a medical document attached to the patient record.
type Report struct {
	ReportID    FlexString `json:"report_id"`
	Title       string     `json:"report_title"`
	Description string     `json:"description,omitempty"`
	FileName    string     `json:"file_name,omitempty"`
	UploadDate  string     `json:"upload_date,omitempty"`
}

// Dashboard aggregates the patient landing view.
type Dashboard struct {
	Patient                   PatientProfile `json:"patient"`
	RecentAppointments        []Appointment  `json:"recent_appointments"`
	ReportsCount              int            `json:"reports_count"`
	UpcomingAppointmentsCount int            `json:"upcoming_appointments_count"`
}

// DoctorStatistics summarises a doctor's workload.
type DoctorStatistics struct {
	TodayCount     int `json:"today_count"`
	UpcomingCount  int `json:"upcoming_count"`
	TotalPatients  int `json:"total_patients"`
	CompletedCount int `json:"completed_count"`
}

// DoctorDashboard aggregates the doctor landing view.
type DoctorDashboard struct {
	Doctor               Doctor           `json:"doctor"`
	TodayAppointments    []Appointment    `json:"today_appointments"`
	UpcomingAppointments []Appointment    `json:"upcoming_appointments"`
	Statistics           DoctorStatistics `json:"statistics"`
}

// ListResult carries a collection that may have degraded to empty when the
// upstream call failed for reasons other than authentication.
type ListResult[T any] struct {
	Items    []T
	Degraded bool
}

// BookingRequest is the appointment creation payload.
type BookingRequest struct {
	DoctorID   string `json:"doctor_id"`
	HospitalID string `json:"hospital_id"`
	DateTime   string `json:"date_time"`
	Symptoms   string `json:"symptoms"`
}

// BookingResult is the normalized outcome of a successful booking.
type BookingResult struct {
	AppointmentID string
	Message       string
}

// AuthResult is the outcome of a successful sign-in.
type AuthResult struct {
	Patient *PatientProfile
	Doctor  *Doctor
	Cookies []string
}

// ShareResult acknowledges a share request.
type ShareResult struct {
	Message string `json:"message"`
}
