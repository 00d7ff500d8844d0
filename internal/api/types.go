package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hackgods/diagnostic-booking/internal/appointment"
	"github.com/hackgods/diagnostic-booking/internal/catalog"
)

type CreateAppointmentRequest struct {
	CenterID string `json:"center_id"`
	TestID   string `json:"test_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Notes    string `json:"notes,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID            uuid.UUID       `json:"id"`
	PatientID     string          `json:"patient_id"`
	CenterID      string          `json:"center_id"`
	TestID        string          `json:"test_id"`
	Date          string          `json:"date"`
	Time          string          `json:"time"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentStatus string          `json:"payment_status"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Center        *catalog.Center `json:"center,omitempty"`
	Test          *catalog.Test   `json:"test,omitempty"`
}

type SlotResponse struct {
	Time   string `json:"time"`
	Booked bool   `json:"booked"`
}

type SlotsResponse struct {
	CenterID string         `json:"center_id"`
	Date     string         `json:"date"`
	Slots    []SlotResponse `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		PatientID:     a.PatientID,
		CenterID:      a.CenterID,
		TestID:        a.TestID,
		Date:          appointment.FormatDate(a.Date),
		Time:          string(a.Time),
		Status:        string(a.Status),
		TotalAmount:   a.TotalAmount,
		PaymentStatus: string(a.PaymentStatus),
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toDetailResponse(d appointment.AppointmentDetail) AppointmentResponse {
	resp := toAppointmentResponse(d.Appointment)
	resp.Center = d.Center
	resp.Test = d.Test
	return resp
}
