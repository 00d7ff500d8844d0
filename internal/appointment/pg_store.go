package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	pgUniqueViolation    = "23505"
	activeSlotConstraint = "appointments_active_slot_uniq"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const appointmentColumns = `id, patient_id, center_id, test_id, appointment_date, appointment_time,
	status, total_amount::text, payment_status, notes, created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var amount string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.CenterID,
		&a.TestID,
		&a.Date,
		&a.Time,
		&a.Status,
		&amount,
		&a.PaymentStatus,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.TotalAmount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse total_amount of %s: %w", a.ID, err)
	}
	a.Date = DateOf(a.Date, time.UTC)
	return &a, nil
}

func (r *PgStore) collect(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func isActiveSlotViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgUniqueViolation &&
		pgErr.ConstraintName == activeSlotConstraint
}

func occupyingNames() []string {
	out := make([]string, len(OccupyingStatuses))
	for i, s := range OccupyingStatuses {
		out[i] = string(s)
	}
	return out
}

// Interface methods

// InsertIfAbsent leans on the partial unique index over occupying statuses,
// so two concurrent inserts for one slot cannot both commit.
func (r *PgStore) InsertIfAbsent(ctx context.Context, appt *Appointment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (
			id, patient_id, center_id, test_id, appointment_date, appointment_time,
			status, total_amount, payment_status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12)
	`,
		appt.ID,
		appt.PatientID,
		appt.CenterID,
		appt.TestID,
		appt.Date,
		string(appt.Time),
		string(appt.Status),
		appt.TotalAmount.String(),
		string(appt.PaymentStatus),
		appt.Notes,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		if isActiveSlotViolation(err) {
			return ErrSlotConflict
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgStore) FindByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	return r.collect(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY created_at DESC, id DESC
	`, patientID)
}

func (r *PgStore) FindByCenter(ctx context.Context, centerID string) ([]Appointment, error) {
	return r.collect(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE center_id = $1
		ORDER BY created_at DESC, id DESC
	`, centerID)
}

func (r *PgStore) FindAll(ctx context.Context) ([]Appointment, error) {
	return r.collect(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY created_at DESC, id DESC
	`)
}

func (r *PgStore) FindOccupying(ctx context.Context, centerID string, date time.Time) ([]Appointment, error) {
	return r.collect(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE center_id = $1
		  AND appointment_date = $2
		  AND status = ANY($3)
	`, centerID, date, occupyingNames())
}

func (r *PgStore) FindConfirmedBefore(ctx context.Context, date time.Time) ([]Appointment, error) {
	return r.collect(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'confirmed'
		  AND appointment_date < $1
	`, date)
}

func (r *PgStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, at time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = $4
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, string(to), string(from), at)

	a, err := scanAppointment(row)
	if err != nil && isActiveSlotViolation(err) {
		return nil, ErrSlotConflict
	}
	return a, err
}

func (r *PgStore) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
