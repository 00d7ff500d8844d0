package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps appointments in process. One mutex guards everything, so
// the occupancy check and the insert in InsertIfAbsent are a single step.
type MemoryStore struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]Appointment
	active       map[string]uuid.UUID // SlotKey.String() -> holder
	events       []EventLog
	nextEventID  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appointments: make(map[uuid.UUID]Appointment),
		active:       make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) InsertIfAbsent(_ context.Context, appt *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := appt.Key().String()
	if appt.Status.Occupying() {
		if _, taken := s.active[key]; taken {
			return ErrSlotConflict
		}
		s.active[key] = appt.ID
	}
	s.appointments[appt.ID] = *appt
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (s *MemoryStore) FindByPatient(_ context.Context, patientID string) ([]Appointment, error) {
	return s.filter(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (s *MemoryStore) FindByCenter(_ context.Context, centerID string) ([]Appointment, error) {
	return s.filter(func(a *Appointment) bool { return a.CenterID == centerID }), nil
}

func (s *MemoryStore) FindAll(_ context.Context) ([]Appointment, error) {
	return s.filter(func(*Appointment) bool { return true }), nil
}

func (s *MemoryStore) FindOccupying(_ context.Context, centerID string, date time.Time) ([]Appointment, error) {
	return s.filter(func(a *Appointment) bool {
		return a.CenterID == centerID && a.Date.Equal(date) && a.Status.Occupying()
	}), nil
}

func (s *MemoryStore) FindConfirmedBefore(_ context.Context, date time.Time) ([]Appointment, error) {
	return s.filter(func(a *Appointment) bool {
		return a.Status == StatusConfirmed && a.Date.Before(date)
	}), nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus, at time.Time) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	key := a.Key().String()
	if !from.Occupying() && to.Occupying() {
		if _, taken := s.active[key]; taken {
			return nil, ErrSlotConflict
		}
		s.active[key] = id
	}
	if from.Occupying() && !to.Occupying() && s.active[key] == id {
		delete(s.active, key)
	}

	a.Status = to
	a.UpdatedAt = at
	s.appointments[id] = a
	return &a, nil
}

func (s *MemoryStore) InsertEvent(_ context.Context, ev EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	ev.ID = s.nextEventID
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the recorded event log.
func (s *MemoryStore) Events() []EventLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]EventLog, len(s.events))
	copy(out, s.events)
	return out
}

func (s *MemoryStore) filter(keep func(*Appointment) bool) []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Appointment
	for _, a := range s.appointments {
		if keep(&a) {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(appts []Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		if appts[i].CreatedAt.Equal(appts[j].CreatedAt) {
			return appts[i].ID.String() > appts[j].ID.String()
		}
		return appts[i].CreatedAt.After(appts[j].CreatedAt)
	})
}
