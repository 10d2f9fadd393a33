package demo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zapagenda/zapagenda-backend/internal/booking"
)

// MockBooking is an in-memory booking collaborator for development and tests.
// Slots are deterministic: every weekday offers 09:00-17:00 on the hour.
type MockBooking struct {
	mu           sync.Mutex
	services     []booking.Service
	appointments map[string]*booking.Appointment
	now          func() time.Time
}

// NewMockBooking seeds a mock booking service with a default service catalog.
func NewMockBooking() *MockBooking {
	return &MockBooking{
		services: []booking.Service{
			{ID: "svc_botox", Name: "Botox", Areas: []string{"Testa", "Glabela", "Pés de galinha"}, Duration: 30 * time.Minute},
			{ID: "svc_filler", Name: "Preenchimento", Areas: []string{"Lábios", "Mandíbula"}, Duration: 45 * time.Minute},
			{ID: "svc_cleaning", Name: "Limpeza de pele", Duration: time.Hour},
		},
		appointments: make(map[string]*booking.Appointment),
		now:          time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (m *MockBooking) WithClock(now func() time.Time) *MockBooking {
	m.now = now
	return m
}

var _ booking.Availability = (*MockBooking)(nil)
var _ booking.Scheduler = (*MockBooking)(nil)

func (m *MockBooking) OpenDays(ctx context.Context, clinicID string, from time.Time, days int) ([]string, error) {
	if days <= 0 {
		days = 7
	}
	var out []string
	day := from.AddDate(0, 0, 1)
	for len(out) < days {
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			out = append(out, day.Format(time.DateOnly))
		}
		day = day.AddDate(0, 0, 1)
	}
	return out, nil
}

func (m *MockBooking) OpenTimes(ctx context.Context, clinicID, date string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := map[string]bool{}
	for _, appt := range m.appointments {
		if appt.ClinicID == clinicID && appt.Status == booking.StatusConfirmed && appt.StartsAt.Format(time.DateOnly) == date {
			taken[appt.StartsAt.Format("15:04")] = true
		}
	}
	var out []string
	for hour := 9; hour <= 17; hour++ {
		slot := fmt.Sprintf("%02d:00", hour)
		if !taken[slot] {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (m *MockBooking) Book(ctx context.Context, req booking.Request) (*booking.Appointment, error) {
	startsAt, err := time.Parse("2006-01-02 15:04", req.Date+" "+req.Time)
	if err != nil {
		return nil, fmt.Errorf("demo: parse slot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, appt := range m.appointments {
		if appt.ClinicID == req.ClinicID && appt.Status == booking.StatusConfirmed && appt.StartsAt.Equal(startsAt) {
			return nil, booking.ErrSlotTaken
		}
	}

	var svc booking.Service
	for _, s := range m.services {
		if s.ID == req.ServiceID {
			svc = s
			break
		}
	}

	appt := &booking.Appointment{
		ID:          uuid.NewString(),
		ClinicID:    req.ClinicID,
		Recipient:   req.Recipient,
		PatientName: req.PatientName,
		ServiceID:   req.ServiceID,
		ServiceName: svc.Name,
		StartsAt:    startsAt,
		Status:      booking.StatusConfirmed,
	}
	if req.Area != "" {
		appt.Areas = []string{req.Area}
	}
	m.appointments[appt.ID] = appt
	return appt, nil
}

func (m *MockBooking) Cancel(ctx context.Context, clinicID, appointmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appointments[appointmentID]
	if !ok || appt.ClinicID != clinicID {
		return booking.ErrAppointmentNotFound
	}
	appt.Status = booking.StatusCancelled
	return nil
}

func (m *MockBooking) Reschedule(ctx context.Context, clinicID, appointmentID, date, timeOfDay string) (*booking.Appointment, error) {
	m.mu.Lock()
	old, ok := m.appointments[appointmentID]
	m.mu.Unlock()
	if !ok || old.ClinicID != clinicID {
		return nil, booking.ErrAppointmentNotFound
	}

	moved, err := m.Book(ctx, booking.Request{
		ClinicID:    clinicID,
		Recipient:   old.Recipient,
		PatientName: old.PatientName,
		ServiceID:   old.ServiceID,
		Area:        firstArea(old.Areas),
		Date:        date,
		Time:        timeOfDay,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	old.Status = booking.StatusRescheduled
	m.mu.Unlock()
	return moved, nil
}

func (m *MockBooking) ListUpcoming(ctx context.Context, clinicID, recipient string) ([]booking.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var out []booking.Appointment
	for _, appt := range m.appointments {
		if appt.ClinicID == clinicID && appt.Recipient == recipient &&
			appt.Status == booking.StatusConfirmed && appt.StartsAt.After(now) {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *MockBooking) ConfirmedOn(ctx context.Context, clinicID, date string) ([]booking.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Appointment
	for _, appt := range m.appointments {
		if appt.ClinicID == clinicID && appt.Status == booking.StatusConfirmed && appt.StartsAt.Format(time.DateOnly) == date {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *MockBooking) Services(ctx context.Context, clinicID string) ([]booking.Service, error) {
	return m.services, nil
}

func firstArea(areas []string) string {
	if len(areas) == 0 {
		return ""
	}
	return areas[0]
}
