package appointment

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/hackgods/diagnostic-booking/internal/catalog"
	"github.com/hackgods/diagnostic-booking/internal/identity"
	"github.com/hackgods/diagnostic-booking/internal/metrics"
)

var (
	testNow  = time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	today    = "2026-10-17"
	tomorrow = "2026-10-18"

	alice      = &identity.Principal{ID: "patient-alice", Name: "Alice", Role: identity.RolePatient}
	bob        = &identity.Principal{ID: "patient-bob", Name: "Bob", Role: identity.RolePatient}
	admin      = &identity.Principal{ID: "admin-1", Role: identity.RoleAdmin}
	centerOne  = &identity.Principal{ID: "staff-1", Role: identity.RoleDiagnosticCenterAdmin, CenterID: "1"}
	centerTwo  = &identity.Principal{ID: "staff-2", Role: identity.RoleDiagnosticCenterAdmin, CenterID: "2"}
	superAdmin = &identity.Principal{ID: "system", Role: identity.RoleSuperAdmin}
)

type fixture struct {
	svc     *Service
	store   *MemoryStore
	metrics *metrics.Metrics
	clock   *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := testNow
	f := &fixture{
		store:   NewMemoryStore(),
		metrics: metrics.New(prometheus.NewRegistry(), "test"),
		clock:   &clock,
	}
	f.svc = NewService(f.store, catalog.NewSeeded(), NewLocalLocker(0), Options{
		Location: time.UTC,
		Now:      func() time.Time { return *f.clock },
		Logger:   zerolog.Nop(),
		Metrics:  f.metrics,
	})
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func chestXRay(date, slot string) BookingRequest {
	return BookingRequest{CenterID: "1", TestID: "9", Date: date, Time: slot}
}
