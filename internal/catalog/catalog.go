package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("catalog entry not found")

type Center struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Description string `json:"description,omitempty"`
}

type Test struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
	CenterID        string          `json:"center_id"`
}

// Provider is the read-only view of centers and tests.
type Provider interface {
	GetCenter(ctx context.Context, id string) (*Center, error)
	GetTest(ctx context.Context, id string) (*Test, error)
	ListTestsForCenter(ctx context.Context, centerID string) ([]Test, error)
	ListCenters(ctx context.Context) ([]Center, error)
}

// Memory is an immutable in-process catalog.
type Memory struct {
	centers      map[string]Center
	centerOrder  []string
	tests        map[string]Test
	testsCenters map[string][]string
}

func NewMemory(centers []Center, tests []Test) *Memory {
	m := &Memory{
		centers:      make(map[string]Center, len(centers)),
		tests:        make(map[string]Test, len(tests)),
		testsCenters: make(map[string][]string),
	}
	for _, c := range centers {
		if _, dup := m.centers[c.ID]; !dup {
			m.centerOrder = append(m.centerOrder, c.ID)
		}
		m.centers[c.ID] = c
	}
	for _, t := range tests {
		if _, dup := m.tests[t.ID]; !dup {
			m.testsCenters[t.CenterID] = append(m.testsCenters[t.CenterID], t.ID)
		}
		m.tests[t.ID] = t
	}
	return m
}

func (m *Memory) GetCenter(_ context.Context, id string) (*Center, error) {
	c, ok := m.centers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) GetTest(_ context.Context, id string) (*Test, error) {
	t, ok := m.tests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *Memory) ListTestsForCenter(_ context.Context, centerID string) ([]Test, error) {
	ids := m.testsCenters[centerID]
	out := make([]Test, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.tests[id])
	}
	return out, nil
}

func (m *Memory) ListCenters(_ context.Context) ([]Center, error) {
	out := make([]Center, 0, len(m.centerOrder))
	for _, id := range m.centerOrder {
		out = append(out, m.centers[id])
	}
	return out, nil
}
