package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hackgods/diagnostic-booking/internal/appointment"
	"github.com/hackgods/diagnostic-booking/internal/identity"
	"github.com/hackgods/diagnostic-booking/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ConfirmRatio float64
	CancelRatio  float64
	ReadRatio    float64
	Patients     int
	Centers      []string
	Days         int
}

type patient struct {
	ID    string
	Name  string
	Email string
}

type booked struct {
	ID        string
	PatientID string
	CenterID  string
}

type DataPool struct {
	Patients     []patient
	mu           sync.RWMutex
	appointments []booked
}

func (dp *DataPool) AddAppointment(b booked) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, b)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (booked, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return booked{}, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int, okStatus int) {
	atomic.AddInt64(&om.Total, 1)
	switch status {
	case okStatus:
		atomic.AddInt64(&om.Success, 1)
	case http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	at := func(pct int) time.Duration {
		idx := len(latencies) * pct / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}
	return sum / time.Duration(len(latencies)), at(50), at(95), latencies[len(latencies)-1]
}

type Metrics struct {
	Booking OperationMetrics
	Confirm OperationMetrics
	Cancel  OperationMetrics
	Slots   OperationMetrics
	List    OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     zerolog.Logger
}

func main() {
	_ = godotenv.Load()
	log := logging.New(getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info")).With().Str("service", "simulate").Logger()

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).
		Float64("confirm", cfg.ConfirmRatio).
		Float64("cancel", cfg.CancelRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	sim := &Simulator{
		config: cfg,
		pool:   &DataPool{Patients: fakePatients(cfg.Patients)},
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	sim.Run()
	sim.PrintReport()
	if violations := sim.CheckNoDoubleBooking(); violations > 0 {
		log.Error().Int("violations", violations).Msg("double booking detected")
		os.Exit(1)
	}
}

func fakePatients(n int) []patient {
	faker := gofakeit.New(0)
	out := make([]patient, n)
	for i := range out {
		out[i] = patient{ID: faker.UUID(), Name: faker.Name(), Email: faker.Email()}
	}
	return out
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		ConfirmRatio: getFloat("SIM_CONFIRM_RATIO", 0.15),
		CancelRatio:  getFloat("SIM_CANCEL_RATIO", 0.05),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		Patients:     getInt("SIM_PATIENTS", 500),
		Centers:      strings.Split(getEnv("SIM_CENTERS", "1,2,3"), ","),
		Days:         getInt("SIM_DAYS", 3),
	}

	total := cfg.BookingRatio + cfg.ConfirmRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ConfirmRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Patients <= 0 {
		return fmt.Errorf("SIM_PATIENTS must be > 0")
	}
	if cfg.Days <= 0 {
		return fmt.Errorf("SIM_DAYS must be > 0")
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	c := s.config

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < c.BookingRatio:
			s.doBooking(ctx, rng)
		case r < c.BookingRatio+c.ConfirmRatio:
			s.doTransition(ctx, rng, "confirm", &s.metrics.Confirm)
		case r < c.BookingRatio+c.ConfirmRatio+c.CancelRatio:
			s.doTransition(ctx, rng, "cancel", &s.metrics.Cancel)
		default:
			if rng.Intn(2) == 0 {
				s.doSlots(ctx, rng)
			} else {
				s.doList(ctx, rng)
			}
		}
	}
}

// randomSlot picks from a deliberately small key space so that workers
// collide on the same slot.
func (s *Simulator) randomSlot(rng *rand.Rand) (center, date, slot string) {
	center = s.config.Centers[rng.Intn(len(s.config.Centers))]
	date = time.Now().AddDate(0, 0, 1+rng.Intn(s.config.Days)).Format(appointment.DateLayout)
	slot = string(appointment.DailySlots[rng.Intn(len(appointment.DailySlots))])
	return center, date, slot
}

func (s *Simulator) send(ctx context.Context, method, path string, body any, headers map[string]string) (int, []byte, time.Duration) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, &buf)
	if err != nil {
		return 0, nil, 0
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, nil, latency
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	return resp.StatusCode, out.Bytes(), latency
}

func patientHeaders(p patient) map[string]string {
	return map[string]string{
		identity.HeaderUserID: p.ID,
		identity.HeaderName:   p.Name,
		identity.HeaderEmail:  p.Email,
		identity.HeaderRole:   string(identity.RolePatient),
	}
}

func staffHeaders(centerID string) map[string]string {
	return map[string]string{
		identity.HeaderUserID:   "sim-staff-" + centerID,
		identity.HeaderRole:     string(identity.RoleDiagnosticCenterAdmin),
		identity.HeaderCenterID: centerID,
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	p := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	center, date, slot := s.randomSlot(rng)

	status, body, latency := s.send(ctx, http.MethodPost, "/appointments", map[string]string{
		"center_id": center,
		"test_id":   testFor(center, rng),
		"date":      date,
		"time":      slot,
	}, patientHeaders(p))
	if ctx.Err() != nil {
		return
	}

	if status == http.StatusCreated {
		var resp struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &resp); err == nil && resp.ID != "" {
			s.pool.AddAppointment(booked{ID: resp.ID, PatientID: p.ID, CenterID: center})
		}
	}
	s.metrics.Booking.Record(latency, status, http.StatusCreated)
}

// testFor returns one of the first ten menu items of center.
func testFor(center string, rng *rand.Rand) string {
	n := 1 + rng.Intn(10)
	if center == "1" {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%s-%d", center, n)
}

func (s *Simulator) doTransition(ctx context.Context, rng *rand.Rand, action string, om *OperationMetrics) {
	b, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}

	headers := staffHeaders(b.CenterID)
	if action == "cancel" {
		headers = map[string]string{identity.HeaderUserID: b.PatientID}
	}

	status, _, latency := s.send(ctx, http.MethodPost, "/appointments/"+b.ID+"/"+action, nil, headers)
	if ctx.Err() != nil {
		return
	}
	om.Record(latency, status, http.StatusOK)
}

func (s *Simulator) doSlots(ctx context.Context, rng *rand.Rand) {
	center, date, _ := s.randomSlot(rng)
	status, _, latency := s.send(ctx, http.MethodGet, "/centers/"+center+"/slots?date="+date, nil, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Slots.Record(latency, status, http.StatusOK)
}

func (s *Simulator) doList(ctx context.Context, rng *rand.Rand) {
	p := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	status, _, latency := s.send(ctx, http.MethodGet, "/appointments", nil, patientHeaders(p))
	if ctx.Err() != nil {
		return
	}
	s.metrics.List.Record(latency, status, http.StatusOK)
}

// CheckNoDoubleBooking lists everything as an admin and counts slots held by
// more than one occupying appointment.
func (s *Simulator) CheckNoDoubleBooking() int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, body, _ := s.send(ctx, http.MethodGet, "/appointments", nil, map[string]string{
		identity.HeaderUserID: "sim-admin",
		identity.HeaderRole:   string(identity.RoleAdmin),
	})
	if status != http.StatusOK {
		s.log.Error().Int("status", status).Msg("could not list appointments for verification")
		return 0
	}

	var all []struct {
		CenterID string `json:"center_id"`
		Date     string `json:"date"`
		Time     string `json:"time"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(body, &all); err != nil {
		s.log.Error().Err(err).Msg("decode appointments")
		return 0
	}

	held := make(map[string]int)
	violations := 0
	for _, a := range all {
		if !appointment.AppointmentStatus(a.Status).Occupying() {
			continue
		}
		key := a.CenterID + "|" + a.Date + "|" + a.Time
		held[key]++
		if held[key] == 2 {
			violations++
		}
	}
	s.log.Info().Int("appointments", len(all)).Int("occupied_slots", len(held)).Msg("verification complete")
	return violations
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Confirm", &s.metrics.Confirm)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Slots", &s.metrics.Slots)
	printOperationReport("List", &s.metrics.List)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)
	avg, p50, p95, max := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s max=%s\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), max.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
