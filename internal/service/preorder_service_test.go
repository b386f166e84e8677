package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"petale/internal/config"
	"petale/internal/db"
	"petale/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSlotStore is an in-memory SlotStore with the same atomicity guarantees as the
// Postgres repository: every mutation is a single critical section.
type memSlotStore struct {
	mu    sync.Mutex
	slots map[string]*db.Slot

	failNegative bool // when set, decrements fail; used to exercise compensation
}

func newMemSlotStore() *memSlotStore {
	return &memSlotStore{slots: make(map[string]*db.Slot)}
}

func slotKey(date, window string) string { return date + "|" + window }

func (m *memSlotStore) EnsureSlot(date, window string, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := slotKey(date, window)
	if _, ok := m.slots[key]; !ok {
		m.slots[key] = &db.Slot{
			ID:         len(m.slots) + 1,
			SlotDate:   date,
			SlotWindow: window,
			Capacity:   capacity,
		}
	}
	return nil
}

func (m *memSlotStore) AddReserved(date, window string, delta float64) (*db.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNegative && delta < 0 {
		return nil, errors.New("storage unavailable")
	}
	slot, ok := m.slots[slotKey(date, window)]
	if !ok {
		return nil, nil
	}
	slot.Reserved += delta
	copied := *slot
	return &copied, nil
}

func (m *memSlotStore) GetSlot(date, window string) (*db.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[slotKey(date, window)]
	if !ok {
		return nil, nil
	}
	copied := *slot
	return &copied, nil
}

func (m *memSlotStore) GetSlots(date string, windows []string) ([]db.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Slot
	for _, w := range windows {
		if slot, ok := m.slots[slotKey(date, w)]; ok {
			out = append(out, *slot)
		}
	}
	return out, nil
}

func (m *memSlotStore) UpsertCapacity(date, window string, capacity int) (*db.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := slotKey(date, window)
	slot, ok := m.slots[key]
	if !ok {
		slot = &db.Slot{ID: len(m.slots) + 1, SlotDate: date, SlotWindow: window}
		m.slots[key] = slot
	}
	slot.Capacity = capacity
	slot.IsBlackout = false
	copied := *slot
	return &copied, nil
}

func (m *memSlotStore) UpsertBlackout(date, window string, capacity int, isBlackout bool) (*db.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := slotKey(date, window)
	slot, ok := m.slots[key]
	if !ok {
		slot = &db.Slot{ID: len(m.slots) + 1, SlotDate: date, SlotWindow: window, Capacity: capacity}
		m.slots[key] = slot
	}
	slot.IsBlackout = isBlackout
	copied := *slot
	return &copied, nil
}

func testRules() config.ScheduleRules {
	rules := config.DefaultScheduleRules()
	rules.Location = time.UTC
	return rules
}

// newTestService pins "now" to Wednesday 2026-09-02 10:00 UTC.
func newTestService(store SlotStore) *PreorderService {
	svc := NewPreorderService(testRules(), store)
	svc.now = func() time.Time {
		return time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestReserveCreatesSlotLazily(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	slot, err := svc.Reserve("2026-09-12", "10:00-12:00", 3)
	require.NoError(t, err)
	assert.Equal(t, 24, slot.Capacity)
	assert.Equal(t, 3.0, slot.Reserved)
	assert.False(t, slot.IsBlackout)
}

func TestReserveInvalidParameters(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	cases := []struct {
		name   string
		date   string
		window string
		qty    float64
	}{
		{"empty date", "", "10:00-12:00", 1},
		{"garbage date", "not-a-date", "10:00-12:00", 1},
		{"empty window", "2026-09-12", "", 1},
		{"zero qty", "2026-09-12", "10:00-12:00", 0},
		{"negative qty", "2026-09-12", "10:00-12:00", -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Reserve(tc.date, tc.window, tc.qty)
			assert.ErrorIs(t, err, ErrInvalidReservation)
		})
	}
	// Storage untouched.
	assert.Empty(t, store.slots)
}

func TestReserveSoldOutCompensates(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	_, err := svc.SetCapacity("2026-09-12", "10:00-12:00", 5)
	require.NoError(t, err)
	_, err = svc.Reserve("2026-09-12", "10:00-12:00", 4)
	require.NoError(t, err)

	_, err = svc.Reserve("2026-09-12", "10:00-12:00", 2)
	assert.ErrorIs(t, err, ErrSoldOut)

	slot, err := store.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 4.0, slot.Reserved, "failed attempt must leave reserved unchanged")
}

func TestReserveNormalizesDate(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	_, err := svc.Reserve("2026-09-12T00:00:00Z", "10:00-12:00", 1)
	require.NoError(t, err)

	slot, err := store.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	require.NotNil(t, slot, "reservation must land on the canonical date key")
	assert.Equal(t, 1.0, slot.Reserved)
}

func TestConcurrentReserveNoOversell(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	_, err := svc.SetCapacity("2026-09-12", "10:00-12:00", 10)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve("2026-09-12", "10:00-12:00", 3)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, soldOut int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSoldOut):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 3, succeeded, "floor(10/3) reservations fit")
	assert.Equal(t, workers-3, soldOut)

	slot, err := store.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 9.0, slot.Reserved)
	assert.LessOrEqual(t, slot.Reserved, float64(slot.Capacity))
}

func TestReleaseClampsAtZero(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	_, err := svc.Reserve("2026-09-12", "10:00-12:00", 5)
	require.NoError(t, err)

	svc.Release("2026-09-12", "10:00-12:00", 100)

	slot, err := store.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 0.0, slot.Reserved, "release never drives reserved negative")
}

func TestReleaseMissingSlotIsNoop(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	svc.Release("2026-09-12", "10:00-12:00", 5)
	assert.Empty(t, store.slots)
}

func TestReleaseInvalidParametersIsNoop(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	_, err := svc.Reserve("2026-09-12", "10:00-12:00", 5)
	require.NoError(t, err)

	svc.Release("", "10:00-12:00", 5)
	svc.Release("2026-09-12", "", 5)
	svc.Release("2026-09-12", "10:00-12:00", 0)
	svc.Release("2026-09-12", "10:00-12:00", -3)

	slot, err := store.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 5.0, slot.Reserved)
}

func TestCompensationFailureIsLoud(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	_, err := svc.SetCapacity("2026-09-12", "10:00-12:00", 2)
	require.NoError(t, err)

	// First reserve succeeds; the next oversells and its rollback hits a dead store.
	_, err = svc.Reserve("2026-09-12", "10:00-12:00", 2)
	require.NoError(t, err)

	store.failNegative = true
	_, err = svc.Reserve("2026-09-12", "10:00-12:00", 1)
	var cerr *CompensationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "2026-09-12", cerr.Date)
	assert.Equal(t, 1.0, cerr.Qty)

	// The failed decrement leaves reserved inflated; that is exactly what the error reports.
	slot, err := store.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 3.0, slot.Reserved)
}

func TestAvailabilityLeadTimeBoundary(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store) // now = Wednesday 2026-09-02 10:00

	for _, date := range []string{"2026-09-02", "2026-09-03", "2026-09-04"} {
		resp, err := svc.Availability(date)
		require.NoError(t, err)
		assert.True(t, resp.IsBlackout, "%s is inside the 2-day lead time", date)
		assert.Equal(t, entities.ReasonLeadTime, resp.Reason)
		assert.Empty(t, resp.Windows)
	}

	// Saturday 2026-09-05 has two full days in between and is orderable.
	resp, err := svc.Availability("2026-09-05")
	require.NoError(t, err)
	assert.False(t, resp.IsBlackout)
	require.Len(t, resp.Windows, 3)
	assert.Equal(t, "08:00-10:00", resp.Windows[0].Window)
}

func TestAvailabilityCutoffHourAddsADay(t *testing.T) {
	store := newMemSlotStore()
	svc := NewPreorderService(testRules(), store)
	// Wednesday 19:00, past the 18:00 cutoff.
	svc.now = func() time.Time {
		return time.Date(2026, 9, 2, 19, 0, 0, 0, time.UTC)
	}

	resp, err := svc.Availability("2026-09-05")
	require.NoError(t, err)
	assert.True(t, resp.IsBlackout, "past cutoff, Saturday falls inside the lead-time floor")
	assert.Equal(t, entities.ReasonLeadTime, resp.Reason)

	resp, err = svc.Availability("2026-09-06")
	require.NoError(t, err)
	assert.False(t, resp.IsBlackout)
	require.Len(t, resp.Windows, 2) // Sunday evening windows
}

func TestAvailabilityWeekdayBlackout(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	// Monday 2026-09-07 and Tuesday 2026-09-08 are closed regardless of lead time.
	for _, date := range []string{"2026-09-07", "2026-09-08"} {
		resp, err := svc.Availability(date)
		require.NoError(t, err)
		assert.True(t, resp.IsBlackout)
		assert.Equal(t, entities.ReasonBlackout, resp.Reason, "weekday closure reason is distinct from lead time")
	}
}

func TestAvailabilityDefaultsWithoutSlotRows(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	resp, err := svc.Availability("2026-09-12") // Saturday
	require.NoError(t, err)
	require.Len(t, resp.Windows, 3)
	for _, w := range resp.Windows {
		assert.Equal(t, 24, w.Capacity)
		assert.Equal(t, 0.0, w.Reserved)
		assert.Equal(t, 24.0, w.Remaining)
	}
}

func TestAvailabilityReflectsReservations(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	_, err := svc.Reserve("2026-09-12", "10:00-12:00", 7)
	require.NoError(t, err)

	resp, err := svc.Availability("2026-09-12")
	require.NoError(t, err)
	var found bool
	for _, w := range resp.Windows {
		if w.Window == "10:00-12:00" {
			found = true
			assert.Equal(t, 7.0, w.Reserved)
			assert.Equal(t, 17.0, w.Remaining)
		}
	}
	assert.True(t, found)
}

func TestAvailabilityFallbackWindows(t *testing.T) {
	store := newMemSlotStore()
	rules := testRules()
	delete(rules.WindowsByWeekday, time.Saturday)
	svc := NewPreorderService(rules, store)
	svc.now = func() time.Time {
		return time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	}

	resp, err := svc.Availability("2026-09-12")
	require.NoError(t, err)
	require.Len(t, resp.Windows, 3)
	assert.Equal(t, "10:00-12:00", resp.Windows[0].Window)
	assert.Equal(t, "14:00-16:00", resp.Windows[2].Window)
}

func TestSetCapacityPreservesReservations(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	_, err := svc.Reserve("2026-09-12", "10:00-12:00", 7)
	require.NoError(t, err)

	slot, err := svc.SetCapacity("2026-09-12", "10:00-12:00", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, slot.Capacity)
	assert.Equal(t, 7.0, slot.Reserved)
	assert.Equal(t, 13.0, slot.Remaining())
}

func TestSetCapacityClearsBlackout(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	_, err := svc.SetBlackout("2026-09-12", true)
	require.NoError(t, err)

	slot, err := svc.SetCapacity("2026-09-12", "10:00-12:00", 30)
	require.NoError(t, err)
	assert.False(t, slot.IsBlackout)
}

func TestSetBlackoutBatch(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	slots, err := svc.SetBlackout("2026-09-12", true) // Saturday: 3 windows
	require.NoError(t, err)
	require.Len(t, slots, 3)
	for _, slot := range slots {
		assert.True(t, slot.IsBlackout)
		assert.Equal(t, 24, slot.Capacity, "missing rows are created with the default capacity")
	}

	resp, err := svc.Availability("2026-09-12")
	require.NoError(t, err)
	assert.True(t, resp.IsBlackout)
	assert.Equal(t, entities.ReasonBlackout, resp.Reason)
}

func TestFractionalUnits(t *testing.T) {
	store := newMemSlotStore()
	svc := newTestService(store)

	_, err := svc.SetCapacity("2026-09-12", "10:00-12:00", 2)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := svc.Reserve("2026-09-12", "10:00-12:00", 0.5)
		require.NoError(t, err, "reservation %d", i)
	}
	_, err = svc.Reserve("2026-09-12", "10:00-12:00", 0.5)
	assert.ErrorIs(t, err, ErrSoldOut)

	slot, err := store.GetSlot("2026-09-12", "10:00-12:00")
	require.NoError(t, err)
	assert.Equal(t, 2.0, slot.Reserved)
}

func ExamplePreorderService_Reserve() {
	store := newMemSlotStore()
	svc := NewPreorderService(testRules(), store)

	slot, _ := svc.Reserve("2026-09-12", "10:00-12:00", 3)
	fmt.Println(slot.Capacity, slot.Reserved)
	// Output: 24 3
}
