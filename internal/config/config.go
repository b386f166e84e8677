package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ScheduleRules is the static pre-order scheduling configuration. It is built once at
// startup and never mutated afterwards; the ledger and availability code receive it by value.
type ScheduleRules struct {
	// LeadTimeDays is the minimum number of whole calendar days between the business-local
	// current day and the earliest orderable delivery date.
	LeadTimeDays int
	// CutoffHour pushes the lead-time floor one extra day out once the local time reaches
	// this hour (0-23). 18 means orders placed at or after 6 PM count from tomorrow.
	CutoffHour int
	// DefaultCapacityPerWindow is assumed for any (date, window) slot that has no stored row.
	DefaultCapacityPerWindow int
	// BlackoutWeekdays are weekdays that are never orderable.
	BlackoutWeekdays map[time.Weekday]bool
	// WindowsByWeekday maps a weekday to its ordered delivery windows ("HH:MM-HH:MM").
	// Weekdays missing from the map fall back to DefaultWindows.
	WindowsByWeekday map[time.Weekday][]string
	// DefaultWindows is the fallback window list for weekdays absent from WindowsByWeekday.
	DefaultWindows []string
	// DeliveryFlatFee is the delivery charge applied at checkout (delivery only, no pickup).
	DeliveryFlatFee float64
	// Location is the business-local timezone used for "today" in lead-time checks.
	Location *time.Location
}

// DefaultScheduleRules returns the bakery's standing schedule: closed Monday and Tuesday,
// evening windows on Sunday, daytime windows Wednesday through Saturday.
func DefaultScheduleRules() ScheduleRules {
	return ScheduleRules{
		LeadTimeDays:             2,
		CutoffHour:               18,
		DefaultCapacityPerWindow: 24,
		BlackoutWeekdays: map[time.Weekday]bool{
			time.Monday:  true,
			time.Tuesday: true,
		},
		WindowsByWeekday: map[time.Weekday][]string{
			time.Sunday:    {"17:00-19:00", "19:00-21:00"},
			time.Wednesday: {"10:00-12:00", "12:00-14:00", "14:00-16:00"},
			time.Thursday:  {"08:00-10:00", "10:00-12:00", "13:00-15:00"},
			time.Friday:    {"08:00-10:00", "10:00-12:00", "13:00-15:00"},
			time.Saturday:  {"08:00-10:00", "10:00-12:00", "13:00-15:00"},
		},
		DefaultWindows:  []string{"10:00-12:00", "12:00-14:00", "14:00-16:00"},
		DeliveryFlatFee: 5,
		Location:        time.Local,
	}
}

// LoadScheduleRules builds the schedule from defaults, applies env overrides and validates.
func LoadScheduleRules() (ScheduleRules, error) {
	rules := DefaultScheduleRules()

	if v := os.Getenv("PREORDER_LEAD_TIME_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return rules, fmt.Errorf("invalid PREORDER_LEAD_TIME_DAYS %q", v)
		}
		rules.LeadTimeDays = n
	}
	if v := os.Getenv("PREORDER_CUTOFF_HOUR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 23 {
			return rules, fmt.Errorf("invalid PREORDER_CUTOFF_HOUR %q", v)
		}
		rules.CutoffHour = n
	}
	if v := os.Getenv("PREORDER_DEFAULT_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return rules, fmt.Errorf("invalid PREORDER_DEFAULT_CAPACITY %q", v)
		}
		rules.DefaultCapacityPerWindow = n
	}
	if v := os.Getenv("PREORDER_BLACKOUT_WEEKDAYS"); v != "" {
		blackout := make(map[time.Weekday]bool)
		for _, part := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 0 || n > 6 {
				return rules, fmt.Errorf("invalid PREORDER_BLACKOUT_WEEKDAYS entry %q", part)
			}
			blackout[time.Weekday(n)] = true
		}
		rules.BlackoutWeekdays = blackout
	}
	if v := os.Getenv("PREORDER_TIMEZONE"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return rules, fmt.Errorf("invalid PREORDER_TIMEZONE %q: %w", v, err)
		}
		rules.Location = loc
	}

	if err := rules.Validate(); err != nil {
		return rules, err
	}
	return rules, nil
}

// WindowsFor resolves the window list for a weekday, falling back to DefaultWindows.
func (r ScheduleRules) WindowsFor(wd time.Weekday) []string {
	if ws, ok := r.WindowsByWeekday[wd]; ok && len(ws) > 0 {
		return ws
	}
	return r.DefaultWindows
}

// Validate checks that every configured window list is well-formed: parseable windows,
// start before end, chronological order, no overlap within a day.
func (r ScheduleRules) Validate() error {
	if r.LeadTimeDays < 0 {
		return fmt.Errorf("lead time days must be >= 0, got %d", r.LeadTimeDays)
	}
	if r.DefaultCapacityPerWindow <= 0 {
		return fmt.Errorf("default capacity per window must be > 0, got %d", r.DefaultCapacityPerWindow)
	}
	if len(r.DefaultWindows) == 0 {
		return fmt.Errorf("default window list must not be empty")
	}
	if err := validateWindows("default", r.DefaultWindows); err != nil {
		return err
	}
	for wd, ws := range r.WindowsByWeekday {
		if err := validateWindows(wd.String(), ws); err != nil {
			return err
		}
	}
	return nil
}

func validateWindows(day string, windows []string) error {
	var prevEnd int
	for i, w := range windows {
		start, end, err := ParseWindow(w)
		if err != nil {
			return fmt.Errorf("%s window %q: %w", day, w, err)
		}
		if i > 0 && start < prevEnd {
			return fmt.Errorf("%s windows overlap or are out of order at %q", day, w)
		}
		prevEnd = end
	}
	return nil
}

// ParseWindow parses a "HH:MM-HH:MM" window into start and end minutes since midnight.
func ParseWindow(w string) (start, end int, err error) {
	parts := strings.Split(w, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("window must be HH:MM-HH:MM")
	}
	start, err = parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err = parseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("window start must be before end")
	}
	return start, end, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// SortedBlackoutWeekdays returns the blackout weekdays in ascending order, for logging.
func (r ScheduleRules) SortedBlackoutWeekdays() []time.Weekday {
	var days []time.Weekday
	for wd := range r.BlackoutWeekdays {
		days = append(days, wd)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}
