package marketcal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Calendar is the static schedule for one exchange year: timezone, session
// times, full-day holidays and early-close days. It is configuration data,
// swappable per year without touching the session logic.
type Calendar struct {
	Year     int    `yaml:"year"`
	Timezone string `yaml:"timezone"`
	Open     string `yaml:"open"`
	Close    string `yaml:"close"`
	// EarlyClose is the close time applied on EarlyCloseDays.
	EarlyClose string `yaml:"early_close"`
	Holidays   []struct {
		Date string `yaml:"date"`
		Name string `yaml:"name"`
	} `yaml:"holidays"`
	EarlyCloseDays []string `yaml:"early_close_days"`
}

// LoadCalendar reads a calendar definition from a YAML file.
func LoadCalendar(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar file: %w", err)
	}
	var cal Calendar
	if err := yaml.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("failed to parse calendar file: %w", err)
	}
	return &cal, nil
}

// DefaultCalendar returns the built-in US equities calendar for 2025.
func DefaultCalendar() *Calendar {
	cal := &Calendar{
		Year:       2025,
		Timezone:   "America/New_York",
		Open:       "09:30",
		Close:      "16:00",
		EarlyClose: "13:00",
		EarlyCloseDays: []string{
			"2025-07-03", // day before Independence Day
			"2025-11-28", // Black Friday
			"2025-12-24", // Christmas Eve
		},
	}
	holidays := []struct{ date, name string }{
		{"2025-01-01", "New Year's Day"},
		{"2025-01-09", "National Day of Mourning"},
		{"2025-01-20", "Martin Luther King Jr. Day"},
		{"2025-02-17", "Presidents' Day"},
		{"2025-04-18", "Good Friday"},
		{"2025-05-26", "Memorial Day"},
		{"2025-06-19", "Juneteenth"},
		{"2025-07-04", "Independence Day"},
		{"2025-09-01", "Labor Day"},
		{"2025-11-27", "Thanksgiving"},
		{"2025-12-25", "Christmas"},
	}
	for _, h := range holidays {
		cal.Holidays = append(cal.Holidays, struct {
			Date string `yaml:"date"`
			Name string `yaml:"name"`
		}{h.date, h.name})
	}
	return cal
}
