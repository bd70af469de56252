// Package marketcal answers whether the exchange is open at a given instant
// and walks trading days across weekends, holidays and early closes.
package marketcal

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Market session states.
const (
	StatusOpen       = "OPEN"
	StatusPreMarket  = "PRE_MARKET"
	StatusAfterHours = "AFTER_HOURS"
	StatusWeekend    = "WEEKEND"
	StatusHoliday    = "HOLIDAY"
)

// Status describes the market session at one instant.
type Status struct {
	CurrentTime time.Time `json:"current_time"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	IsOpen      bool      `json:"is_open"`
	NextOpen    time.Time `json:"next_open,omitempty"`
	NextClose   time.Time `json:"next_close,omitempty"`
}

// Service evaluates one exchange calendar. All rules run in the exchange's
// local timezone.
type Service struct {
	loc        *time.Location
	open       sessionTime
	close      sessionTime
	earlyClose sessionTime
	holidays   map[string]string // date -> holiday name
	earlyDays  map[string]bool
	now        func() time.Time
}

type sessionTime struct{ hour, minute int }

func (s sessionTime) onDay(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), s.hour, s.minute, 0, 0, loc)
}

// New builds a Service from a calendar definition.
func New(cal *Calendar) (*Service, error) {
	loc, err := time.LoadLocation(cal.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar timezone %q: %w", cal.Timezone, err)
	}

	open, err := parseSessionTime(cal.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open time: %w", err)
	}
	closeT, err := parseSessionTime(cal.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid close time: %w", err)
	}
	early, err := parseSessionTime(cal.EarlyClose)
	if err != nil {
		return nil, fmt.Errorf("invalid early-close time: %w", err)
	}

	svc := &Service{
		loc:        loc,
		open:       open,
		close:      closeT,
		earlyClose: early,
		holidays:   make(map[string]string, len(cal.Holidays)),
		earlyDays:  make(map[string]bool, len(cal.EarlyCloseDays)),
		now:        time.Now,
	}
	for _, h := range cal.Holidays {
		if _, err := time.Parse(dateLayout, h.Date); err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", h.Date, err)
		}
		svc.holidays[h.Date] = h.Name
	}
	for _, d := range cal.EarlyCloseDays {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return nil, fmt.Errorf("invalid early-close date %q: %w", d, err)
		}
		svc.earlyDays[d] = true
	}
	return svc, nil
}

func parseSessionTime(s string) (sessionTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return sessionTime{}, err
	}
	return sessionTime{t.Hour(), t.Minute()}, nil
}

// IsOpen reports whether the market is open at t.
func (s *Service) IsOpen(t time.Time) bool {
	local := t.In(s.loc)
	if !s.IsTradingDay(local) {
		return false
	}
	open := s.open.onDay(local, s.loc)
	close := s.closeOnDay(local)
	return !local.Before(open) && local.Before(close)
}

// IsOpenNow reports whether the market is open right now.
func (s *Service) IsOpenNow() bool {
	return s.IsOpen(s.now())
}

// IsTradingDay reports whether t's date is a weekday that is not a holiday.
func (s *Service) IsTradingDay(t time.Time) bool {
	local := t.In(s.loc)
	wd := local.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, holiday := s.holidays[local.Format(dateLayout)]
	return !holiday
}

// Status classifies the session at t.
func (s *Service) Status(t time.Time) Status {
	local := t.In(s.loc)
	st := Status{CurrentTime: local}

	wd := local.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		st.Status = StatusWeekend
		st.Message = "Stock markets are closed on weekends"
		st.NextOpen = s.open.onDay(s.NextTradingDay(local), s.loc)
		return st
	}

	if name, ok := s.holidays[local.Format(dateLayout)]; ok {
		st.Status = StatusHoliday
		st.Message = "Stock markets are closed for holiday: " + name
		st.NextOpen = s.open.onDay(s.NextTradingDay(local), s.loc)
		return st
	}

	open := s.open.onDay(local, s.loc)
	close := s.closeOnDay(local)
	switch {
	case local.Before(open):
		st.Status = StatusPreMarket
		st.Message = "Market opens at " + open.Format("3:04 PM MST")
		st.NextOpen = open
	case !local.Before(close):
		st.Status = StatusAfterHours
		st.Message = "Market closed at " + close.Format("3:04 PM MST")
		st.NextOpen = s.open.onDay(s.NextTradingDay(local), s.loc)
	default:
		st.Status = StatusOpen
		st.Message = "Market is currently open"
		st.IsOpen = true
		st.NextClose = close
	}
	return st
}

// StatusNow classifies the current session.
func (s *Service) StatusNow() Status {
	return s.Status(s.now())
}

// LastTradingDay returns the most recent trading day. Today counts once the
// session has opened.
func (s *Service) LastTradingDay() time.Time {
	local := s.now().In(s.loc)
	if s.IsTradingDay(local) && !local.Before(s.open.onDay(local, s.loc)) {
		return truncateToDay(local)
	}
	d := local.AddDate(0, 0, -1)
	for !s.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return truncateToDay(d)
}

// NextTradingDay returns the first trading day strictly after from.
func (s *Service) NextTradingDay(from time.Time) time.Time {
	d := from.In(s.loc).AddDate(0, 0, 1)
	for !s.IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return truncateToDay(d)
}

func (s *Service) closeOnDay(local time.Time) time.Time {
	if s.earlyDays[local.Format(dateLayout)] {
		return s.earlyClose.onDay(local, s.loc)
	}
	return s.close.onDay(local, s.loc)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
