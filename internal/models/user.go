package models

import "time"

// User is a registered account.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserHistory is one signal request made by a user, kept as an audit trail.
// Indicator parameters are denormalized; history rows never change after insert.
type UserHistory struct {
	ID                  int       `json:"id"`
	UserID              int       `json:"user_id"`
	Symbol              string    `json:"symbol"`
	FirstIndicatorType  string    `json:"first_indicator_type"`
	FirstPeriod         int       `json:"first_period"`
	SecondIndicatorType string    `json:"second_indicator_type"`
	SecondPeriod        int       `json:"second_period"`
	ThirdIndicatorType  string    `json:"third_indicator_type"`
	ThirdPeriod         int       `json:"third_period"`
	Interval            string    `json:"interval"`
	RequestTime         time.Time `json:"request_time"`
	Advice              string    `json:"advice"`
}
