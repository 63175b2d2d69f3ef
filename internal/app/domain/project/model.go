package project

import (
	"fmt"
	"time"
)

// Status describes where a project sits in the kill-or-scale lifecycle.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusKilled Status = "killed"
	StatusScaled Status = "scaled"
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusActive, StatusPaused, StatusKilled, StatusScaled:
		return Status(raw), nil
	}
	return "", fmt.Errorf("invalid project status %q", raw)
}

// Category labels the kind of work a project (or a tracked session)
// represents.
type Category string

const (
	CategoryBuilding  Category = "building"
	CategoryMarketing Category = "marketing"
	CategoryAdmin     Category = "admin"
	CategoryLearning  Category = "learning"
)

// ParseCategory validates a raw category value.
func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case CategoryBuilding, CategoryMarketing, CategoryAdmin, CategoryLearning:
		return Category(raw), nil
	}
	return "", fmt.Errorf("invalid category %q", raw)
}

// Signal is the stored weekly traffic-light classification. Its
// computation lives outside this service; we only carry the value.
type Signal string

const (
	SignalGreen  Signal = "green"
	SignalYellow Signal = "yellow"
	SignalRed    Signal = "red"
)

// Project is a side business tracked by a single user. Aggregate totals
// are running sums maintained as side effects of session and ledger
// recording.
type Project struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	Name              string    `json:"name" db:"name"`
	Status            Status    `json:"status" db:"status"`
	Category          Category  `json:"category" db:"category"`
	TotalTimeInvested int64     `json:"total_time_invested" db:"total_time_invested"`
	TotalRevenue      float64   `json:"total_revenue" db:"total_revenue"`
	TotalExpenses     float64   `json:"total_expenses" db:"total_expenses"`
	WeeklySignal      Signal    `json:"weekly_signal" db:"weekly_signal"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Name     *string
	Status   *Status
	Category *Category
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Status == nil && p.Category == nil
}
