package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type QueueEntry struct {
	CustomerID string    `json:"customer_id"`
	ShopID     string    `json:"shop_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	JoinedAt   time.Time `json:"joined_at"`
	Position   int       `json:"position"`
}

// QueueEntryView is a QueueEntry as rendered on the shopkeeper dashboard.
// WaitingMinutes is derived from JoinedAt at read time and never stored.
type QueueEntryView struct {
	QueueEntry
	WaitingMinutes int `json:"waiting_minutes"`
}

type QueueSettings struct {
	ActiveCounters int             `json:"active_counters"`
	AvgServiceTime decimal.Decimal `json:"avg_service_time"`
	IsActive       bool            `json:"is_active"`
}

type QueueSnapshot struct {
	ShopID         string           `json:"shop_id"`
	Entries        []QueueEntryView `json:"entries"`
	ActiveCounters int              `json:"active_counters"`
	AvgServiceTime decimal.Decimal  `json:"avg_service_time"`
	IsActive       bool             `json:"is_active"`
	ServedToday    int              `json:"served_today"`
	LastUpdated    time.Time        `json:"last_updated"`
}

// CustomerStatus is the customer-facing projection of the queue.
type CustomerStatus struct {
	Position      int       `json:"position"`
	EstimatedWait float64   `json:"estimated_wait"`
	TotalInQueue  int       `json:"total_in_queue"`
	IsActive      bool      `json:"is_active"`
	LastUpdated   time.Time `json:"last_updated"`
}
