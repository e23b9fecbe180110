package services

import (
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"qline-system/models"
)

// StatsService persists served customers into the served_log collection and
// aggregates the shopkeeper dashboard numbers from it.
type StatsService struct {
	app core.App
}

func NewStatsService(app core.App) *StatsService {
	return &StatsService{app: app}
}

// RecordServed appends one served customer to the log.
func (s *StatsService) RecordServed(entry *models.QueueEntry, servedAt time.Time) error {
	collection, err := s.app.FindCollectionByNameOrId("served_log")
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	record.Set("shop_id", entry.ShopID)
	record.Set("customer_id", entry.CustomerID)
	record.Set("customer_name", entry.Name)
	record.Set("joined_at", entry.JoinedAt)
	record.Set("served_at", servedAt)
	record.Set("wait_minutes", servedAt.Sub(entry.JoinedAt).Minutes())

	return s.app.Save(record)
}

// ShopStats aggregates totals, average completed wait and the peak service
// hour for one shop.
func (s *StatsService) ShopStats(shopID string, servedToday int) (*models.ShopStats, error) {
	stats := &models.ShopStats{
		ShopID:      shopID,
		ServedToday: servedToday,
	}

	var totals struct {
		Count   int     `db:"count"`
		AvgWait float64 `db:"avg_wait"`
	}
	err := s.app.DB().
		NewQuery("SELECT COUNT(*) AS count, COALESCE(AVG(wait_minutes), 0) AS avg_wait FROM served_log WHERE shop_id = {:shop}").
		Bind(dbx.Params{"shop": shopID}).
		One(&totals)
	if err != nil {
		return nil, err
	}
	stats.TotalCustomers = totals.Count
	stats.AvgWaitTime = totals.AvgWait

	var peak struct {
		Hour  string `db:"hour"`
		Count int    `db:"count"`
	}
	err = s.app.DB().
		NewQuery("SELECT strftime('%H:00', served_at) AS hour, COUNT(*) AS count FROM served_log WHERE shop_id = {:shop} GROUP BY hour ORDER BY count DESC LIMIT 1").
		Bind(dbx.Params{"shop": shopID}).
		One(&peak)
	if err == nil {
		stats.PeakHour = peak.Hour
	}

	return stats, nil
}
