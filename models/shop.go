package models

type ShopStats struct {
	ShopID         string  `json:"shop_id"`
	ServedToday    int     `json:"served_today"`
	TotalCustomers int     `json:"total_customers"`
	AvgWaitTime    float64 `json:"avg_wait_time"`
	PeakHour       string  `json:"peak_hour"`
}
