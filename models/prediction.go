package models

type PredictionRequest struct {
	CurrentQueueLength            int     `json:"current_queue_length"`
	NumberOfActiveCounters        int     `json:"number_of_active_counters"`
	AverageServiceTimePerCustomer float64 `json:"average_service_time_per_customer"`
	TimeOfDay                     string  `json:"time_of_day"` // HH:MM
	DayOfWeek                     int     `json:"day_of_week"` // 0=Monday .. 6=Sunday
	IsWeekend                     bool    `json:"is_weekend"`
	IsRushHour                    bool    `json:"is_rush_hour"`
}

// PredictionResponse is the wire format of the external predictor.
type PredictionResponse struct {
	Status            string  `json:"status"`
	PredictedWaitTime float64 `json:"predicted_wait_time"`
	Unit              string  `json:"unit,omitempty"`
	Error             string  `json:"error,omitempty"`
}

type PredictionResult struct {
	PredictedWaitTime float64 `json:"predicted_wait_time"`
	Category          string  `json:"category"` // short, moderate, long
	IsWeekend         bool    `json:"is_weekend"`
	IsRushHour        bool    `json:"is_rush_hour"`
}
