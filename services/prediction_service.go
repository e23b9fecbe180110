package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"qline-system/config"
	"qline-system/models"
	"qline-system/monitoring"
	"qline-system/status"
	"qline-system/utils"
)

// Wait time classification bands, in minutes.
const (
	shortWaitMax    = 5
	moderateWaitMax = 15
)

// Rush hour windows in minutes since midnight: 08:00-10:00, 12:00-14:00,
// 17:00-19:00.
var rushWindows = [][2]int{
	{480, 600},
	{720, 840},
	{1020, 1140},
}

// PredictionService proxies wait time predictions to the external model
// service. Calls go through a circuit breaker; there is no retry.
type PredictionService struct {
	client  *http.Client
	baseURL string
	breaker *utils.CircuitBreaker
	monitor *monitoring.Monitor
}

func NewPredictionService(cfg *config.Config, monitor *monitoring.Monitor) *PredictionService {
	return &PredictionService{
		client:  &http.Client{Timeout: cfg.PredictorTimeout},
		baseURL: cfg.PredictorURL,
		breaker: utils.NewCircuitBreakerWithSettings("predictor", utils.Settings{
			MaxRequests:  20,
			FailureRatio: 0.5,
		}),
		monitor: monitor,
	}
}

// IsWeekend reports whether the day index (0=Monday) falls on a weekend.
func IsWeekend(dayOfWeek int) bool {
	return dayOfWeek >= 5
}

// IsRushHour reports whether a HH:MM clock string falls in a rush window.
// Unparseable input is treated as off-peak.
func IsRushHour(timeOfDay string) bool {
	clock, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return false
	}
	return isRushMinutes(clock.Hour()*60 + clock.Minute())
}

func isRushMinutes(minutes int) bool {
	for _, window := range rushWindows {
		if minutes >= window[0] && minutes < window[1] {
			return true
		}
	}
	return false
}

// Classify maps a predicted wait to its display band.
func Classify(waitMinutes float64) string {
	switch {
	case waitMinutes <= shortWaitMax:
		return "short"
	case waitMinutes <= moderateWaitMax:
		return "moderate"
	default:
		return "long"
	}
}

// Predict derives the weekend and rush hour flags from the submitted day and
// time, calls the predictor and classifies the result.
func (s *PredictionService) Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResult, error) {
	req.IsWeekend = IsWeekend(req.DayOfWeek)
	req.IsRushHour = IsRushHour(req.TimeOfDay)

	start := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.post(ctx, req)
	})
	if err != nil {
		s.monitor.TrackPrediction("error", time.Since(start))
		log.Printf("Prediction request failed: %v", err)
		return nil, status.ErrPredictionFailed
	}
	s.monitor.TrackPrediction("success", time.Since(start))

	resp := result.(*models.PredictionResponse)
	return &models.PredictionResult{
		PredictedWaitTime: resp.PredictedWaitTime,
		Category:          Classify(resp.PredictedWaitTime),
		IsWeekend:         req.IsWeekend,
		IsRushHour:        req.IsRushHour,
	}, nil
}

func (s *PredictionService) post(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp models.PredictionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, status.ErrPredictionFailed
	}

	return &resp, nil
}
