package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qline-system/models"
	"qline-system/status"
	"qline-system/utils"
)

func newTestPredictionService(srv *httptest.Server) *PredictionService {
	return &PredictionService{
		client:  srv.Client(),
		baseURL: srv.URL,
		breaker: utils.NewCircuitBreaker("test"),
	}
}

func TestIsWeekend(t *testing.T) {
	for day := 0; day < 5; day++ {
		assert.False(t, IsWeekend(day), "day %d", day)
	}
	assert.True(t, IsWeekend(5))
	assert.True(t, IsWeekend(6))
}

func TestIsRushHour(t *testing.T) {
	tests := []struct {
		timeOfDay string
		want      bool
	}{
		{"07:59", false},
		{"08:00", true},
		{"09:30", true},
		{"10:00", false},
		{"11:00", false},
		{"12:00", true},
		{"13:59", true},
		{"14:00", false},
		{"17:00", true},
		{"18:30", true},
		{"19:00", false},
		{"23:00", false},
		{"not-a-time", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRushHour(tt.timeOfDay), "time %s", tt.timeOfDay)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "short", Classify(0))
	assert.Equal(t, "short", Classify(3))
	assert.Equal(t, "short", Classify(5))
	assert.Equal(t, "moderate", Classify(5.1))
	assert.Equal(t, "moderate", Classify(12))
	assert.Equal(t, "moderate", Classify(15))
	assert.Equal(t, "long", Classify(15.1))
	assert.Equal(t, "long", Classify(40))
}

func TestPredictionService_Predict_Success(t *testing.T) {
	var received models.PredictionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(models.PredictionResponse{
			Status:            "success",
			PredictedWaitTime: 7.5,
			Unit:              "minutes",
		})
	}))
	defer srv.Close()

	service := newTestPredictionService(srv)

	result, err := service.Predict(context.Background(), &models.PredictionRequest{
		CurrentQueueLength:            4,
		NumberOfActiveCounters:        2,
		AverageServiceTimePerCustomer: 4.0,
		TimeOfDay:                     "09:00",
		DayOfWeek:                     6,
	})

	require.NoError(t, err)
	assert.Equal(t, 7.5, result.PredictedWaitTime)
	assert.Equal(t, "moderate", result.Category)
	assert.True(t, result.IsWeekend)
	assert.True(t, result.IsRushHour)

	// Derived flags are forwarded to the predictor, not trusted from the caller.
	assert.True(t, received.IsWeekend)
	assert.True(t, received.IsRushHour)
}

func TestPredictionService_Predict_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.PredictionResponse{
			Status: "error",
			Error:  "model not loaded",
		})
	}))
	defer srv.Close()

	service := newTestPredictionService(srv)

	_, err := service.Predict(context.Background(), &models.PredictionRequest{
		TimeOfDay: "11:00",
		DayOfWeek: 2,
	})

	assert.ErrorIs(t, err, status.ErrPredictionFailed)
}

func TestPredictionService_Predict_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	service := newTestPredictionService(srv)

	_, err := service.Predict(context.Background(), &models.PredictionRequest{
		TimeOfDay: "11:00",
		DayOfWeek: 2,
	})

	assert.ErrorIs(t, err, status.ErrPredictionFailed)
}
