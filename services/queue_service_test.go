package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qline-system/config"
	"qline-system/models"
	"qline-system/status"
)

func setupTestQueueService() (*QueueService, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	cfg := &config.Config{
		DefaultCounters:     2,
		DefaultServiceTime:  "4.0",
		QueuePositionUpdate: 5 * time.Second,
	}

	service := &QueueService{
		Redis:  db,
		Config: cfg,
	}

	return service, mock
}

func testEntry(customerID string, position int) models.QueueEntry {
	return models.QueueEntry{
		CustomerID: customerID,
		ShopID:     "SHOP001",
		Name:       "Mike Wilson",
		Phone:      "+1234561234",
		JoinedAt:   time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
		Position:   position,
	}
}

func marshalEntry(t *testing.T, entry models.QueueEntry) []byte {
	t.Helper()
	data, err := json.Marshal(&entry)
	require.NoError(t, err)
	return data
}

func activeSettings() map[string]string {
	return map[string]string{
		"active_counters":  "2",
		"avg_service_time": "4.0",
		"is_active":        "true",
	}
}

func TestQueueService_EnsureQueue(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	mock.ExpectSAdd("active_shops", "SHOP001").SetVal(1)
	mock.ExpectHSetNX("queue:settings:SHOP001", "active_counters", 2).SetVal(true)
	mock.ExpectHSetNX("queue:settings:SHOP001", "avg_service_time", "4.0").SetVal(true)
	mock.ExpectHSetNX("queue:settings:SHOP001", "is_active", "true").SetVal(true)

	err := service.EnsureQueue(context.Background(), "SHOP001")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueService_Settings_Defaults(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	mock.ExpectHGetAll("queue:settings:SHOP001").SetVal(map[string]string{})

	settings, err := service.Settings(context.Background(), "SHOP001")

	require.NoError(t, err)
	assert.Equal(t, 2, settings.ActiveCounters)
	assert.True(t, settings.AvgServiceTime.Equal(decimal.NewFromFloat(4.0)))
	assert.True(t, settings.IsActive)
}

func TestQueueService_Join_Success(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	mock.ExpectHGetAll("queue:settings:SHOP001").SetVal(activeSettings())
	mock.ExpectLLen("queue:waiting:SHOP001").SetVal(2)
	mock.Regexp().ExpectRPush("queue:waiting:SHOP001", `.*`).SetVal(3)

	entry, err := service.Join(context.Background(), "SHOP001", "Sarah Davis", "+1234567890")

	require.NoError(t, err)
	assert.Equal(t, 3, entry.Position)
	assert.Equal(t, "SHOP001", entry.ShopID)
	assert.Regexp(t, `^SHOP001-[0-9A-F]{12}$`, entry.CustomerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueService_Join_InactiveQueue(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	settings := activeSettings()
	settings["is_active"] = "false"
	mock.ExpectHGetAll("queue:settings:SHOP001").SetVal(settings)

	_, err := service.Join(context.Background(), "SHOP001", "Sarah Davis", "+1234567890")

	assert.ErrorIs(t, err, status.ErrQueueInactive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueService_ServeNext_Success(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	first := testEntry("SHOP001-AAA", 1)
	second := testEntry("SHOP001-BBB", 2)
	third := testEntry("SHOP001-CCC", 3)

	mock.ExpectLLen("queue:waiting:SHOP001").SetVal(3)
	mock.ExpectLPop("queue:waiting:SHOP001").SetVal(string(marshalEntry(t, first)))

	// Renumbering shifts the two remaining entries up by one.
	mock.ExpectLRange("queue:waiting:SHOP001", 0, -1).SetVal([]string{
		string(marshalEntry(t, second)),
		string(marshalEntry(t, third)),
	})
	renumberedSecond := second
	renumberedSecond.Position = 1
	renumberedThird := third
	renumberedThird.Position = 2
	mock.ExpectLSet("queue:waiting:SHOP001", 0, marshalEntry(t, renumberedSecond)).SetVal("OK")
	mock.ExpectLSet("queue:waiting:SHOP001", 1, marshalEntry(t, renumberedThird)).SetVal("OK")

	mock.ExpectIncr("queue:served:SHOP001").SetVal(1)

	entry, err := service.ServeNext(context.Background(), "SHOP001")

	require.NoError(t, err)
	assert.Equal(t, "SHOP001-AAA", entry.CustomerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueService_ServeNext_EmptyQueue(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	mock.ExpectLLen("queue:waiting:SHOP001").SetVal(0)

	_, err := service.ServeNext(context.Background(), "SHOP001")

	assert.ErrorIs(t, err, status.ErrQueueEmpty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueService_Remove_Success(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	first := testEntry("SHOP001-AAA", 1)
	second := testEntry("SHOP001-BBB", 2)

	mock.ExpectLRange("queue:waiting:SHOP001", 0, -1).SetVal([]string{
		string(marshalEntry(t, first)),
		string(marshalEntry(t, second)),
	})
	mock.ExpectLRem("queue:waiting:SHOP001", 1, string(marshalEntry(t, first))).SetVal(1)

	mock.ExpectLRange("queue:waiting:SHOP001", 0, -1).SetVal([]string{
		string(marshalEntry(t, second)),
	})
	renumbered := second
	renumbered.Position = 1
	mock.ExpectLSet("queue:waiting:SHOP001", 0, marshalEntry(t, renumbered)).SetVal("OK")

	err := service.Remove(context.Background(), "SHOP001", "SHOP001-AAA")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueService_Remove_NotFound(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	mock.ExpectLRange("queue:waiting:SHOP001", 0, -1).SetVal([]string{
		string(marshalEntry(t, testEntry("SHOP001-AAA", 1))),
	})

	err := service.Remove(context.Background(), "SHOP001", "SHOP001-ZZZ")

	assert.ErrorIs(t, err, status.ErrCustomerNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueService_ToggleActive(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	mock.ExpectHGetAll("queue:settings:SHOP001").SetVal(activeSettings())
	mock.ExpectHSet("queue:settings:SHOP001", "is_active", "false").SetVal(1)

	active, err := service.ToggleActive(context.Background(), "SHOP001")

	require.NoError(t, err)
	assert.False(t, active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueService_AdjustCounters_Clamping(t *testing.T) {
	tests := []struct {
		name    string
		current string
		delta   int
		want    int
	}{
		{"increment", "2", 1, 3},
		{"decrement", "3", -1, 2},
		{"clamped at max", "5", 1, 5},
		{"clamped at min", "1", -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mock := setupTestQueueService()
			defer mock.ClearExpect()

			settings := activeSettings()
			settings["active_counters"] = tt.current
			mock.ExpectHGetAll("queue:settings:SHOP001").SetVal(settings)
			mock.ExpectHSet("queue:settings:SHOP001", "active_counters", tt.want).SetVal(1)

			value, err := service.AdjustCounters(context.Background(), "SHOP001", tt.delta)

			require.NoError(t, err)
			assert.Equal(t, tt.want, value)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQueueService_AdjustServiceTime_Clamping(t *testing.T) {
	tests := []struct {
		name    string
		current string
		delta   float64
		want    string
	}{
		{"increment", "4.0", 0.5, "4.5"},
		{"decrement", "4.5", -0.5, "4"},
		{"clamped at max", "15", 0.5, "15"},
		{"clamped at min", "1", -0.5, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mock := setupTestQueueService()
			defer mock.ClearExpect()

			settings := activeSettings()
			settings["avg_service_time"] = tt.current
			mock.ExpectHGetAll("queue:settings:SHOP001").SetVal(settings)
			mock.ExpectHSet("queue:settings:SHOP001", "avg_service_time", tt.want).SetVal(1)

			value, err := service.AdjustServiceTime(context.Background(), "SHOP001", decimal.NewFromFloat(tt.delta))

			require.NoError(t, err)
			assert.Equal(t, tt.want, value.String())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQueueService_ServedToday(t *testing.T) {
	t.Run("counter set", func(t *testing.T) {
		service, mock := setupTestQueueService()
		defer mock.ClearExpect()

		mock.ExpectGet("queue:served:SHOP001").SetVal("7")

		served, err := service.ServedToday(context.Background(), "SHOP001")

		require.NoError(t, err)
		assert.Equal(t, 7, served)
	})

	t.Run("never incremented", func(t *testing.T) {
		service, mock := setupTestQueueService()
		defer mock.ClearExpect()

		mock.ExpectGet("queue:served:SHOP001").RedisNil()

		served, err := service.ServedToday(context.Background(), "SHOP001")

		require.NoError(t, err)
		assert.Equal(t, 0, served)
	})
}

func TestQueueService_CustomerStatus(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	mock.ExpectHGetAll("queue:settings:SHOP001").SetVal(activeSettings())
	mock.ExpectLRange("queue:waiting:SHOP001", 0, -1).SetVal([]string{
		string(marshalEntry(t, testEntry("SHOP001-AAA", 1))),
		string(marshalEntry(t, testEntry("SHOP001-BBB", 2))),
	})

	st, err := service.CustomerStatus(context.Background(), "SHOP001", "SHOP001-BBB")

	require.NoError(t, err)
	assert.Equal(t, 2, st.Position)
	assert.Equal(t, 2, st.TotalInQueue)
	assert.True(t, st.IsActive)
	// One customer ahead across two counters: 2.0 minutes, 2.4 in rush hours.
	assert.Contains(t, []float64{2.0, 2.4}, st.EstimatedWait)
}

func TestQueueService_CustomerStatus_Departed(t *testing.T) {
	service, mock := setupTestQueueService()
	defer mock.ClearExpect()

	mock.ExpectHGetAll("queue:settings:SHOP001").SetVal(activeSettings())
	mock.ExpectLRange("queue:waiting:SHOP001", 0, -1).SetVal([]string{
		string(marshalEntry(t, testEntry("SHOP001-AAA", 1))),
	})

	st, err := service.CustomerStatus(context.Background(), "SHOP001", "SHOP001-GONE")

	require.NoError(t, err)
	assert.Equal(t, 0, st.Position)
	assert.Equal(t, 0.0, st.EstimatedWait)
	assert.Equal(t, 1, st.TotalInQueue)
}

func TestEstimateWait(t *testing.T) {
	settings := &models.QueueSettings{
		ActiveCounters: 2,
		AvgServiceTime: decimal.NewFromFloat(4.0),
		IsActive:       true,
	}

	offPeak := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)
	rush := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, EstimateWait(0, settings, offPeak))
	assert.Equal(t, 0.0, EstimateWait(1, settings, offPeak))
	assert.Equal(t, 2.0, EstimateWait(2, settings, offPeak))
	assert.Equal(t, 2.4, EstimateWait(2, settings, rush))
	assert.Equal(t, 8.0, EstimateWait(5, settings, offPeak))

	// Zero counters are treated as one.
	single := &models.QueueSettings{AvgServiceTime: decimal.NewFromFloat(4.0)}
	assert.Equal(t, 8.0, EstimateWait(3, single, offPeak))
}
