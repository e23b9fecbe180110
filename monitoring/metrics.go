package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	queueLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_length_total",
			Help: "Current number of waiting customers per shop",
		},
		[]string{"shop_id"},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue operations",
		},
		[]string{"operation", "shop_id", "status"},
	)

	activeSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_sessions_total",
			Help: "Current number of live sessions per role",
		},
		[]string{"role"},
	)

	predictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prediction_request_duration_seconds",
			Help:    "Duration of calls to the wait time predictor",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()

		m.collectQueueMetrics(ctx)
		m.collectSessionMetrics(ctx)
	}
}

func (m *Monitor) collectQueueMetrics(ctx context.Context) {
	waitingKeys, _ := m.redis.Keys(ctx, "queue:waiting:*").Result()
	for _, key := range waitingKeys {
		shopID := key[len("queue:waiting:"):]
		length, _ := m.redis.LLen(ctx, key).Result()
		queueLength.WithLabelValues(shopID).Set(float64(length))
	}
}

func (m *Monitor) collectSessionMetrics(ctx context.Context) {
	clientKeys, _ := m.redis.Keys(ctx, "clientData:*").Result()
	activeSessions.WithLabelValues("client").Set(float64(len(clientKeys)))

	shopkeeperKeys, _ := m.redis.Keys(ctx, "shopkeeperData:*").Result()
	activeSessions.WithLabelValues("shopkeeper").Set(float64(len(shopkeeperKeys)))
}

// TrackQueueOperation counts a queue operation outcome. Safe on a nil monitor
// so services can run without metrics in tests.
func (m *Monitor) TrackQueueOperation(operation, shopID, status string) {
	if m == nil {
		return
	}
	queueOperations.WithLabelValues(operation, shopID, status).Inc()
}

// TrackPrediction records the latency of one predictor call.
func (m *Monitor) TrackPrediction(status string, duration time.Duration) {
	if m == nil {
		return
	}
	predictionDuration.WithLabelValues(status).Observe(duration.Seconds())
}
