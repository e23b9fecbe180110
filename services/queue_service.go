package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"qline-system/config"
	"qline-system/models"
	"qline-system/monitoring"
	"qline-system/status"
	"qline-system/utils"
)

// DefaultShopID is the demo shop every deployment starts with.
const DefaultShopID = "SHOP001"

const (
	minCounters = 1
	maxCounters = 5
)

var (
	minServiceTime = decimal.NewFromInt(1)
	maxServiceTime = decimal.NewFromInt(15)
	rushMultiplier = decimal.NewFromFloat(1.2)
)

// QueueService owns the authoritative queue state for all shops. Both the
// customer and shopkeeper endpoints read and mutate it through here; there is
// no second copy of the queue anywhere.
type QueueService struct {
	Redis   *redis.Client
	Config  *config.Config
	pubnub  *pubnub.PubNub
	monitor *monitoring.Monitor
}

func NewQueueService(redisClient *redis.Client, pn *pubnub.PubNub, monitor *monitoring.Monitor, cfg *config.Config) *QueueService {
	return &QueueService{
		Redis:   redisClient,
		Config:  cfg,
		pubnub:  pn,
		monitor: monitor,
	}
}

func waitingKey(shopID string) string {
	return fmt.Sprintf("queue:waiting:%s", shopID)
}

func settingsKey(shopID string) string {
	return fmt.Sprintf("queue:settings:%s", shopID)
}

func servedKey(shopID string) string {
	return fmt.Sprintf("queue:served:%s", shopID)
}

func positionKey(shopID, customerID string) string {
	return fmt.Sprintf("queue:position:%s:%s", shopID, customerID)
}

// EnsureQueue registers a shop and seeds its settings if they do not exist.
func (s *QueueService) EnsureQueue(ctx context.Context, shopID string) error {
	if err := s.Redis.SAdd(ctx, "active_shops", shopID).Err(); err != nil {
		return err
	}

	key := settingsKey(shopID)
	if err := s.Redis.HSetNX(ctx, key, "active_counters", s.Config.DefaultCounters).Err(); err != nil {
		return err
	}
	if err := s.Redis.HSetNX(ctx, key, "avg_service_time", s.Config.DefaultServiceTime).Err(); err != nil {
		return err
	}
	return s.Redis.HSetNX(ctx, key, "is_active", "true").Err()
}

// ActiveShops lists every shop that has a registered queue.
func (s *QueueService) ActiveShops(ctx context.Context) ([]string, error) {
	return s.Redis.SMembers(ctx, "active_shops").Result()
}

// Length returns the number of waiting customers.
func (s *QueueService) Length(ctx context.Context, shopID string) (int, error) {
	length, err := s.Redis.LLen(ctx, waitingKey(shopID)).Result()
	return int(length), err
}

// Settings loads the queue settings, falling back to configured defaults for
// any missing field.
func (s *QueueService) Settings(ctx context.Context, shopID string) (*models.QueueSettings, error) {
	values, err := s.Redis.HGetAll(ctx, settingsKey(shopID)).Result()
	if err != nil {
		return nil, err
	}

	settings := &models.QueueSettings{
		ActiveCounters: s.Config.DefaultCounters,
		IsActive:       true,
	}
	settings.AvgServiceTime, _ = decimal.NewFromString(s.Config.DefaultServiceTime)

	if v, ok := values["active_counters"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			settings.ActiveCounters = n
		}
	}
	if v, ok := values["avg_service_time"]; ok {
		if d, err := decimal.NewFromString(v); err == nil {
			settings.AvgServiceTime = d
		}
	}
	if v, ok := values["is_active"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.IsActive = b
		}
	}

	return settings, nil
}

// Join appends a new customer at the tail of the queue. Joining a paused
// queue is rejected.
func (s *QueueService) Join(ctx context.Context, shopID, name, phone string) (*models.QueueEntry, error) {
	settings, err := s.Settings(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !settings.IsActive {
		return nil, status.ErrQueueInactive
	}

	code, err := utils.GenerateCode(6)
	if err != nil {
		return nil, err
	}

	entry := &models.QueueEntry{
		CustomerID: fmt.Sprintf("%s-%s", shopID, code),
		ShopID:     shopID,
		Name:       name,
		Phone:      phone,
		JoinedAt:   time.Now().UTC(),
	}

	if err := s.push(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// push stamps the entry position from the current tail and appends it.
func (s *QueueService) push(ctx context.Context, entry *models.QueueEntry) error {
	key := waitingKey(entry.ShopID)

	length, err := s.Redis.LLen(ctx, key).Result()
	if err != nil {
		return err
	}
	entry.Position = int(length) + 1

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := s.Redis.RPush(ctx, key, data).Err(); err != nil {
		return err
	}

	s.monitor.TrackQueueOperation("join", entry.ShopID, "success")
	s.notifyShop(entry.ShopID, map[string]any{
		"type":        "customer_joined",
		"customer_id": entry.CustomerID,
		"name":        entry.Name,
		"position":    entry.Position,
	})

	return nil
}

// ServeNext pops the head of the queue, renumbers the remaining entries from 1
// and increments the served counter. An empty queue is left untouched.
func (s *QueueService) ServeNext(ctx context.Context, shopID string) (*models.QueueEntry, error) {
	key := waitingKey(shopID)

	length, err := s.Redis.LLen(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, status.ErrQueueEmpty
	}

	data, err := s.Redis.LPop(ctx, key).Result()
	if err == redis.Nil {
		return nil, status.ErrQueueEmpty
	} else if err != nil {
		return nil, err
	}

	var entry models.QueueEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}

	if err := s.renumber(ctx, shopID); err != nil {
		log.Printf("Error renumbering queue for shop %s: %v", shopID, err)
	}

	served, err := s.Redis.Incr(ctx, servedKey(shopID)).Result()
	if err != nil {
		log.Printf("Error incrementing served counter for shop %s: %v", shopID, err)
	}

	s.monitor.TrackQueueOperation("serve", shopID, "success")
	s.notifyCustomer(entry.CustomerID, map[string]any{
		"type":    "your_turn",
		"shop_id": shopID,
		"message": "It's your turn! Please proceed to the counter.",
	})
	s.notifyShop(shopID, map[string]any{
		"type":         "customer_served",
		"customer_id":  entry.CustomerID,
		"served_today": served,
	})

	return &entry, nil
}

// Remove drops a customer from anywhere in the queue and renumbers.
func (s *QueueService) Remove(ctx context.Context, shopID, customerID string) error {
	key := waitingKey(shopID)

	entries, err := s.Redis.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}

	var match string
	for _, raw := range entries {
		var entry models.QueueEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry.CustomerID == customerID {
			match = raw
			break
		}
	}
	if match == "" {
		return status.ErrCustomerNotFound
	}

	if err := s.Redis.LRem(ctx, key, 1, match).Err(); err != nil {
		return err
	}
	if err := s.renumber(ctx, shopID); err != nil {
		return err
	}

	s.monitor.TrackQueueOperation("leave", shopID, "success")
	s.notifyShop(shopID, map[string]any{
		"type":        "customer_left",
		"customer_id": customerID,
	})

	return nil
}

// renumber rewrites stored positions so they form a contiguous 1..N sequence
// matching list order.
func (s *QueueService) renumber(ctx context.Context, shopID string) error {
	key := waitingKey(shopID)

	entries, err := s.Redis.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}

	for i, raw := range entries {
		var entry models.QueueEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry.Position == i+1 {
			continue
		}

		entry.Position = i + 1
		data, err := json.Marshal(&entry)
		if err != nil {
			continue
		}
		if err := s.Redis.LSet(ctx, key, int64(i), data).Err(); err != nil {
			return err
		}
	}

	return nil
}

// ToggleActive flips the active flag and returns the new value. Background
// timers are unaffected.
func (s *QueueService) ToggleActive(ctx context.Context, shopID string) (bool, error) {
	settings, err := s.Settings(ctx, shopID)
	if err != nil {
		return false, err
	}

	next := !settings.IsActive
	if err := s.Redis.HSet(ctx, settingsKey(shopID), "is_active", strconv.FormatBool(next)).Err(); err != nil {
		return false, err
	}

	return next, nil
}

// AdjustCounters applies an integer step to the active counter count,
// clamped to [1,5].
func (s *QueueService) AdjustCounters(ctx context.Context, shopID string, delta int) (int, error) {
	settings, err := s.Settings(ctx, shopID)
	if err != nil {
		return 0, err
	}

	value := settings.ActiveCounters + delta
	if value < minCounters {
		value = minCounters
	}
	if value > maxCounters {
		value = maxCounters
	}

	if err := s.Redis.HSet(ctx, settingsKey(shopID), "active_counters", value).Err(); err != nil {
		return 0, err
	}

	return value, nil
}

// AdjustServiceTime applies a fractional step to the average service time,
// clamped to [1,15] minutes.
func (s *QueueService) AdjustServiceTime(ctx context.Context, shopID string, delta decimal.Decimal) (decimal.Decimal, error) {
	settings, err := s.Settings(ctx, shopID)
	if err != nil {
		return decimal.Zero, err
	}

	value := settings.AvgServiceTime.Add(delta)
	if value.LessThan(minServiceTime) {
		value = minServiceTime
	}
	if value.GreaterThan(maxServiceTime) {
		value = maxServiceTime
	}

	if err := s.Redis.HSet(ctx, settingsKey(shopID), "avg_service_time", value.String()).Err(); err != nil {
		return decimal.Zero, err
	}

	return value, nil
}

// ServedToday returns the served counter, zero when never incremented.
func (s *QueueService) ServedToday(ctx context.Context, shopID string) (int, error) {
	served, err := s.Redis.Get(ctx, servedKey(shopID)).Int()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return served, nil
}

// Snapshot builds the full shopkeeper view. Waiting minutes are derived from
// join timestamps at read time, never stored.
func (s *QueueService) Snapshot(ctx context.Context, shopID string) (*models.QueueSnapshot, error) {
	settings, err := s.Settings(ctx, shopID)
	if err != nil {
		return nil, err
	}

	entries, err := s.Redis.LRange(ctx, waitingKey(shopID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	served, err := s.ServedToday(ctx, shopID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	snapshot := &models.QueueSnapshot{
		ShopID:         shopID,
		Entries:        make([]models.QueueEntryView, 0, len(entries)),
		ActiveCounters: settings.ActiveCounters,
		AvgServiceTime: settings.AvgServiceTime,
		IsActive:       settings.IsActive,
		ServedToday:    served,
		LastUpdated:    now,
	}

	for _, raw := range entries {
		var entry models.QueueEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		snapshot.Entries = append(snapshot.Entries, models.QueueEntryView{
			QueueEntry:     entry,
			WaitingMinutes: int(now.Sub(entry.JoinedAt).Minutes()),
		})
	}

	return snapshot, nil
}

// CustomerStatus is the customer projection: own position, estimated wait and
// total queue size. A served or departed customer reports position 0.
func (s *QueueService) CustomerStatus(ctx context.Context, shopID, customerID string) (*models.CustomerStatus, error) {
	settings, err := s.Settings(ctx, shopID)
	if err != nil {
		return nil, err
	}

	entries, err := s.Redis.LRange(ctx, waitingKey(shopID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	position := 0
	for i, raw := range entries {
		var entry models.QueueEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry.CustomerID == customerID {
			position = i + 1
			break
		}
	}

	st := &models.CustomerStatus{
		Position:     position,
		TotalInQueue: len(entries),
		IsActive:     settings.IsActive,
		LastUpdated:  time.Now().UTC(),
	}
	if position > 0 {
		st.EstimatedWait = EstimateWait(position, settings, time.Now())
	}

	return st, nil
}

// EstimateWait returns the expected wait in minutes for a queue position.
// Customers ahead are spread across active counters; rush hours add 20%.
func EstimateWait(position int, settings *models.QueueSettings, now time.Time) float64 {
	if position <= 0 {
		return 0
	}

	counters := settings.ActiveCounters
	if counters < minCounters {
		counters = minCounters
	}

	ahead := decimal.NewFromInt(int64(position - 1))
	wait := ahead.Div(decimal.NewFromInt(int64(counters))).Mul(settings.AvgServiceTime)

	if isRushMinutes(now.Hour()*60 + now.Minute()) {
		wait = wait.Mul(rushMultiplier)
	}

	value, _ := wait.Round(1).Float64()
	return value
}

// UpdateQueuePositions republishes every waiting customer's position on a
// fixed interval until the context is cancelled. This is the push half of the
// periodic snapshot delivery contract; polling endpoints are the other half.
func (s *QueueService) UpdateQueuePositions(ctx context.Context) {
	ticker := time.NewTicker(s.Config.QueuePositionUpdate)
	defer ticker.Stop()

	log.Println("Queue position updater started")

	for {
		select {
		case <-ticker.C:
			s.publishAllPositions(ctx)
		case <-ctx.Done():
			log.Println("Queue position updater stopping")
			return
		}
	}
}

func (s *QueueService) publishAllPositions(ctx context.Context) {
	shops, err := s.ActiveShops(ctx)
	if err != nil {
		log.Printf("Error getting active shops: %v", err)
		return
	}

	for _, shopID := range shops {
		settings, err := s.Settings(ctx, shopID)
		if err != nil {
			continue
		}

		entries, err := s.Redis.LRange(ctx, waitingKey(shopID), 0, -1).Result()
		if err != nil {
			continue
		}

		for i, raw := range entries {
			var entry models.QueueEntry
			if err := json.Unmarshal([]byte(raw), &entry); err != nil {
				continue
			}

			position := i + 1

			// Position echo with TTL so polling reads survive updater gaps
			s.Redis.Set(ctx, positionKey(shopID, entry.CustomerID), position, 3*s.Config.QueuePositionUpdate)

			s.notifyCustomer(entry.CustomerID, map[string]any{
				"type":           "queue_position",
				"shop_id":        shopID,
				"position":       position,
				"estimated_wait": EstimateWait(position, settings, time.Now()),
				"total_in_queue": len(entries),
			})
		}
	}
}

func (s *QueueService) notifyCustomer(customerID string, message map[string]any) {
	if s.pubnub == nil {
		return
	}
	s.pubnub.Publish().
		Channel(fmt.Sprintf("customer-%s", customerID)).
		Message(message).
		Execute()
}

func (s *QueueService) notifyShop(shopID string, message map[string]any) {
	if s.pubnub == nil {
		return
	}
	s.pubnub.Publish().
		Channel(fmt.Sprintf("shop-%s", shopID)).
		Message(message).
		Execute()
}
