package services

import (
	"context"
	"log"
	"math/rand"
	"time"

	"qline-system/config"
	"qline-system/models"
	"qline-system/utils"
)

// Synthetic walk-in pool for demo deployments.
var arrivalNames = []string{
	"Mike Wilson",
	"Sarah Davis",
	"Tom Anderson",
	"Lisa Garcia",
	"David Martinez",
}

// ArrivalSimulator feeds demo queues with synthetic walk-ins: each tick it
// appends, with configured probability, one customer to every shop whose
// queue is below the cap. It deliberately ignores the active flag; pausing a
// queue stops real joins, not demo traffic.
type ArrivalSimulator struct {
	queue *QueueService
	cfg   *config.Config
}

func NewArrivalSimulator(queue *QueueService, cfg *config.Config) *ArrivalSimulator {
	return &ArrivalSimulator{
		queue: queue,
		cfg:   cfg,
	}
}

func (s *ArrivalSimulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ArrivalInterval)
	defer ticker.Stop()

	log.Println("Arrival simulator started")

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			log.Println("Arrival simulator stopping")
			return
		}
	}
}

func (s *ArrivalSimulator) tick(ctx context.Context) {
	shops, err := s.queue.ActiveShops(ctx)
	if err != nil {
		log.Printf("Error getting active shops: %v", err)
		return
	}

	for _, shopID := range shops {
		if rand.Float64() >= s.cfg.ArrivalProbability {
			continue
		}

		length, err := s.queue.Length(ctx, shopID)
		if err != nil || length >= s.cfg.QueueCap {
			continue
		}

		if entry, err := s.spawnArrival(ctx, shopID); err != nil {
			log.Printf("Error simulating arrival for shop %s: %v", shopID, err)
		} else {
			log.Printf("Simulated arrival: %s joined shop %s at position %d", entry.Name, shopID, entry.Position)
		}
	}
}

func (s *ArrivalSimulator) spawnArrival(ctx context.Context, shopID string) (*models.QueueEntry, error) {
	code, err := utils.GenerateCode(6)
	if err != nil {
		return nil, err
	}
	suffix, err := utils.GenerateDigits(4)
	if err != nil {
		return nil, err
	}

	entry := &models.QueueEntry{
		CustomerID: shopID + "-" + code,
		ShopID:     shopID,
		Name:       arrivalNames[rand.Intn(len(arrivalNames))],
		Phone:      "+123456" + suffix,
		JoinedAt:   time.Now().UTC(),
	}

	if err := s.queue.push(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
