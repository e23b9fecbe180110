package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qline-system/models"
	"qline-system/status"
	"qline-system/utils"
)

// SessionService persists login sessions in Redis under the two role slots,
// clientData and shopkeeperData, keyed by an opaque token. The lifecycle is
// explicit: Save on login, Load on every request, Clear on logout.
type SessionService struct {
	Redis *redis.Client
	ttl   time.Duration
}

func NewSessionService(redisClient *redis.Client, ttl time.Duration) *SessionService {
	return &SessionService{
		Redis: redisClient,
		ttl:   ttl,
	}
}

func clientDataKey(token string) string {
	return fmt.Sprintf("clientData:%s", token)
}

func shopkeeperDataKey(token string) string {
	return fmt.Sprintf("shopkeeperData:%s", token)
}

func recordKey(rec *models.SessionRecord, token string) string {
	if rec.Role == models.RoleShopkeeper {
		return shopkeeperDataKey(token)
	}
	return clientDataKey(token)
}

// Save writes the record and returns its freshly generated token.
func (s *SessionService) Save(ctx context.Context, rec *models.SessionRecord) (string, error) {
	token, err := utils.GenerateCode(16)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}

	if err := s.Redis.Set(ctx, recordKey(rec, token), data, s.ttl).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Load resolves a token against both role slots.
func (s *SessionService) Load(ctx context.Context, token string) (*models.SessionRecord, error) {
	if token == "" {
		return nil, status.ErrSessionNotFound
	}

	for _, key := range []string{clientDataKey(token), shopkeeperDataKey(token)} {
		data, err := s.Redis.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		} else if err != nil {
			return nil, err
		}

		var rec models.SessionRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, err
		}
		return &rec, nil
	}

	return nil, status.ErrSessionNotFound
}

// Clear removes both role slots for the token.
func (s *SessionService) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.Redis.Del(ctx, clientDataKey(token), shopkeeperDataKey(token)).Err()
}
