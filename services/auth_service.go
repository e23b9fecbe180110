package services

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"qline-system/config"
	"qline-system/models"
	"qline-system/status"
)

// AuthService runs the two login flows. A customer login enqueues the
// customer into the authoritative queue; a shopkeeper login checks the
// configured credentials. Both produce a session record on success and
// nothing at all on failure.
type AuthService struct {
	sessions *SessionService
	queue    *QueueService

	shopkeeperUsername string
	shopkeeperHash     []byte
}

func NewAuthService(sessions *SessionService, queue *QueueService, cfg *config.Config) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.ShopkeeperPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		sessions:           sessions,
		queue:              queue,
		shopkeeperUsername: cfg.ShopkeeperUsername,
		shopkeeperHash:     hash,
	}, nil
}

// ClientLogin validates the three required fields, joins the queue and writes
// a client session. Any missing field fails before any state is touched.
func (s *AuthService) ClientLogin(ctx context.Context, queueID, name, phone string) (string, *models.SessionRecord, error) {
	if queueID == "" || name == "" || phone == "" {
		return "", nil, status.ErrMissingFields
	}

	if err := s.queue.EnsureQueue(ctx, queueID); err != nil {
		return "", nil, err
	}

	entry, err := s.queue.Join(ctx, queueID, name, phone)
	if err != nil {
		return "", nil, err
	}

	rec := &models.SessionRecord{
		Role:         models.RoleClient,
		QueueID:      queueID,
		CustomerID:   entry.CustomerID,
		CustomerName: name,
		PhoneNumber:  phone,
		JoinTime:     entry.JoinedAt,
	}

	token, err := s.sessions.Save(ctx, rec)
	if err != nil {
		return "", nil, err
	}

	log.Printf("Customer %s joined queue %s at position %d", entry.CustomerID, queueID, entry.Position)
	return token, rec, nil
}

// ShopkeeperLogin checks the configured username and password. Any other
// combination fails with a generic credential error and no session write.
func (s *AuthService) ShopkeeperLogin(ctx context.Context, shopID, username, password string) (string, *models.SessionRecord, error) {
	if username != s.shopkeeperUsername ||
		bcrypt.CompareHashAndPassword(s.shopkeeperHash, []byte(password)) != nil {
		return "", nil, status.ErrInvalidCredentials
	}

	if shopID == "" {
		shopID = DefaultShopID
	}

	if err := s.queue.EnsureQueue(ctx, shopID); err != nil {
		return "", nil, err
	}

	rec := &models.SessionRecord{
		Role:      models.RoleShopkeeper,
		ShopID:    shopID,
		Username:  username,
		LoginTime: time.Now().UTC(),
	}

	token, err := s.sessions.Save(ctx, rec)
	if err != nil {
		return "", nil, err
	}

	log.Printf("Shopkeeper %s logged in for shop %s", username, shopID)
	return token, rec, nil
}

// Logout clears the session. Clients are also removed from the queue, so
// logging out means leaving the line.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	rec, err := s.sessions.Load(ctx, token)
	if err != nil && !errors.Is(err, status.ErrSessionNotFound) {
		return err
	}

	if rec != nil && rec.Role == models.RoleClient && rec.CustomerID != "" {
		if err := s.queue.Remove(ctx, rec.QueueID, rec.CustomerID); err != nil &&
			!errors.Is(err, status.ErrCustomerNotFound) {
			log.Printf("Error removing customer %s on logout: %v", rec.CustomerID, err)
		}
	}

	return s.sessions.Clear(ctx, token)
}
