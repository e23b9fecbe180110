package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qline-system/models"
	"qline-system/status"
)

func setupTestSessionService() (*SessionService, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return NewSessionService(db, time.Hour), mock
}

func TestSessionService_Save_Client(t *testing.T) {
	service, mock := setupTestSessionService()
	defer mock.ClearExpect()

	mock.Regexp().ExpectSet(`clientData:[0-9A-F]{32}`, `.*`, time.Hour).SetVal("OK")

	token, err := service.Save(context.Background(), &models.SessionRecord{
		Role:       models.RoleClient,
		QueueID:    "SHOP001",
		CustomerID: "SHOP001-AAA",
	})

	require.NoError(t, err)
	assert.Len(t, token, 32)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionService_Save_Shopkeeper(t *testing.T) {
	service, mock := setupTestSessionService()
	defer mock.ClearExpect()

	mock.Regexp().ExpectSet(`shopkeeperData:[0-9A-F]{32}`, `.*`, time.Hour).SetVal("OK")

	token, err := service.Save(context.Background(), &models.SessionRecord{
		Role:     models.RoleShopkeeper,
		ShopID:   "SHOP001",
		Username: "admin",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionService_Load_Client(t *testing.T) {
	service, mock := setupTestSessionService()
	defer mock.ClearExpect()

	rec := models.SessionRecord{
		Role:       models.RoleClient,
		QueueID:    "SHOP001",
		CustomerID: "SHOP001-AAA",
	}
	data, err := json.Marshal(&rec)
	require.NoError(t, err)

	mock.ExpectGet("clientData:TOKEN1").SetVal(string(data))

	loaded, err := service.Load(context.Background(), "TOKEN1")

	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, loaded.Role)
	assert.Equal(t, "SHOP001-AAA", loaded.CustomerID)
}

func TestSessionService_Load_ShopkeeperSlot(t *testing.T) {
	service, mock := setupTestSessionService()
	defer mock.ClearExpect()

	rec := models.SessionRecord{
		Role:   models.RoleShopkeeper,
		ShopID: "SHOP001",
	}
	data, err := json.Marshal(&rec)
	require.NoError(t, err)

	// The client slot misses first, then the shopkeeper slot hits.
	mock.ExpectGet("clientData:TOKEN1").RedisNil()
	mock.ExpectGet("shopkeeperData:TOKEN1").SetVal(string(data))

	loaded, err := service.Load(context.Background(), "TOKEN1")

	require.NoError(t, err)
	assert.Equal(t, models.RoleShopkeeper, loaded.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionService_Load_NotFound(t *testing.T) {
	service, mock := setupTestSessionService()
	defer mock.ClearExpect()

	mock.ExpectGet("clientData:TOKEN1").RedisNil()
	mock.ExpectGet("shopkeeperData:TOKEN1").RedisNil()

	_, err := service.Load(context.Background(), "TOKEN1")

	assert.ErrorIs(t, err, status.ErrSessionNotFound)
}

func TestSessionService_Load_EmptyToken(t *testing.T) {
	service, mock := setupTestSessionService()
	defer mock.ClearExpect()

	_, err := service.Load(context.Background(), "")

	assert.ErrorIs(t, err, status.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionService_Clear(t *testing.T) {
	service, mock := setupTestSessionService()
	defer mock.ClearExpect()

	mock.ExpectDel("clientData:TOKEN1", "shopkeeperData:TOKEN1").SetVal(1)

	err := service.Clear(context.Background(), "TOKEN1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionService_Clear_EmptyToken(t *testing.T) {
	service, mock := setupTestSessionService()
	defer mock.ClearExpect()

	err := service.Clear(context.Background(), "")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
