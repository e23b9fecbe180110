package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"qline-system/models"
	"qline-system/services"
	"qline-system/status"
)

// ShopHandler serves the shopkeeper dashboard: the full snapshot plus the
// queue control commands.
type ShopHandler struct {
	app          *pocketbase.PocketBase
	queueService *services.QueueService
	stats        *services.StatsService
	sessions     *services.SessionService
}

func NewShopHandler(app *pocketbase.PocketBase, queueService *services.QueueService, stats *services.StatsService, sessions *services.SessionService) *ShopHandler {
	return &ShopHandler{
		app:          app,
		queueService: queueService,
		stats:        stats,
		sessions:     sessions,
	}
}

func (h *ShopHandler) requireShopkeeper(e *core.RequestEvent) (*models.SessionRecord, error) {
	rec, err := h.sessions.Load(e.Request.Context(), sessionToken(e))
	if err != nil || rec.Role != models.RoleShopkeeper {
		return nil, apis.NewUnauthorizedError("Shopkeeper access required", err)
	}
	return rec, nil
}

func (h *ShopHandler) GetQueue(e *core.RequestEvent) error {
	rec, err := h.requireShopkeeper(e)
	if err != nil {
		return err
	}

	snapshot, err := h.queueService.Snapshot(e.Request.Context(), rec.ShopID)
	if err != nil {
		return apis.NewBadRequestError("Failed to get queue", err)
	}

	return e.JSON(http.StatusOK, snapshot)
}

func (h *ShopHandler) ServeNext(e *core.RequestEvent) error {
	rec, err := h.requireShopkeeper(e)
	if err != nil {
		return err
	}

	entry, err := h.queueService.ServeNext(e.Request.Context(), rec.ShopID)
	if errors.Is(err, status.ErrQueueEmpty) {
		return e.JSON(http.StatusOK, map[string]any{
			"served":  nil,
			"message": "No customers in queue",
		})
	} else if err != nil {
		return apis.NewBadRequestError("Failed to serve next customer", err)
	}

	if err := h.stats.RecordServed(entry, time.Now().UTC()); err != nil {
		log.Printf("Error recording served customer %s: %v", entry.CustomerID, err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"served": entry,
	})
}

func (h *ShopHandler) ToggleActive(e *core.RequestEvent) error {
	rec, err := h.requireShopkeeper(e)
	if err != nil {
		return err
	}

	active, err := h.queueService.ToggleActive(e.Request.Context(), rec.ShopID)
	if err != nil {
		return apis.NewBadRequestError("Failed to toggle queue", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"is_active": active,
	})
}

func (h *ShopHandler) AdjustCounters(e *core.RequestEvent) error {
	rec, err := h.requireShopkeeper(e)
	if err != nil {
		return err
	}

	var req struct {
		Delta int `json:"delta"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	value, err := h.queueService.AdjustCounters(e.Request.Context(), rec.ShopID, req.Delta)
	if err != nil {
		return apis.NewBadRequestError("Failed to adjust counters", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"active_counters": value,
	})
}

func (h *ShopHandler) AdjustServiceTime(e *core.RequestEvent) error {
	rec, err := h.requireShopkeeper(e)
	if err != nil {
		return err
	}

	var req struct {
		Delta float64 `json:"delta"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	value, err := h.queueService.AdjustServiceTime(e.Request.Context(), rec.ShopID, decimal.NewFromFloat(req.Delta))
	if err != nil {
		return apis.NewBadRequestError("Failed to adjust service time", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"avg_service_time": value,
	})
}

func (h *ShopHandler) RemoveCustomer(e *core.RequestEvent) error {
	rec, err := h.requireShopkeeper(e)
	if err != nil {
		return err
	}

	var req struct {
		CustomerID string `json:"customer_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	err = h.queueService.Remove(e.Request.Context(), rec.ShopID, req.CustomerID)
	if errors.Is(err, status.ErrCustomerNotFound) {
		return apis.NewNotFoundError("Customer not found in queue", err)
	} else if err != nil {
		return apis.NewBadRequestError("Failed to remove customer", err)
	}

	log.Printf("Shopkeeper %s removed customer %s from shop %s", rec.Username, req.CustomerID, rec.ShopID)

	return e.JSON(http.StatusOK, map[string]any{
		"message": "Customer removed from queue",
	})
}

func (h *ShopHandler) GetStats(e *core.RequestEvent) error {
	rec, err := h.requireShopkeeper(e)
	if err != nil {
		return err
	}

	servedToday, err := h.queueService.ServedToday(e.Request.Context(), rec.ShopID)
	if err != nil {
		return apis.NewBadRequestError("Failed to get stats", err)
	}

	stats, err := h.stats.ShopStats(rec.ShopID, servedToday)
	if err != nil {
		return apis.NewBadRequestError("Failed to get stats", err)
	}

	return e.JSON(http.StatusOK, stats)
}
