package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"qline-system/models"
	"qline-system/services"
	"qline-system/status"
)

// QueueHandler serves the customer projection of the queue.
type QueueHandler struct {
	app          *pocketbase.PocketBase
	queueService *services.QueueService
	sessions     *services.SessionService
}

func NewQueueHandler(app *pocketbase.PocketBase, queueService *services.QueueService, sessions *services.SessionService) *QueueHandler {
	return &QueueHandler{
		app:          app,
		queueService: queueService,
		sessions:     sessions,
	}
}

func (h *QueueHandler) requireClient(e *core.RequestEvent) (*models.SessionRecord, error) {
	rec, err := h.sessions.Load(e.Request.Context(), sessionToken(e))
	if err != nil || rec.Role != models.RoleClient {
		return nil, apis.NewUnauthorizedError("Unauthorized", err)
	}
	return rec, nil
}

func (h *QueueHandler) GetStatus(e *core.RequestEvent) error {
	rec, err := h.requireClient(e)
	if err != nil {
		return err
	}

	st, err := h.queueService.CustomerStatus(e.Request.Context(), rec.QueueID, rec.CustomerID)
	if err != nil {
		return apis.NewBadRequestError("Failed to get queue status", err)
	}

	return e.JSON(http.StatusOK, st)
}

// Refresh re-reads the authoritative state and re-stamps the last-updated
// time. It is the manual counterpart of the periodic position push.
func (h *QueueHandler) Refresh(e *core.RequestEvent) error {
	return h.GetStatus(e)
}

func (h *QueueHandler) Leave(e *core.RequestEvent) error {
	rec, err := h.requireClient(e)
	if err != nil {
		return err
	}

	err = h.queueService.Remove(e.Request.Context(), rec.QueueID, rec.CustomerID)
	if err != nil && !errors.Is(err, status.ErrCustomerNotFound) {
		return apis.NewBadRequestError("Failed to leave queue", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message": "Left queue",
	})
}
