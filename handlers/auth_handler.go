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

// sessionToken extracts the opaque session token from the request.
func sessionToken(e *core.RequestEvent) string {
	return e.Request.Header.Get("X-Session-Token")
}

type AuthHandler struct {
	app      *pocketbase.PocketBase
	auth     *services.AuthService
	sessions *services.SessionService
}

func NewAuthHandler(app *pocketbase.PocketBase, auth *services.AuthService, sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{
		app:      app,
		auth:     auth,
		sessions: sessions,
	}
}

func (h *AuthHandler) ClientLogin(e *core.RequestEvent) error {
	var req struct {
		QueueID      string `json:"queue_id"`
		CustomerName string `json:"customer_name"`
		PhoneNumber  string `json:"phone_number"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	token, rec, err := h.auth.ClientLogin(e.Request.Context(), req.QueueID, req.CustomerName, req.PhoneNumber)
	switch {
	case errors.Is(err, status.ErrMissingFields):
		return apis.NewBadRequestError("Please fill in all fields", err)
	case errors.Is(err, status.ErrQueueInactive):
		return apis.NewBadRequestError("Queue is currently inactive", err)
	case err != nil:
		return apis.NewBadRequestError("Login failed. Please try again.", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"token":   token,
		"session": rec,
		"view":    models.ResolveView(rec),
	})
}

func (h *AuthHandler) ShopkeeperLogin(e *core.RequestEvent) error {
	var req struct {
		ShopID   string `json:"shop_id"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	token, rec, err := h.auth.ShopkeeperLogin(e.Request.Context(), req.ShopID, req.Username, req.Password)
	if errors.Is(err, status.ErrInvalidCredentials) {
		return apis.NewUnauthorizedError("Invalid credentials", err)
	} else if err != nil {
		return apis.NewBadRequestError("Login failed. Please try again.", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"token":   token,
		"session": rec,
		"view":    models.ResolveView(rec),
	})
}

func (h *AuthHandler) Logout(e *core.RequestEvent) error {
	token := sessionToken(e)
	if token == "" {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	if err := h.auth.Logout(e.Request.Context(), token); err != nil {
		return apis.NewBadRequestError("Logout failed", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message": "Logged out",
		"view":    models.ViewLanding,
	})
}

// GetSession resolves the stored session, if any, to its initial view.
// Missing or expired sessions land on the landing page rather than erroring.
func (h *AuthHandler) GetSession(e *core.RequestEvent) error {
	rec, err := h.sessions.Load(e.Request.Context(), sessionToken(e))
	if errors.Is(err, status.ErrSessionNotFound) {
		return e.JSON(http.StatusOK, map[string]any{
			"session": nil,
			"view":    models.ViewLanding,
		})
	} else if err != nil {
		return apis.NewBadRequestError("Failed to load session", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"session": rec,
		"view":    models.ResolveView(rec),
	})
}
