package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"qline-system/models"
	"qline-system/services"
)

type PredictionHandler struct {
	app        *pocketbase.PocketBase
	prediction *services.PredictionService
}

func NewPredictionHandler(app *pocketbase.PocketBase, prediction *services.PredictionService) *PredictionHandler {
	return &PredictionHandler{
		app:        app,
		prediction: prediction,
	}
}

func (h *PredictionHandler) Predict(e *core.RequestEvent) error {
	var req models.PredictionRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	result, err := h.prediction.Predict(e.Request.Context(), &req)
	if err != nil {
		return apis.NewApiError(http.StatusBadGateway, "Prediction service unavailable", err)
	}

	return e.JSON(http.StatusOK, result)
}
