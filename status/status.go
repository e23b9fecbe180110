package status

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrMissingFields      = errors.New("auth: missing required fields")
	ErrSessionNotFound    = errors.New("session: session not found")
	ErrQueueInactive      = errors.New("queue: queue is currently inactive")
	ErrQueueEmpty         = errors.New("queue: queue is empty")
	ErrCustomerNotFound   = errors.New("queue: customer not found")
	ErrPredictionFailed   = errors.New("prediction: prediction request failed")
)
