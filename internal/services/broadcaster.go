package services

import "casino-engine-backend/internal/models"

// Broadcaster pushes live settlement events to connected clients.
type Broadcaster interface {
	BroadcastBetSettled(accountID string, result *models.BetResult)
	BroadcastBalance(accountID string, balance int64)
}
