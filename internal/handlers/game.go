package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"casino-engine-backend/internal/models"
	"casino-engine-backend/internal/services"
)

type GameHandler struct {
	settlement *services.Settlement
	store      services.Store
	logger     *zap.Logger
}

func NewGameHandler(settlement *services.Settlement, store services.Store, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		settlement: settlement,
		store:      store,
		logger:     logger,
	}
}

// rejectionStatus maps a settlement rejection onto an HTTP status.
func rejectionStatus(r *services.Rejection) int {
	switch r.Kind {
	case services.RejectionInsufficientBalance:
		return http.StatusPaymentRequired
	case services.RejectionBankrollLimit:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (h *GameHandler) respondError(c *gin.Context, err error) {
	if rejection, ok := services.AsRejection(err); ok {
		c.JSON(rejectionStatus(rejection), gin.H{
			"error":     rejection.Message,
			"kind":      rejection.Kind,
			"rejection": rejection,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrBetNotFound), errors.Is(err, services.ErrSeedPairNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSeedNotRevealed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBatchTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	// Rate Limit: 30 bets per minute
	allowed, err := h.store.CheckRateLimit(c.Request.Context(), accountID, "bet", services.DefaultRateLimitBets, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many bets. Please wait."})
		return
	}

	result, err := h.settlement.PlaceBet(c.Request.Context(), accountID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bet":     result,
	})
}

func (h *GameHandler) PlaceBets(c *gin.Context) {
	accountID := c.GetString("account_id")

	var reqs []*models.BetRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	// A batch counts once against the bet rate limit.
	allowed, err := h.store.CheckRateLimit(c.Request.Context(), accountID, "bet", services.DefaultRateLimitBets, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many bets. Please wait."})
		return
	}

	results, err := h.settlement.PlaceBets(c.Request.Context(), accountID, reqs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
	})
}

func (h *GameHandler) GetBalance(c *gin.Context) {
	accountID := c.GetString("account_id")

	summary, err := h.settlement.BalanceSummary(c.Request.Context(), accountID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *GameHandler) GetLedgerHistory(c *gin.Context) {
	accountID := c.GetString("account_id")
	limit, offset := pagination(c)

	entries, err := h.settlement.Ledger().GetHistory(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *GameHandler) GetBetHistory(c *gin.Context) {
	accountID := c.GetString("account_id")
	limit, offset := pagination(c)

	records, err := h.store.BetRecords(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bets":   records,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *GameHandler) GetVerificationData(c *gin.Context) {
	accountID := c.GetString("account_id")

	data, err := h.settlement.VerificationData(c.Request.Context(), accountID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *GameHandler) VerifyBet(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	// Rate Limit: 60 verifications per minute
	allowed, err := h.store.CheckRateLimit(c.Request.Context(), accountID, "verify", services.DefaultRateLimitVerify, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many verifications. Please wait."})
		return
	}

	result, err := h.settlement.VerifyBet(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *GameHandler) RotateSeed(c *gin.Context) {
	accountID := c.GetString("account_id")

	revealed, fresh, err := h.settlement.RotateSeed(c.Request.Context(), accountID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := gin.H{
		"fresh": gin.H{
			"id":   fresh.ID,
			"hash": fresh.Hash,
		},
	}
	if revealed != nil {
		response["revealed"] = gin.H{
			"id":          revealed.ID,
			"hash":        revealed.Hash,
			"secret":      revealed.RevealedSecret(),
			"nonces_used": revealed.Nonce,
			"revealed_at": revealed.RevealedAt,
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *GameHandler) GetSeedHistory(c *gin.Context) {
	accountID := c.GetString("account_id")
	limit, _ := pagination(c)

	pairs, err := h.settlement.Seeds().History(c.Request.Context(), accountID, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	history := make([]gin.H, 0, len(pairs))
	for _, pair := range pairs {
		item := gin.H{
			"id":          pair.ID,
			"hash":        pair.Hash,
			"nonces_used": pair.Nonce,
			"active":      pair.Active,
			"created_at":  pair.CreatedAt,
		}
		if pair.Revealed() {
			item["secret"] = pair.RevealedSecret()
			item["revealed_at"] = pair.RevealedAt
		}
		history = append(history, item)
	}

	c.JSON(http.StatusOK, gin.H{"seed_pairs": history})
}

func (h *GameHandler) SetRiskFactor(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req struct {
		RiskFactor float64 `json:"risk_factor" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	account, limits, err := h.settlement.SetRiskFactor(c.Request.Context(), accountID, req.RiskFactor)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"risk_factor": account.RiskFactor,
		"limits":      limits,
	})
}

func pagination(c *gin.Context) (limit, offset int64) {
	limit = 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
