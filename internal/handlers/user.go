package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"casino-engine-backend/internal/services"
)

type UserHandler struct {
	settlement *services.Settlement
	jwtService *services.JWTService
}

func NewUserHandler(settlement *services.Settlement, jwtService *services.JWTService) *UserHandler {
	return &UserHandler{
		settlement: settlement,
		jwtService: jwtService,
	}
}

// IssueToken creates an account on first use and returns a bearer token for
// it. Clients may bring their own account id; omitting it gets a fresh one.
func (h *UserHandler) IssueToken(c *gin.Context) {
	var req struct {
		AccountID string `json:"account_id"`
	}
	_ = c.ShouldBindJSON(&req)

	accountID := req.AccountID
	if accountID == "" {
		accountID = uuid.New().String()
	}

	if _, err := h.settlement.BalanceSummary(c.Request.Context(), accountID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := h.jwtService.GenerateToken(accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": accountID,
		"token":      token,
	})
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	accountID, exists := c.Get("account_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	summary, err := h.settlement.BalanceSummary(c.Request.Context(), accountID.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	sessionID, _ := c.Get("session_id")

	c.JSON(http.StatusOK, gin.H{
		"account": summary,
		"session": gin.H{
			"session_id": sessionID,
		},
	})
}
