package handlers

import (
	"net/http"

	"aura/models"

	"github.com/gin-gonic/gin"
)

type SubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

func (h *Handler) GetVapidPublicKey(c *gin.Context) {
	if h.push == nil || !h.push.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.push.PublicKey()})
}

// SubscribePush stores the caller's browser subscription, replacing any
// previous one.
func (h *Handler) SubscribePush(c *gin.Context) {
	if h.push == nil || !h.push.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint and keys are required"})
		return
	}

	userID, ok := actingUser(c, "")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	keys := models.PushKeys{P256dh: req.Keys.P256dh, Auth: req.Keys.Auth}
	if err := h.push.Subscribe(ctx, userID, req.Endpoint, keys); err != nil {
		serverError(c, err, "Failed to save subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push subscription saved"})
}
