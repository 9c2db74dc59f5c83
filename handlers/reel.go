package handlers

import (
	"bytes"
	"net/http"

	"aura/logger"
	"aura/middleware"
	"aura/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AddReelCommentRequest struct {
	ReelID string `json:"reelId"`
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

// UploadReel forwards the video to the media host and stores only the
// returned URL.
func (h *Handler) UploadReel(c *gin.Context) {
	userID, ok := actingUser(c, c.PostForm("userId"))
	if !ok {
		return
	}

	file, ok := middleware.UploadedFileFrom(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No video uploaded"})
		return
	}

	ctx, cancel := requestContext(c, uploadTimeout)
	defer cancel()

	upload, err := h.videos.UploadVideo(ctx, bytes.NewReader(file.Data), userID.Hex())
	if err != nil {
		serverError(c, err, "Video upload failed")
		return
	}

	reel := &models.Reel{
		UserID:      userID,
		VideoURL:    upload.URL,
		PublicID:    upload.PublicID,
		Caption:     c.PostForm("caption"),
		Description: c.PostForm("description"),
	}
	if err := h.store.CreateReel(ctx, reel); err != nil {
		if delErr := h.videos.DeleteVideo(ctx, upload.PublicID); delErr != nil {
			logger.Log.WithError(delErr).WithField("publicId", upload.PublicID).Warn("failed to remove orphaned video")
		}
		serverError(c, err, "Server error")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Reel uploaded successfully", "reel": reel})
}

// GetReels lists every reel, or those of "userId" when given, newest first.
func (h *Handler) GetReels(c *gin.Context) {
	var owner *primitive.ObjectID
	if raw := c.Query("userId"); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		owner = &id
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	reels, err := h.store.ListReels(ctx, owner)
	if err != nil {
		serverError(c, err, "Failed to fetch reels")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reels": reels})
}

func (h *Handler) LikeReel(c *gin.Context) {
	reelID, userID, ok := likeTarget(c, "reelId")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	state, err := h.store.ToggleReelLike(ctx, reelID, userID)
	if err != nil {
		storeError(c, err, "Reel not found", "Failed to update like")
		return
	}

	if state.Liked {
		if reel, err := h.store.ReelByID(ctx, reelID); err == nil {
			h.notify(c, reel.UserID, userID, "reel_liked", map[string]interface{}{"reelId": reelID.Hex()})
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "likes": state.Count, "isLiked": state.Liked})
}

func (h *Handler) IsLikedReel(c *gin.Context) {
	reelID, userID, ok := likeTarget(c, "reelId")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	state, err := h.store.ReelLikeState(ctx, reelID, userID)
	if err != nil {
		storeError(c, err, "Reel not found", "Failed to fetch likes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"isliked": state.Liked, "likes": state.Count})
}

func (h *Handler) AddReelComment(c *gin.Context) {
	var req AddReelCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reelId, userId and text are required"})
		return
	}

	reelID, userID, text, ok := h.bindComment(c, "reelId", commentInput{TargetID: req.ReelID, UserID: req.UserID, Text: req.Text})
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	comment := models.Comment{ID: primitive.NewObjectID(), UserID: userID, Text: text}
	if err := h.store.AddReelComment(ctx, reelID, comment); err != nil {
		storeError(c, err, "Reel not found", "Failed to add comment")
		return
	}

	if reel, err := h.store.ReelByID(ctx, reelID); err == nil {
		h.notify(c, reel.UserID, userID, "reel_commented", map[string]interface{}{"reelId": reelID.Hex(), "text": text})
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"comment": commentView(comment, c.GetString(middleware.ContextUsername)),
	})
}

func (h *Handler) GetReelComments(c *gin.Context) {
	reelID, ok := parseID(c.Query("reelId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reelId"})
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	comments, err := h.store.ReelComments(ctx, reelID)
	if err != nil {
		storeError(c, err, "Reel not found", "Failed to fetch comments")
		return
	}

	views, err := h.resolveComments(ctx, comments)
	if err != nil {
		serverError(c, err, "Failed to fetch comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": views})
}

// DeleteReel removes the record, then the hosted video. A failure on the
// host side is logged and does not fail the request.
func (h *Handler) DeleteReel(c *gin.Context) {
	reelID, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reel not found"})
		return
	}
	caller, ok := actingUser(c, "")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, uploadTimeout)
	defer cancel()

	reel, err := h.store.ReelByID(ctx, reelID)
	if err != nil {
		storeError(c, err, "Reel not found", "Failed to delete reel")
		return
	}
	if reel.UserID != caller {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own reels"})
		return
	}

	deleted, err := h.store.DeleteReel(ctx, reelID)
	if err != nil {
		storeError(c, err, "Reel not found", "Failed to delete reel")
		return
	}

	if err := h.videos.DeleteVideo(ctx, deleted.PublicID); err != nil {
		logger.Log.WithError(err).WithField("publicId", deleted.PublicID).Warn("failed to destroy hosted video")
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reel deleted"})
}
