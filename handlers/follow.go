package handlers

import (
	"net/http"

	"aura/database"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowRequest is a directed edge: User1 follows (or unfollows) User2.
type FollowRequest struct {
	User1 string `json:"user1" binding:"required"`
	User2 string `json:"user2" binding:"required"`
}

func (h *Handler) bindFollow(c *gin.Context) (follower, followee primitive.ObjectID, ok bool) {
	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user1 and user2 are required"})
		return
	}

	followee, ok = parseID(req.User2)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	follower, ok = actingUser(c, req.User1)
	return follower, followee, ok
}

func (h *Handler) Follow(c *gin.Context) {
	follower, followee, ok := h.bindFollow(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	err := h.store.Follow(ctx, follower, followee)
	switch {
	case errors.Is(err, database.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot follow yourself"})
		return
	case errors.Is(err, database.ErrAlreadyFollowing):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already following"})
		return
	case err != nil:
		storeError(c, err, "User not found", "Failed to follow user")
		return
	}

	h.notify(c, followee, follower, "followed", map[string]interface{}{})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Followed successfully"})
}

// Unfollow removes the edge on both sides. Removing an edge that does not
// exist succeeds.
func (h *Handler) Unfollow(c *gin.Context) {
	follower, followee, ok := h.bindFollow(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	if err := h.store.Unfollow(ctx, follower, followee); err != nil {
		serverError(c, err, "Failed to unfollow user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Unfollowed successfully"})
}
