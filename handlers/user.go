package handlers

import (
	"net/http"
	"strings"

	"aura/middleware"
	"aura/models"

	"github.com/gin-gonic/gin"
)

// UpdateProfile applies a multipart profile edit. Empty fields are left
// unchanged.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := actingUser(c, c.PostForm("userId"))
	if !ok {
		return
	}

	var update models.ProfileUpdate
	if bio := strings.TrimSpace(c.PostForm("bio")); bio != "" {
		update.Bio = &bio
	}
	if fullname := strings.TrimSpace(c.PostForm("fullname")); fullname != "" {
		update.Fullname = &fullname
	}
	if file, ok := middleware.UploadedFileFrom(c); ok {
		update.ProfilePic = &models.Media{Data: file.Data, ContentType: file.ContentType}
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	user, err := h.store.UpdateProfile(ctx, userID, update)
	if err != nil {
		storeError(c, err, "User not found", "Update failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// GetUsers lists usernames starting with the "username" query, ignoring
// case.
func (h *Handler) GetUsers(c *gin.Context) {
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	users, err := h.store.SearchUsernames(ctx, strings.TrimSpace(c.Query("username")))
	if err != nil {
		serverError(c, err, "Failed to search users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	user, err := h.store.FindUserByID(ctx, id)
	if err != nil {
		storeError(c, err, "User not found", "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
