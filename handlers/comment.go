package handlers

import (
	"context"
	"net/http"
	"strings"

	"aura/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type commentInput struct {
	TargetID string `validate:"required"`
	UserID   string `validate:"required"`
	Text     string `validate:"required,max=500"`
}

// bindComment validates a comment payload. All three fields are mandatory,
// the acting user included. On false the response has already been written.
func (h *Handler) bindComment(c *gin.Context, targetField string, in commentInput) (target, author primitive.ObjectID, text string, ok bool) {
	in.TargetID = strings.TrimSpace(in.TargetID)
	in.UserID = strings.TrimSpace(in.UserID)
	in.Text = strings.TrimSpace(in.Text)

	if err := h.validate.Struct(in); err != nil {
		msg := targetField + ", userId and text are required"
		if in.TargetID != "" && in.UserID != "" && in.Text != "" {
			msg = "Comment must be at most 500 characters"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	target, ok = parseID(in.TargetID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + targetField})
		return
	}
	author, ok = actingUser(c, in.UserID)
	if !ok {
		return
	}
	return target, author, in.Text, true
}

// resolveComments attaches author usernames. Authors that no longer exist
// keep their id with an empty username.
func (h *Handler) resolveComments(ctx context.Context, comments []models.Comment) ([]models.CommentView, error) {
	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.UserID)
	}

	authors, err := h.store.UserSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, cm := range comments {
		author, ok := authors[cm.UserID]
		if !ok {
			author = models.UserSummary{ID: cm.UserID}
		}
		views = append(views, models.CommentView{ID: cm.ID, UserID: author, Text: cm.Text})
	}
	return views, nil
}

func commentView(cm models.Comment, username string) models.CommentView {
	return models.CommentView{
		ID:     cm.ID,
		UserID: models.UserSummary{ID: cm.UserID, Username: username},
		Text:   cm.Text,
	}
}
