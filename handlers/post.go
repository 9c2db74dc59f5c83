package handlers

import (
	"net/http"

	"aura/middleware"
	"aura/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AddCommentRequest struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

func (h *Handler) UploadPost(c *gin.Context) {
	userID, ok := actingUser(c, c.PostForm("userId"))
	if !ok {
		return
	}

	file, ok := middleware.UploadedFileFrom(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	post := &models.Post{
		UserID:      userID,
		Image:       models.Media{Data: file.Data, ContentType: file.ContentType},
		Caption:     c.PostForm("caption"),
		Description: c.PostForm("description"),
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	if err := h.store.CreatePost(ctx, post); err != nil {
		serverError(c, err, "Server error")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Post uploaded successfully", "post": post})
}

// GetPosts lists the posts of the user in the "userId" query.
func (h *Handler) GetPosts(c *gin.Context) {
	h.listPosts(c, c.Query("userId"))
}

// GetPost lists the posts of the user in the path.
func (h *Handler) GetPost(c *gin.Context) {
	h.listPosts(c, c.Param("id"))
}

func (h *Handler) listPosts(c *gin.Context, owner string) {
	userID, ok := parseID(owner)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	posts, err := h.store.PostsByUser(ctx, userID)
	if err != nil {
		serverError(c, err, "Failed to fetch posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// DeletePost takes the id from the path or the "postId" query. Only the
// owner may delete.
func (h *Handler) DeletePost(c *gin.Context) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("postId")
	}
	// an id that cannot exist is reported like any other missing post
	postID, ok := parseID(raw)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	caller, ok := actingUser(c, "")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	post, err := h.store.PostByID(ctx, postID)
	if err != nil {
		storeError(c, err, "Post not found", "Failed to delete post")
		return
	}
	if post.UserID != caller {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own posts"})
		return
	}

	if err := h.store.DeletePost(ctx, postID); err != nil {
		storeError(c, err, "Post not found", "Failed to delete post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post deleted"})
}

// ToggleLike flips the caller's like on the post in "postId".
func (h *Handler) ToggleLike(c *gin.Context) {
	postID, userID, ok := likeTarget(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	state, err := h.store.TogglePostLike(ctx, postID, userID)
	if err != nil {
		storeError(c, err, "Post not found", "Failed to update like")
		return
	}

	if state.Liked {
		if post, err := h.store.PostByID(ctx, postID); err == nil {
			h.notify(c, post.UserID, userID, "post_liked", map[string]interface{}{"postId": postID.Hex()})
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "likes": state.Count, "isLiked": state.Liked})
}

func (h *Handler) IsLiked(c *gin.Context) {
	postID, userID, ok := likeTarget(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	state, err := h.store.PostLikeState(ctx, postID, userID)
	if err != nil {
		storeError(c, err, "Post not found", "Failed to fetch likes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"isliked": state.Liked, "likes": state.Count})
}

// likeTarget reads the target id from the query and the acting user from
// "Id". Both may also come in a JSON body.
func likeTarget(c *gin.Context, field string) (target, user primitive.ObjectID, ok bool) {
	rawTarget, rawUser := c.Query(field), c.Query("Id")
	if c.Request.Method != http.MethodGet && (rawTarget == "" || rawUser == "") {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err == nil {
			if rawTarget == "" {
				rawTarget = body[field]
			}
			if rawUser == "" {
				rawUser = body["Id"]
			}
		}
	}

	target, ok = parseID(rawTarget)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + field})
		return
	}
	user, ok = actingUser(c, rawUser)
	return target, user, ok
}

func (h *Handler) AddComment(c *gin.Context) {
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "postId, userId and text are required"})
		return
	}

	postID, userID, text, ok := h.bindComment(c, "postId", commentInput{TargetID: req.PostID, UserID: req.UserID, Text: req.Text})
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	comment := models.Comment{ID: primitive.NewObjectID(), UserID: userID, Text: text}
	if err := h.store.AddPostComment(ctx, postID, comment); err != nil {
		storeError(c, err, "Post not found", "Failed to add comment")
		return
	}

	if post, err := h.store.PostByID(ctx, postID); err == nil {
		h.notify(c, post.UserID, userID, "post_commented", map[string]interface{}{"postId": postID.Hex(), "text": text})
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"comment": commentView(comment, c.GetString(middleware.ContextUsername)),
	})
}

// GetComments returns the comments of the post in "postId", oldest first.
func (h *Handler) GetComments(c *gin.Context) {
	postID, ok := parseID(c.Query("postId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid postId"})
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	comments, err := h.store.PostComments(ctx, postID)
	if err != nil {
		storeError(c, err, "Post not found", "Failed to fetch comments")
		return
	}

	views, err := h.resolveComments(ctx, comments)
	if err != nil {
		serverError(c, err, "Failed to fetch comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": views})
}
