package handlers

import (
	"net/http"
	"strings"

	"aura/database"
	"aura/middleware"
	"aura/models"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username, a valid email and password are required"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		serverError(c, err, "Server error")
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Bio:      models.DefaultBio,
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	err = h.store.CreateUser(ctx, user)
	switch {
	case errors.Is(err, database.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
		return
	case errors.Is(err, database.ErrDuplicateUsername):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username already taken"})
		return
	case err != nil:
		serverError(c, err, "Server error")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	user, err := h.store.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email"})
		return
	}
	if err != nil {
		serverError(c, err, "Server error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid password"})
		return
	}

	token, err := middleware.IssueToken(h.cfg.JWTSecret, h.cfg.TokenTTL, user.ID.Hex(), user.Username, user.Email)
	if err != nil {
		serverError(c, err, "Server error")
		return
	}

	middleware.SetSessionCookie(c, token, h.cfg.TokenTTL, h.cfg.CookieSecure)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me resolves the session without the auth middleware so that every failure
// answers with the same {user: null} body.
func (h *Handler) Me(c *gin.Context) {
	token := middleware.TokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"user": nil})
		return
	}

	claims, err := middleware.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"user": nil})
		return
	}
	id, ok := parseID(claims.UserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"user": nil})
		return
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	user, err := h.store.FindUserByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"user": nil})
		return
	}
	if err != nil {
		serverError(c, err, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, h.cfg.CookieSecure)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
