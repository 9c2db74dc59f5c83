package handlers

import (
	"context"
	"net/http"
	"time"

	"aura/config"
	"aura/database"
	"aura/logger"
	"aura/media"
	"aura/middleware"
	"aura/push"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	requestTimeout = 10 * time.Second
	uploadTimeout  = 60 * time.Second
)

// Notifier receives activity events addressed to a single user.
type Notifier interface {
	Notify(userID, event string, payload map[string]interface{})
}

type Handler struct {
	cfg       *config.Config
	store     database.Store
	videos    media.VideoHost
	push      *push.Sender
	google    *GoogleProvider
	notifiers []Notifier
	validate  *validator.Validate
}

// New wires the handlers. The push sender, when enabled, also receives every
// notification.
func New(cfg *config.Config, store database.Store, videos media.VideoHost, sender *push.Sender, notifiers ...Notifier) *Handler {
	if sender != nil && sender.Enabled() {
		notifiers = append(notifiers, sender)
	}
	return &Handler{
		cfg:       cfg,
		store:     store,
		videos:    videos,
		push:      sender,
		google:    NewGoogleProvider(cfg),
		notifiers: notifiers,
		validate:  validator.New(),
	}
}

func requestContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}

func parseID(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(s)
	return id, err == nil
}

// actingUser resolves the user a request acts for. A supplied id must be the
// caller's own; an empty one defaults to the caller. On false the response
// has already been written.
func actingUser(c *gin.Context, supplied string) (primitive.ObjectID, bool) {
	caller, ok := parseID(c.GetString(middleware.ContextUserID))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return primitive.NilObjectID, false
	}
	if supplied == "" {
		return caller, true
	}

	id, ok := parseID(supplied)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return primitive.NilObjectID, false
	}
	if id != caller {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only act as yourself"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// storeError answers with 404 for missing records and a generic 500
// otherwise.
func storeError(c *gin.Context, err error, notFoundMsg, failMsg string) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
		return
	}
	serverError(c, err, failMsg)
}

func serverError(c *gin.Context, err error, msg string) {
	logger.Log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"userId": c.GetString(middleware.ContextUserID),
	}).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// notify tells owner about actor's activity. Nobody is notified about their
// own actions.
func (h *Handler) notify(c *gin.Context, owner, actor primitive.ObjectID, event string, payload map[string]interface{}) {
	if owner == actor || owner.IsZero() {
		return
	}
	payload["from"] = c.GetString(middleware.ContextUsername)
	payload["fromId"] = actor.Hex()
	for _, n := range h.notifiers {
		n.Notify(owner.Hex(), event, payload)
	}
}
