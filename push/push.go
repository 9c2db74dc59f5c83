// Package push delivers activity notifications to subscribed browsers over
// the Web Push protocol.
package push

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"aura/database"
	"aura/logger"
	"aura/models"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	sendTimeout = 5 * time.Second
	ttlSeconds  = 30
	maxBodyLen  = 100
)

// Keys is a VAPID key pair.
type Keys struct {
	Public  string
	Private string
}

// GenerateKeys creates a fresh VAPID key pair.
func GenerateKeys() (Keys, error) {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return Keys{}, errors.Wrap(err, "generate vapid keys")
	}
	return Keys{Public: publicKey, Private: privateKey}, nil
}

type Sender struct {
	store      database.PushStore
	keys       Keys
	subscriber string
	client     webpush.HTTPClient
}

func NewSender(store database.PushStore, keys Keys, subscriber string) *Sender {
	return &Sender{
		store:      store,
		keys:       keys,
		subscriber: subscriber,
		client:     &http.Client{Timeout: sendTimeout},
	}
}

func (s *Sender) PublicKey() string { return s.keys.Public }

func (s *Sender) Enabled() bool { return s.keys.Public != "" && s.keys.Private != "" }

func (s *Sender) Subscribe(ctx context.Context, userID primitive.ObjectID, endpoint string, keys models.PushKeys) error {
	return s.store.SavePushSubscription(ctx, &models.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		Keys:     keys,
	})
}

// Notify pushes an event in the background. Users without a subscription
// are skipped silently.
func (s *Sender) Notify(userID, event string, payload map[string]interface{}) {
	if !s.Enabled() {
		return
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return
	}

	title, body := describe(event, payload)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithField("panic", r).Error("push notification panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := s.Send(ctx, id, title, body); err != nil && !errors.Is(err, database.ErrNotFound) {
			logger.Log.WithError(err).WithField("userId", userID).Warn("push notification failed")
		}
	}()
}

// Send delivers one notification synchronously. A subscription the push
// service reports as gone is deleted.
func (s *Sender) Send(ctx context.Context, userID primitive.ObjectID, title, body string) error {
	sub, err := s.store.FindPushSubscription(ctx, userID)
	if err != nil {
		return err
	}

	body = truncate(body, maxBodyLen)
	payload, err := json.Marshal(map[string]interface{}{
		"title": title,
		"body":  body,
		"data": map[string]interface{}{
			"url":       "/",
			"timestamp": time.Now().Unix(),
		},
	})
	if err != nil {
		return errors.Wrap(err, "marshal push payload")
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.keys.Public,
		VAPIDPrivateKey: s.keys.Private,
		TTL:             ttlSeconds,
	})
	if err != nil {
		return errors.Wrap(err, "send push notification")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		logger.Log.WithField("userId", userID.Hex()).Info("push subscription expired, deleting")
		if err := s.store.DeletePushSubscription(ctx, userID); err != nil && !errors.Is(err, database.ErrNotFound) {
			return errors.Wrap(err, "delete expired subscription")
		}
		return nil
	case resp.StatusCode >= 400:
		return errors.Errorf("push service responded %d", resp.StatusCode)
	}

	logger.Log.WithFields(logrus.Fields{"userId": userID.Hex(), "title": title}).Debug("push notification sent")
	return nil
}

// truncate shortens s to at most n characters, adding an ellipsis when it cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func describe(event string, payload map[string]interface{}) (string, string) {
	from, _ := payload["from"].(string)
	if from == "" {
		from = "Someone"
	}

	switch event {
	case "post_liked":
		return "New like", from + " liked your post"
	case "reel_liked":
		return "New like", from + " liked your reel"
	case "post_commented":
		text, _ := payload["text"].(string)
		return from + " commented on your post", text
	case "reel_commented":
		text, _ := payload["text"].(string)
		return from + " commented on your reel", text
	case "followed":
		return "New follower", from + " started following you"
	}
	return "Aura", from + " interacted with you"
}
