package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aura/config"
	"aura/database"
	"aura/handlers"
	"aura/logger"
	"aura/media"
	"aura/push"
	"aura/routes"
	"aura/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadDotEnvs()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.IsRelease())
	logger.Log.WithFields(logrus.Fields{"env": cfg.Env, "store": cfg.Store}).Info("starting Aura API")

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to open store")
	}

	var videos media.VideoHost = media.Unconfigured{}
	if cfg.CloudinaryURL != "" {
		host, err := media.NewCloudinaryHost(cfg.CloudinaryURL)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to configure video host")
		}
		videos = host
	} else {
		logger.Log.Warn("CLOUDINARY_URL not set, reel uploads are disabled")
	}

	sender := push.NewSender(store, vapidKeys(cfg), cfg.VAPIDSubscriber)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	wsManager := websocket.NewManager(cfg.Origins()...)
	go wsManager.Start(ctx)

	h := handlers.New(cfg, store, videos, sender, wsManager)
	router := routes.SetupRouter(cfg, h, wsManager)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.WithField("port", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("forced shutdown")
	}
	stop()

	if err := store.Disconnect(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("store disconnect failed")
	}
	logger.Log.Info("server stopped")
}

func openStore(cfg *config.Config) (database.Store, error) {
	if cfg.Store == config.StoreMemory {
		logger.Log.Warn("using in-memory store, data is lost on restart")
		return database.NewMemoryStore(), nil
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		store, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.DBName, cfg.MongoTransactions)
		cancel()
		if err == nil {
			logger.Log.WithField("db", cfg.DBName).Info("MongoDB connected")
			return store, nil
		}
		lastErr = err
		logger.Log.WithError(err).WithField("attempt", attempt).Warn("MongoDB connection failed")
		time.Sleep(2 * time.Second)
	}
	return nil, lastErr
}

// vapidKeys returns the configured key pair. Outside release mode a missing
// pair is replaced by a throwaway one so push can be tried locally.
func vapidKeys(cfg *config.Config) push.Keys {
	keys := push.Keys{Public: cfg.VAPIDPublicKey, Private: cfg.VAPIDPrivateKey}
	if (keys.Public != "" && keys.Private != "") || cfg.IsRelease() {
		return keys
	}

	generated, err := push.GenerateKeys()
	if err != nil {
		logger.Log.WithError(err).Warn("failed to generate VAPID keys, push disabled")
		return push.Keys{}
	}
	logger.Log.Warn("generated throwaway VAPID keys; run tools/generate_vapid and set VAPID_PUBLIC_KEY / VAPID_PRIVATE_KEY")
	return generated
}
