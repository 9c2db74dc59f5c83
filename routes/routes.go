package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aura/config"
	"aura/handlers"
	"aura/logger"
	"aura/middleware"
	"aura/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg *config.Config, h *handlers.Handler, ws *websocket.Manager) *gin.Engine {
	router := gin.New()
	router.Use(logger.Middleware(), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", func(c *gin.Context) {
		if serveIndex(c, cfg.StaticDir) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "Aura API running", "service": "healthy"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
			"ws":     ws != nil,
		})
	})

	// Public routes (no auth required)
	limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	router.POST("/register", middleware.RateLimitMiddleware(limiter), h.Register)
	router.POST("/login", middleware.RateLimitMiddleware(limiter), h.Login)
	router.POST("/logout", h.Logout)
	router.GET("/me", h.Me)
	router.GET("/getUsers", h.GetUsers)
	router.GET("/vapid-public-key", h.GetVapidPublicKey)

	// Google sign-in
	router.GET("/google/auth-url", h.GetGoogleAuthURL)
	router.GET("/google/callback", middleware.RateLimitMiddleware(limiter), h.GoogleCallback)

	protected := router.Group("/")
	protected.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	image := middleware.SingleFile("file", cfg.ImageMaxBytes, nil, "")
	profilePic := middleware.SingleFile("profilePic", cfg.ImageMaxBytes, nil, "")
	video := middleware.SingleFile("video", cfg.ReelMaxBytes, middleware.VideoOnly, "Only video files are allowed")

	// Profile
	protected.PUT("/updateprofile", profilePic, h.UpdateProfile)
	protected.GET("/getUser/:id", h.GetUser)

	// Posts
	protected.POST("/uploadPost", image, h.UploadPost)
	protected.GET("/getPosts", h.GetPosts)
	protected.GET("/getPost/:id", h.GetPost)
	protected.DELETE("/deletePost", h.DeletePost)
	protected.DELETE("/deletePost/:id", h.DeletePost)
	protected.PUT("/like", h.ToggleLike)
	protected.GET("/isLiked", h.IsLiked)
	protected.POST("/addComment", h.AddComment)
	protected.GET("/getComment", h.GetComments)

	// Social graph
	protected.POST("/follow", h.Follow)
	protected.POST("/unfollow", h.Unfollow)

	// Reels
	protected.POST("/upload-reel", video, h.UploadReel)
	protected.GET("/getReels", h.GetReels)
	protected.POST("/likeReel", h.LikeReel)
	protected.GET("/isLikedReel", h.IsLikedReel)
	protected.POST("/addReelComment", h.AddReelComment)
	protected.GET("/getReelComment", h.GetReelComments)
	protected.DELETE("/deleteReel/:id", h.DeleteReel)

	// Push subscriptions
	protected.POST("/subscribe", h.SubscribePush)

	if ws != nil {
		protected.GET("/ws", ws.Handler())
	}

	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && serveStatic(c, cfg.StaticDir) {
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}

// serveStatic serves a file of the client bundle, falling back to
// index.html so client-side routes resolve.
func serveStatic(c *gin.Context, dir string) bool {
	if dir == "" {
		return false
	}
	path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+c.Request.URL.Path)))
	if !strings.HasPrefix(path, filepath.Clean(dir)) {
		return false
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		c.File(path)
		return true
	}
	return serveIndex(c, dir)
}

func serveIndex(c *gin.Context, dir string) bool {
	if dir == "" {
		return false
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return false
	}
	c.File(index)
	return true
}
