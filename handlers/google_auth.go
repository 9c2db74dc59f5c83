package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"aura/config"
	"aura/database"
	"aura/logger"
	"aura/middleware"
	"aura/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 600

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleProvider is the OAuth client used for "Sign in with Google".
type GoogleProvider struct {
	Config      *oauth2.Config
	UserInfoURL string
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// NewGoogleProvider returns nil when no client credentials are configured.
func NewGoogleProvider(cfg *config.Config) *GoogleProvider {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil
	}
	return &GoogleProvider{
		Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		UserInfoURL: googleUserInfoURL,
	}
}

// UseGoogle replaces the Google provider; nil disables Google sign-in.
func (h *Handler) UseGoogle(p *GoogleProvider) {
	h.google = p
}

func (h *Handler) GetGoogleAuthURL(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateTTL, "/", "", h.cfg.CookieSecure, true)

	c.JSON(http.StatusOK, gin.H{"url": h.google.Config.AuthCodeURL(state)})
}

// GoogleCallback finishes the authorization code flow. Users are matched by
// email; unknown emails get a new account with a generated username.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code missing"})
		return
	}
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.cfg.CookieSecure, true)

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	token, err := h.google.Config.Exchange(ctx, code)
	if err != nil {
		serverError(c, err, "Failed to exchange authorization code")
		return
	}

	profile, err := h.fetchGoogleUser(c, token)
	if err != nil {
		serverError(c, err, "Failed to get user information")
		return
	}
	if profile.Email == "" || !profile.VerifiedEmail {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google account has no verified email"})
		return
	}

	user, err := h.store.FindUserByEmail(ctx, profile.Email)
	isNewUser := errors.Is(err, database.ErrNotFound)
	switch {
	case isNewUser:
		user, err = h.createGoogleUser(c, profile)
		if err != nil {
			serverError(c, err, "Failed to create user account")
			return
		}
		logger.Log.WithField("userId", user.ID.Hex()).Info("created account from Google sign-in")
	case err != nil:
		serverError(c, err, "Server error")
		return
	}

	jwtToken, err := middleware.IssueToken(h.cfg.JWTSecret, h.cfg.TokenTTL, user.ID.Hex(), user.Username, user.Email)
	if err != nil {
		serverError(c, err, "Server error")
		return
	}

	middleware.SetSessionCookie(c, jwtToken, h.cfg.TokenTTL, h.cfg.CookieSecure)
	c.JSON(http.StatusOK, gin.H{"token": jwtToken, "user": user, "isNewUser": isNewUser})
}

func (h *Handler) fetchGoogleUser(c *gin.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.google.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.google.Config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request google user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("google user info responded %d", resp.StatusCode)
	}

	var profile GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errors.Wrap(err, "decode google user info")
	}
	return &profile, nil
}

// createGoogleUser registers a password-less account. The stored hash is of
// a random secret, so password login stays impossible until a reset.
func (h *Handler) createGoogleUser(c *gin.Context, profile *GoogleUserInfo) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(c, requestTimeout)
	defer cancel()

	for attempt := 0; attempt < 3; attempt++ {
		user := &models.User{
			Username: usernameFromEmail(profile.Email),
			Email:    profile.Email,
			Password: string(hash),
			Fullname: profile.Name,
			Bio:      models.DefaultBio,
		}
		err = h.store.CreateUser(ctx, user)
		if !errors.Is(err, database.ErrDuplicateUsername) {
			return user, err
		}
	}
	return nil, err
}

// usernameFromEmail builds "localpart_abcd" from an email address.
func usernameFromEmail(email string) string {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	local = strings.ToLower(strings.ReplaceAll(local, ".", ""))
	if local == "" {
		local = "user"
	}
	return local + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
}
