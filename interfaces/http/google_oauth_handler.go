package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	youtubeapi "google.golang.org/api/youtube/v3"

	"tubedigest/infrastructure/configuration"
	"tubedigest/infrastructure/logger"
	"tubedigest/interfaces/middleware"
	"tubedigest/usecase"
)

const (
	stateCookieName = "oauth_state"
	userinfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type IGoogleOAuthHandler interface {
	Redirect(c *gin.Context)
	Callback(c *gin.Context)
}

type GoogleOAuthHandler struct {
	oauth2Config   *oauth2.Config
	sessionUsecase usecase.ISessionUsecase
	frontendURL    string
}

func NewGoogleOAuthHandler(sessionUsecase usecase.ISessionUsecase) IGoogleOAuthHandler {
	cfg := configuration.C.OAuth.Google
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			youtubeapi.YoutubeReadonlyScope,
		}
	}
	return &GoogleOAuthHandler{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		sessionUsecase: sessionUsecase,
		frontendURL:    configuration.C.Frontend.BaseURL,
	}
}

// Redirect handles GET /auth/google. The state nonce round-trips through a
// short-lived cookie and is checked again on callback.
func (h *GoogleOAuthHandler) Redirect(c *gin.Context) {
	state := uuid.NewString()
	c.SetCookie(stateCookieName, state, 600, "/", "", false, true)

	authURL := h.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	c.Redirect(http.StatusFound, authURL)
}

// Callback handles GET /auth/google/callback.
func (h *GoogleOAuthHandler) Callback(c *gin.Context) {
	if errorParam := c.Query("error"); errorParam != "" {
		logger.GetLogger().WithField("error", errorParam).Warn("OAuth consent denied")
		c.Redirect(http.StatusFound, h.frontendURL+"/login?error=oauth_denied")
		return
	}

	state := c.Query("state")
	expected, err := c.Cookie(stateCookieName)
	if err != nil || state == "" || state != expected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code not found"})
		return
	}

	token, err := h.oauth2Config.Exchange(c.Request.Context(), code)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("OAuth code exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "token exchange failed"})
		return
	}

	email, name, err := h.fetchIdentity(c, token)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("userinfo lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity lookup failed"})
		return
	}

	var expiresAt = token.Expiry
	sessionToken, err := h.sessionUsecase.CompleteSignIn(
		c.Request.Context(), email, name, token.AccessToken, token.RefreshToken, &expiresAt)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("email", email).Error("sign-in failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-in failed"})
		return
	}

	c.SetCookie(middleware.SessionCookieName, sessionToken, int(usecase.SessionTokenTTL.Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, h.frontendURL+"/channels")
}

func (h *GoogleOAuthHandler) fetchIdentity(c *gin.Context, token *oauth2.Token) (email, name string, err error) {
	client := h.oauth2Config.Client(c.Request.Context(), token)
	resp, err := client.Get(userinfoURL)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", err
	}
	if info.Email == "" {
		return "", "", fmt.Errorf("userinfo response missing email")
	}
	return info.Email, info.Name, nil
}
