package handlers

import (
	"log/slog"
	"net/http"
	"os"

	"atrium-api/models"
	"atrium-api/pkg/notify"
	"atrium-api/repository"
	"atrium-api/types"

	"github.com/gin-gonic/gin"
)

type PreferencesHandler struct {
	usersRepo *repository.UsersRepository
	notifier  *notify.Notifier
}

func NewPreferencesHandler(usersRepo *repository.UsersRepository, notifier *notify.Notifier) *PreferencesHandler {
	return &PreferencesHandler{usersRepo: usersRepo, notifier: notifier}
}

// UpdatePreferences changes theme and locale for the authenticated user.
// Values outside the allowed sets are rejected before touching storage.
func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	userID := c.GetInt("userId")
	var req struct {
		Theme  *string `json:"theme"`
		Locale *string `json:"locale"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	if req.Theme == nil && req.Locale == nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Nothing to update"))
		return
	}
	if req.Theme != nil && !models.IsAllowedTheme(*req.Theme) {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Unknown theme"))
		return
	}
	if req.Locale != nil && !models.IsAllowedLocale(*req.Locale) {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Unknown locale"))
		return
	}
	if err := h.usersRepo.UpdatePreferences(userID, req.Theme, req.Locale); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	user, err := h.usersRepo.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(user))
}

// verifyRedirectURL is the fixed landing page after a verification
// attempt. The outcome travels as a toast, not in the URL.
func verifyRedirectURL() string {
	if v := os.Getenv("VERIFY_REDIRECT_URL"); v != "" {
		return v
	}
	return "/login"
}

// VerifyEmail consumes a verification link. The browser is redirected to
// the same destination whether the token matched or not; the outcome is
// flashed as a toast on the user channel (success) or on the anonymous
// session channel when the link carries a sessionId.
func (h *PreferencesHandler) VerifyEmail(c *gin.Context) {
	token := c.Param("token")
	sessionID := c.Query("sessionId")

	user, err := h.usersRepo.VerifyEmailByTokenHash(HashToken(token))
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	if user != nil {
		if err := h.notifier.Success("Email verified").
			Content("Your email address is confirmed.").
			ToUser(user.ID).
			Persist().
			Send(); err != nil {
			slog.Error("verification toast not delivered", "userId", user.ID, "error", err)
		}
	} else if sessionID != "" {
		if err := h.notifier.Error("Verification failed").
			Content("This verification link is invalid or already used.").
			ToSession(sessionID).
			Send(); err != nil {
			slog.Error("verification toast not delivered", "sessionId", sessionID, "error", err)
		}
	}

	c.Redirect(http.StatusFound, verifyRedirectURL())
}
