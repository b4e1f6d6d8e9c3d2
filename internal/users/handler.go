package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/shared/server/middleware"
	"notes-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

// me returns the caller's identity. Guests get their guest id and no
// profile; signed-in users get the stored profile.
func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if isGuest, ok := c.Get("isGuest"); ok {
		if guest, ok2 := isGuest.(bool); ok2 && guest {
			respond.JSON(c, http.StatusOK, gin.H{"userId": userID, "guest": true})
			return
		}
	}
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"userId":          user.ID,
		"email":           user.Email,
		"fullName":        user.FullName,
		"displayName":     user.DisplayName(),
		"pictureUrl":      user.PictureURL,
		"participantName": h.Svc.ParticipantName(c.Request.Context(), user.ID, middleware.UserEmailFromContext(c)),
		"guest":           false,
	})
}
