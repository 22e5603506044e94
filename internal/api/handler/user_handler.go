package handler

import (
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/darkgooddack/notification-distribution/internal/api/middleware"
	"github.com/darkgooddack/notification-distribution/internal/service"
)

// UserHandler handles the notification preference endpoint.
type UserHandler struct {
	svc    *service.NotificationService
	logger *zap.Logger
}

func NewUserHandler(svc *service.NotificationService, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// ToggleNotifications handles POST /api/v1/users/me/notifications/toggle
//
// The flip only affects future sends: a publish that already snapshotted
// its recipient set keeps it.
//
// @Summary  Flip the caller's notification preference
// @Tags     users
// @Produce  json
// @Success  200  {object}  map[string]bool
// @Router   /api/v1/users/me/notifications/toggle [post]
func (h *UserHandler) ToggleNotifications(w http.ResponseWriter, r *http.Request) {
	username := apimw.GetUsername(r.Context())

	enabled, err := h.svc.ToggleNotifications(r.Context(), username)
	if err != nil {
		mapError(w, err)
		return
	}

	h.logger.Info("notification preference toggled",
		zap.String("username", username),
		zap.Bool("receive_notifications", enabled),
	)
	respondJSON(w, http.StatusOK, map[string]bool{"receive_notifications": enabled})
}
