package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/darkgooddack/notification-distribution/internal/api/middleware"
	"github.com/darkgooddack/notification-distribution/internal/domain"
	"github.com/darkgooddack/notification-distribution/internal/service"
)

// NotificationHandler handles the fan-out publish endpoint and the
// per-user notification listing.
type NotificationHandler struct {
	svc    *service.NotificationService
	logger *zap.Logger
}

func NewNotificationHandler(svc *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

// Send handles POST /api/v1/notifications
//
// @Summary  Publish a notification to all eligible users
// @Tags     notifications
// @Accept   json
// @Produce  json
// @Param    body  body      domain.PublishRequest  true  "Notification payload"
// @Success  202   {object}  domain.PublishResult
// @Failure  422   {object}  map[string]string
// @Failure  503   {object}  map[string]string  "Row persisted but the broker was unreachable"
// @Router   /api/v1/notifications [post]
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.svc.Publish(r.Context(), req)
	if err != nil {
		h.logger.Warn("publish failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	// 202: the messages are queued; delivery happens asynchronously.
	respondJSON(w, http.StatusAccepted, res)
}

// List handles GET /api/v1/notifications
//
// @Summary  List notifications delivered to the current user
// @Tags     notifications
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.svc.ListForUser(r.Context(), apimw.GetUsername(r.Context()))
	if err != nil {
		mapError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": notifications})
}
