package handlers

import (
	"net/http"
	"strconv"

	"atrium-api/policy"
	"atrium-api/repository"
	"atrium-api/types"

	"github.com/gin-gonic/gin"
)

// notificationPanelLimit is how many entries the notification center
// shows per fetch.
const notificationPanelLimit = 10

type NotificationsHandler struct {
	notificationsRepo *repository.NotificationsRepository
	auth              *policy.Authorizer
}

func NewNotificationsHandler(notificationsRepo *repository.NotificationsRepository, auth *policy.Authorizer) *NotificationsHandler {
	return &NotificationsHandler{notificationsRepo: notificationsRepo, auth: auth}
}

func (h *NotificationsHandler) List(c *gin.Context) {
	userID := c.GetInt("userId")
	items, hasMore, err := h.notificationsRepo.ListForUser(userID, notificationPanelLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{
		"notifications": items,
		"hasMore":       hasMore,
	}))
}

func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	userID := c.GetInt("userId")
	var req struct {
		IDs []int `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "ids must not be empty"))
		return
	}
	if err := h.notificationsRepo.MarkRead(userID, req.IDs); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationsHandler) Delete(c *gin.Context) {
	h.mutate(c, func(id int) error { return h.notificationsRepo.SetDeleted(id, true) })
}

func (h *NotificationsHandler) Restore(c *gin.Context) {
	h.mutate(c, func(id int) error { return h.notificationsRepo.SetDeleted(id, false) })
}

func (h *NotificationsHandler) ForceDelete(c *gin.Context) {
	h.mutate(c, h.notificationsRepo.ForceDelete)
}

// mutate runs the ownership check shared by delete, restore, and force
// delete before applying the change. The repository's change hook takes
// care of broadcasting the mutation.
func (h *NotificationsHandler) mutate(c *gin.Context, apply func(id int) error) {
	actorID := c.GetInt("userId")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid notification id"))
		return
	}
	n, err := h.notificationsRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if n == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Notification not found"))
		return
	}
	allowed, err := h.auth.CanReadNotification(actorID, n.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No access to this notification"))
		return
	}
	if err := apply(id); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
